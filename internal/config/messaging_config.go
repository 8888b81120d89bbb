package config

const (
	amqpURLEnvVar   = "AMQP_URL"
	amqpQueueEnvVar = "AMQP_QUEUE"
)

type MessagingConfig interface {
	GetAMQPURL() string
	GetAMQPQueue() string
}

// Messaging is optional, an empty AMQP url disables event publishing.
type Messaging struct {
	AMQPURL   string `yaml:"amqp_url"`
	AMQPQueue string `yaml:"amqp_queue"`
}

var _ MessagingConfig = Messaging{}

func (m *Messaging) applyEnv() {
	m.AMQPURL = GetEnv(amqpURLEnvVar, m.AMQPURL)
	m.AMQPQueue = GetEnv(amqpQueueEnvVar, m.AMQPQueue)
}

func (m Messaging) GetAMQPURL() string {
	return m.AMQPURL
}

func (m Messaging) GetAMQPQueue() string {
	if m.AMQPQueue == "" {
		return "auth.events"
	}
	return m.AMQPQueue
}

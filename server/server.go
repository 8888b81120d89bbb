package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/bookstore-auth/auth"
	"github.com/jrsteele09/bookstore-auth/internal/config"
	"github.com/rs/zerolog"
)

// AuthService is the slice of auth.AuthenticationService the handlers use
type AuthService interface {
	Login(ctx context.Context, req auth.LoginRequest) (*auth.TokenResponse, error)
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Authenticate(ctx context.Context, accessToken string) (*auth.Principal, error)
}

// Settings is the configuration the HTTP layer reads
type Settings interface {
	config.EnvConfig
	config.CorsConfig
}

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  Settings
	auth    AuthService
	logger  zerolog.Logger
	nowTime func() time.Time
}

func New(config Settings, authService AuthService, logger zerolog.Logger) *Server {
	s := &Server{
		env:     config.GetEnv(),
		mux:     http.NewServeMux(),
		config:  config,
		auth:    authService,
		logger:  logger,
		nowTime: time.Now,
	}

	s.initRoutes()
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes lists the registered patterns in registration order
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != config.EnvDev {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	s.logger.Info().Msgf("[%-19s] %s", displayMethod, path)
}

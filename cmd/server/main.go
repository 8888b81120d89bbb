package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/bookstore-auth/auth"
	"github.com/jrsteele09/bookstore-auth/events"
	"github.com/jrsteele09/bookstore-auth/internal/config"
	"github.com/jrsteele09/bookstore-auth/internal/logging"
	"github.com/jrsteele09/bookstore-auth/server"
	"github.com/jrsteele09/bookstore-auth/token"
	"github.com/jrsteele09/bookstore-auth/token/refresh"
	"github.com/jrsteele09/bookstore-auth/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(c)
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, c, logger)
	if err != nil {
		return fmt.Errorf("opening stores: %w", err)
	}
	defer st.Close()

	hasher, err := users.NewBcryptHasher(c.GetBcryptCost())
	if err != nil {
		return err
	}
	signer, err := token.NewHMACSigner(c.GetJWTSecret())
	if err != nil {
		return err
	}
	tokens := token.New(signer, token.WithTokenExpiry(c.GetAccessTokenTTL()))
	refreshTokens := refresh.NewManager(st.refreshTokens, c.GetRefreshTokenTTL())

	publisher := newPublisher(c, logger)
	defer publisher.Close()

	authService, err := auth.NewAuthenticationService(
		auth.Repos{Users: st.users},
		hasher,
		tokens,
		refreshTokens,
		auth.WithLogger(logger),
		auth.WithPublisher(publisher),
	)
	if err != nil {
		return err
	}

	if err := seedAdmin(ctx, c, st.users, hasher, logger); err != nil {
		return err
	}

	go refresh.NewSweeper(refreshTokens, c.GetSweepInterval(), logger).Run(ctx)

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           server.New(c, authService, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(httpServer, logger) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

func newPublisher(c config.MessagingConfig, logger zerolog.Logger) events.Publisher {
	if c.GetAMQPURL() == "" {
		return events.NopPublisher{}
	}
	p := events.NewAMQPPublisher(c.GetAMQPURL(), c.GetAMQPQueue())
	if err := p.Connect(); err != nil {
		// the publisher redials on the next event
		logger.Warn().Err(err).Msg("event broker unavailable")
	}
	return p
}

func seedAdmin(ctx context.Context, c config.SecurityConfig, repo users.UserRepo, hasher users.PasswordHasher, logger zerolog.Logger) error {
	if c.GetAdminEmail() == "" {
		return nil
	}
	generated, err := users.SeedAdmin(ctx, repo, hasher, c.GetAdminEmail(), c.GetAdminPassword(), time.Now().UTC())
	if err != nil {
		return err
	}
	if generated != "" {
		// shown once, the account holder is expected to change it
		fmt.Printf("Admin account %s created with password: %s\n", c.GetAdminEmail(), generated)
	}
	return nil
}

func listenAndServe(server *http.Server, logger zerolog.Logger) error {
	logger.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

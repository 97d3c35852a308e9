package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/csiportal/apps/api/echo"
	"github.com/trezcool/csiportal/core"
	"github.com/trezcool/csiportal/core/event"
	"github.com/trezcool/csiportal/core/identity"
	"github.com/trezcool/csiportal/core/notification"
	"github.com/trezcool/csiportal/core/registration"
	"github.com/trezcool/csiportal/core/session"
	emailsvc "github.com/trezcool/csiportal/services/email"
	logsvc "github.com/trezcool/csiportal/services/logger"
	"github.com/trezcool/csiportal/storage"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up logger
	logger, err := newLogger(conf)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}

	// set up storage
	store, closeStore, err := storage.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer func() {
		if err = closeStore(); err != nil {
			logger.Error("failed to close storage", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridAPIKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	notifications := notification.NewCenter()
	registrations := registration.NewRegistry()

	sessions := session.NewManager(
		store,
		session.Options{
			Authenticator: identity.MockAuthenticator{Latency: conf.AuthLatency},
			Logger:        logger,
			OnSignup: func(id identity.Identity) {
				mailSvc.SendMessages(identity.NewWelcomeMessage(id))
			},
		},
		session.ManagerOptions{
			IdleTimeout: conf.Sessions.IdleTimeout,
			MaxLive:     conf.Sessions.MaxLive,
			OnRelease: func(handles ...string) {
				notifications.Release(handles...)
				registrations.Release(handles...)
			},
		},
	)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sessions.Run(sweepCtx)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	identity.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(conf.Storage.Engine)
	expvar.Publish("sessions", expvar.Func(func() interface{} { return sessions.Len() }))
	expvar.Publish("inboxes", expvar.Func(func() interface{} { return notifications.Len() }))
	expvar.Publish("registrationBooks", expvar.Func(func() interface{} { return registrations.Len() }))

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Sessions:      sessions,
			Catalog:       event.NewCatalog(),
			Notifications: notifications,
			Registrations: registrations,
			Validate:      validate,
			Translator:    translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// newLogger reports to Rollbar outside of DEV|TEST, and logs through zap otherwise.
func newLogger(conf *core.Config) (core.Logger, error) {
	if conf.Debug || conf.TestMode || conf.RollbarToken == "" {
		return logsvc.NewZapLogger(conf)
	}
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(true)
	return logger, nil
}

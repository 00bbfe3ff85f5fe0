package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jacksonlee411/contact-directory/internal/server"
	"github.com/jacksonlee411/contact-directory/pkg/configuration"
	"github.com/jacksonlee411/contact-directory/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := configuration.Load(configuration.DefaultEnvFiles)
	if err != nil {
		logrus.WithError(err).Fatal("load configuration")
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := server.OpenStores(ctx, cfg)
	if err != nil {
		logger.WithError(err).WithField("store", cfg.StoreDriver).Fatal("open store")
	}
	defer stores.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	h, err := server.NewHandlerWithOptions(server.HandlerOptions{
		Config:   cfg,
		Records:  stores.Records,
		Contacts: stores.Contacts,
		Logger:   logger,
		Registry: registry,
	})
	if err != nil {
		logger.WithError(err).Fatal("build handler")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{"addr": cfg.HTTPAddr, "store": cfg.StoreDriver}).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("server stopped")
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("shutdown")
		}
		logger.Info("stopped")
	}
}

// Command facilityd serves the warehouse facility over HTTP and relays committed
// effects to the configured journal.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/provenance-io/warehouse-facility/internal/core"
	"github.com/provenance-io/warehouse-facility/internal/effects"
	"github.com/provenance-io/warehouse-facility/internal/httpapi"
	"github.com/provenance-io/warehouse-facility/internal/platform/config"
	"github.com/provenance-io/warehouse-facility/internal/platform/logging"
	"github.com/provenance-io/warehouse-facility/pkg/domain"
)

var exitFunc = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		exitFunc(2)
		return
	}
	if err := run(ctx, cfg, nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		exitFunc(1)
	}
}

// run wires the process and blocks until ctx is cancelled. ready, if non-nil,
// receives the bound listen address once the server accepts connections.
func run(ctx context.Context, cfg config.Config, ready chan<- string) error {
	logger, err := logging.New(cfg.Logging())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := core.OpenPersistentStore(cfg.Storage(), nil)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if closer, ok := store.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	registry := prometheus.NewRegistry()
	metrics, err := core.NewPrometheusMetricsRecorder(registry)
	if err != nil {
		return err
	}
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	svc := core.NewService(store,
		core.WithLogger(logger),
		core.WithMetricsRecorder(metrics),
		core.WithTracer(core.NewOTelTracer(tp)),
		core.WithAuditRecorder(logging.NewAuditRecorder(logger)),
		core.WithContractAddress(cfg.ContractAddress),
	)

	if cfg.InstantiateFile != "" {
		if err := seed(ctx, svc, cfg.InstantiateFile, logger); err != nil {
			return err
		}
	}

	journal, err := cfg.OpenJournal(ctx)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	relay, err := effects.NewRelay(svc,
		effects.MultiSink{effects.NewJournalSink(journal), effects.NewLogSink(logger)},
		effects.WithRelayLogger(logger),
	)
	if err != nil {
		return err
	}

	api := httpapi.New(svc,
		httpapi.WithLogger(logger),
		httpapi.WithMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
	)
	srv := &http.Server{Handler: api.Handler(), ReadHeaderTimeout: 5 * time.Second}
	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.HTTPAddr, err)
	}

	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		_ = relay.Run(ctx, cfg.RelayInterval)
	}()
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	logger.Info("facilityd started",
		"addr", ln.Addr().String(),
		"storage", cfg.StorageDriver,
		"journal", string(journal.Driver()),
		"contract_address", cfg.ContractAddress,
	)
	if ready != nil {
		ready <- ln.Addr().String()
	}

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err.Error())
	}
	<-relayDone
	// flush anything committed while shutting down
	if _, err := relay.DispatchOnce(shutdownCtx); err != nil {
		logger.Warn("final effect dispatch failed", "error", err.Error())
	}
	logger.Info("facilityd stopped")
	return nil
}

// seed instantiates a fresh store from a YAML document. An already
// instantiated store is left untouched.
func seed(ctx context.Context, svc *core.Service, path string, logger *logging.Logger) error {
	doc, err := config.LoadSeed(path)
	if err != nil {
		return err
	}
	if _, err := svc.GetContractInfo(ctx); err == nil {
		logger.Info("seed skipped, facility already instantiated", "path", path)
		return nil
	} else if !errors.Is(err, domain.ErrNotInstantiated) {
		return err
	}
	resp, err := svc.Instantiate(ctx, doc.Sender, doc.InstantiateMsg)
	if err != nil {
		return fmt.Errorf("seed instantiate: %w", err)
	}
	logger.Info("facility instantiated from seed", "path", path, "effects", len(resp.Effects))
	return nil
}

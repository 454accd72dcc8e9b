// Package app wires the gateway's components together. All shared state
// lives in an explicit Application value constructed once at startup and
// passed by reference; there are no process-wide singletons, so tests can
// run isolated instances side by side.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evalstate/hf-mcp-server-sub001/internal/config"
	"github.com/evalstate/hf-mcp-server-sub001/internal/gradio"
	"github.com/evalstate/hf-mcp-server-sub001/internal/metrics"
	"github.com/evalstate/hf-mcp-server-sub001/internal/policy"
	"github.com/evalstate/hf-mcp-server-sub001/internal/server"
	"github.com/evalstate/hf-mcp-server-sub001/internal/settings"
	"github.com/evalstate/hf-mcp-server-sub001/internal/transport"
	"github.com/evalstate/hf-mcp-server-sub001/pkg/logging"
)

const shutdownGrace = 10 * time.Second

// Application holds the wired component graph for one gateway instance.
type Application struct {
	Config    *config.Config
	Metrics   *metrics.Registry
	Strategy  *policy.Strategy
	Provider  settings.Provider
	Factory   *server.Factory
	Transport transport.Transport

	closeProvider func()
}

// New bootstraps an application from configuration: logging is assumed to
// be initialized by the CLI layer already.
func New(cfg *config.Config) (*Application, error) {
	reg := metrics.NewRegistry(string(cfg.Server.Transport))
	strategy := policy.NewStrategy(cfg.Policy)

	provider, closeProvider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	factory := server.NewFactory(cfg, strategy, provider,
		gradio.NewConnector(cfg.Gradio), reg)

	tr, err := transport.New(cfg, factory, reg)
	if err != nil {
		if closeProvider != nil {
			closeProvider()
		}
		return nil, err
	}

	return &Application{
		Config:        cfg,
		Metrics:       reg,
		Strategy:      strategy,
		Provider:      provider,
		Factory:       factory,
		Transport:     tr,
		closeProvider: closeProvider,
	}, nil
}

// buildProvider picks the settings source: a local file when configured,
// otherwise the Hub settings API. Both degrade to nil settings at request
// time; only a missing settings file is a construction error.
func buildProvider(cfg *config.Config) (settings.Provider, func(), error) {
	if cfg.Settings.FilePath != "" {
		fp, err := settings.NewFileProvider(cfg.Settings.FilePath)
		if err != nil {
			return nil, nil, fmt.Errorf("settings file: %w", err)
		}
		return fp, func() { fp.Close() }, nil
	}
	if cfg.Settings.ProviderURL != "" {
		return settings.NewHTTPProvider(cfg.Settings.ProviderURL, cfg.Settings.Timeout()), nil, nil
	}
	return nil, nil, nil
}

// Run starts the transport and blocks until the context is cancelled or a
// termination signal arrives, then shuts down cooperatively: stop
// accepting first, tear down second.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Transport.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to start %s transport: %w", a.Config.Server.Transport, err)
	}
	logging.Info("App", "Gateway running (transport: %s)", a.Config.Server.Transport)

	<-ctx.Done()
	logging.Info("App", "Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := a.Transport.Shutdown(shutdownCtx); err != nil {
		logging.Warn("App", "Transport shutdown: %v", err)
	}
	return a.Close()
}

// Close releases everything the application owns. Idempotent.
func (a *Application) Close() error {
	err := a.Transport.Cleanup()
	if a.closeProvider != nil {
		a.closeProvider()
		a.closeProvider = nil
	}
	return err
}

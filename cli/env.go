package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	otelapi "go.opentelemetry.io/otel"

	"github.com/zephyrtronium/stepcalc"
	"github.com/zephyrtronium/stepcalc/config"
	"github.com/zephyrtronium/stepcalc/history"
	"github.com/zephyrtronium/stepcalc/session"
	"github.com/zephyrtronium/stepcalc/telemetry"
)

// env holds what a command needs to evaluate expressions.
type env struct {
	cfg    config.Config
	log    *slog.Logger
	tel    *telemetry.Providers
	store  history.Store
	pruner *history.Pruner
}

// loadEnv loads configuration and opens telemetry and, unless noHistory is
// set, the history store.
func loadEnv(cmd *cobra.Command, noHistory bool) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, exitError(exitConfig, "loading config: %v", err)
	}
	e := &env{
		cfg:   cfg,
		log:   cfg.Logger(cmd.ErrOrStderr(), verbose),
		store: history.Discard,
	}

	e.tel, err = telemetry.Setup(cmd.Context(), telemetry.Config{
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		return nil, exitError(exitConfig, "setting up telemetry: %v", err)
	}
	otelapi.SetTracerProvider(e.tel.TracerProvider)
	otelapi.SetMeterProvider(e.tel.MeterProvider)

	if noHistory {
		return e, nil
	}
	e.store, err = history.Open(cfg.History.Driver, cfg.History.Path)
	if err != nil {
		e.close()
		return nil, exitError(exitHistory, "opening history: %v", err)
	}
	if ret := time.Duration(cfg.History.Retention); ret > 0 && e.store != history.Discard {
		e.pruner, err = history.StartPruner(e.store, cfg.History.PruneSchedule, ret, e.log)
		if err != nil {
			e.close()
			return nil, exitError(exitConfig, "%v", err)
		}
		if n, err := e.pruner.Prune(cmd.Context()); err != nil {
			e.log.Warn("pruning history failed", slog.Any("err", err))
		} else if n > 0 {
			e.log.Info("pruned history", slog.Int("deleted", n))
		}
	}
	return e, nil
}

// session creates a session over the environment's store and telemetry.
func (e *env) session() (*session.Session, error) {
	inst, err := telemetry.NewInstruments(otelapi.GetMeterProvider().Meter(telemetry.ScopeName))
	if err != nil {
		return nil, exitError(exitConfig, "creating instruments: %v", err)
	}
	ev := stepcalc.New(stepcalc.MaxDepth(e.cfg.MaxDepth), stepcalc.WithLogger(e.log))
	return session.New(
		session.WithEvaluator(ev),
		session.WithSink(e.store),
		session.WithUserID(e.cfg.UserID),
		session.WithTracer(otelapi.GetTracerProvider().Tracer(telemetry.ScopeName)),
		session.WithInstruments(inst),
		session.WithLogger(e.log),
	), nil
}

func (e *env) close() {
	if e.pruner != nil {
		e.pruner.Stop()
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.log.Warn("closing history failed", slog.Any("err", err))
		}
	}
	if e.tel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.tel.Shutdown(ctx); err != nil {
			e.log.Warn("telemetry shutdown failed", slog.Any("err", err))
		}
	}
}

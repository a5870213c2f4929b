package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mobility-advisor/internal/collect"
	"github.com/sells-group/mobility-advisor/internal/extract"
	"github.com/sells-group/mobility-advisor/internal/model"
	"github.com/sells-group/mobility-advisor/internal/router"
	"github.com/sells-group/mobility-advisor/internal/schema"
	"github.com/sells-group/mobility-advisor/internal/session"
	"github.com/sells-group/mobility-advisor/internal/store"
	"github.com/sells-group/mobility-advisor/pkg/oracle"
	"github.com/sells-group/mobility-advisor/pkg/predict"
)

// advisorEnv holds the initialized store, clients, and orchestrator used by
// the chat and serve commands.
type advisorEnv struct {
	Store        store.SessionStore
	Registry     *schema.Registry
	Orchestrator *session.Orchestrator
	Monitor      *predict.Monitor
}

// Close releases resources held by the environment.
func (e *advisorEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv sets up the store, API clients, schema registry, and the session
// orchestrator. Callers should defer env.Close().
func initEnv(ctx context.Context) (*advisorEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	registry, err := initRegistry()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	oracleClient := oracle.NewClient(cfg.Anthropic.Key,
		oracle.WithModel(cfg.Anthropic.Model),
		oracle.WithMaxTokens(int64(cfg.Anthropic.MaxTokens)),
	)

	predictor := predict.NewClient(
		predict.WithBaseURL(cfg.Predict.BaseURL),
		predict.WithRateLimit(cfg.Predict.RatePerSecond, cfg.Predict.RateBurst),
		predict.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Predict.TimeoutSeconds) * time.Second,
		}),
	)

	mode := model.ModeConversational
	if cfg.Session.Mode == "sequential" {
		mode = model.ModeSequential
	}

	orch := session.New(session.Deps{
		Registry:  registry,
		Router:    router.New(oracleClient, router.WithModel(cfg.Anthropic.RouteModel)),
		Extractor: extract.New(oracleClient),
		FollowUp:  collect.NewFollowUpGenerator(oracleClient),
		Sequential: collect.NewSequential(registry,
			collect.WithReviewer(collect.NewReviewer(oracleClient))),
		Predictor: predictor,
		Oracle:    oracleClient,
		Store:     st,
	}, session.WithMode(mode))

	return &advisorEnv{
		Store:        st,
		Registry:     registry,
		Orchestrator: orch,
		Monitor:      predict.NewMonitor(map[string]predict.Prober{"predict": predictor}),
	}, nil
}

// initStore picks the persistence backend from config.
func initStore(ctx context.Context) (store.SessionStore, error) {
	switch cfg.Store.Driver {
	case "memory":
		return store.NewMemory(), nil
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initRegistry loads the field schema, preferring a configured override file.
func initRegistry() (*schema.Registry, error) {
	if cfg.Schema.Path != "" {
		reg, err := schema.Load(cfg.Schema.Path)
		if err != nil {
			return nil, eris.Wrapf(err, "load schema %s", cfg.Schema.Path)
		}
		zap.L().Info("schema loaded", zap.String("path", cfg.Schema.Path))
		return reg, nil
	}
	return schema.Default(), nil
}

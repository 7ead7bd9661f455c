package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/trip-export/internal/config"
	"github.com/sells-group/trip-export/internal/export"
	"github.com/sells-group/trip-export/internal/monitoring"
	"github.com/sells-group/trip-export/internal/publish"
	"github.com/sells-group/trip-export/internal/resilience"
	"github.com/sells-group/trip-export/internal/service"
	"github.com/sells-group/trip-export/internal/sheet"
	"github.com/sells-group/trip-export/internal/store"
	"github.com/sells-group/trip-export/pkg/google"
	"github.com/sells-group/trip-export/pkg/notion"
)

// exportEnv holds the initialized source, publisher, archive and exporter
// used by the serve and export commands.
type exportEnv struct {
	Source   sheet.Source
	Exporter *service.Exporter
	Store    store.Store // nil when store.driver is none
	Registry *prometheus.Registry
}

// Close releases resources held by the environment.
func (e *exportEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv validates cfg and wires every component. Callers should defer
// env.Close().
func initEnv(ctx context.Context, cfg *config.Config) (*exportEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var gc google.Client
	if cfg.Source.Driver == "google" || cfg.Output.Driver == "gdoc" {
		c, err := initGoogle(cfg.Google)
		if err != nil {
			return nil, err
		}
		gc = c
	}

	policy := retryPolicy(cfg.Retry)
	src, err := initSource(cfg.Source, gc)
	if err != nil {
		return nil, err
	}
	src = resilience.Source(src, policy)

	pub, err := initPublisher(cfg, gc)
	if err != nil {
		return nil, err
	}
	if cfg.Output.Mode != string(publish.ModeCreate) {
		pub = resilience.Publisher(pub, policy)
	}

	st, err := initStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []service.Option{service.WithMetrics(monitoring.NewMetrics(reg))}
	if st != nil {
		opts = append(opts, service.WithArchive(st))
	}

	zap.L().Info("export environment ready",
		zap.String("source", cfg.Source.Driver),
		zap.String("output", cfg.Output.Driver),
		zap.String("mode", cfg.Output.Mode),
		zap.String("store", cfg.Store.Driver),
	)

	return &exportEnv{
		Source:   src,
		Exporter: service.NewExporter(export.NewBuilder(sheet.NewLoader(src), sourceLabel(cfg.Source)), pub, opts...),
		Store:    st,
		Registry: reg,
	}, nil
}

// sourceLabel names the source in each export's meta block.
func sourceLabel(scfg config.SourceConfig) export.Option {
	if scfg.Driver == "google" {
		return export.WithSource(export.DefaultSource)
	}
	return export.WithSource(scfg.Driver)
}

func retryPolicy(rcfg config.RetryConfig) resilience.Policy {
	return resilience.FromConfig(rcfg.MaxAttempts, rcfg.InitialBackoffMs, rcfg.MaxBackoffMs)
}

func initGoogle(gcfg config.GoogleConfig) (google.Client, error) {
	data, err := gcfg.ServiceAccount()
	if err != nil {
		return nil, err
	}
	sa, err := google.ParseServiceAccount(data)
	if err != nil {
		return nil, eris.Wrap(err, "parse google service account")
	}
	tokens, err := google.NewServiceAccountTokenSource(sa, nil, google.Scopes...)
	if err != nil {
		return nil, eris.Wrap(err, "google token source")
	}

	opts := []google.Option{google.WithRateLimit(gcfg.RateLimit)}
	if gcfg.SheetsBaseURL != "" {
		opts = append(opts, google.WithSheetsBaseURL(gcfg.SheetsBaseURL))
	}
	if gcfg.DocsBaseURL != "" {
		opts = append(opts, google.WithDocsBaseURL(gcfg.DocsBaseURL))
	}
	return google.NewClient(tokens, opts...), nil
}

func initSource(scfg config.SourceConfig, gc google.Client) (sheet.Source, error) {
	switch scfg.Driver {
	case "google":
		if gc == nil {
			return nil, eris.New("google source requires a google client")
		}
		return sheet.NewGoogleSource(gc, scfg.SpreadsheetID), nil
	case "xlsx":
		return sheet.NewXLSXSource(scfg.Path), nil
	case "csv":
		return sheet.NewCSVSource(scfg.Path), nil
	default:
		return nil, eris.Errorf("unsupported source driver: %s", scfg.Driver)
	}
}

func initPublisher(cfg *config.Config, gc google.Client) (publish.Publisher, error) {
	mode, err := publish.ParseMode(cfg.Output.Mode)
	if err != nil {
		return nil, err
	}
	switch cfg.Output.Driver {
	case "gdoc":
		if gc == nil {
			return nil, eris.New("gdoc output requires a google client")
		}
		return publish.NewDocsPublisher(gc, cfg.Output.DocumentID, mode), nil
	case "notion":
		nc := notion.NewClient(cfg.Notion.Token, notion.WithRateLimit(cfg.Notion.RateLimit))
		return publish.NewNotionPublisher(nc, cfg.Output.DocumentID, mode), nil
	case "file":
		return publish.NewFilePublisher(cfg.Output.Dir), nil
	default:
		return nil, eris.Errorf("unsupported output driver: %s", cfg.Output.Driver)
	}
}

// initStore opens and migrates the archive. It returns nil for driver none.
func initStore(ctx context.Context, scfg config.StoreConfig) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch scfg.Driver {
	case "", "none":
		return nil, nil
	case "sqlite":
		st, err = store.NewSQLite(scfg.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, scfg.DatabaseURL, &store.PoolConfig{
			MaxConns: scfg.MaxConns,
			MinConns: scfg.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", scfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

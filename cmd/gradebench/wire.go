package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chainguard-dev/clog"

	"github.com/bryanwahyu/gradebench/internal/application/pipeline"
	appverdicts "github.com/bryanwahyu/gradebench/internal/application/verdicts"
	"github.com/bryanwahyu/gradebench/internal/config"
	"github.com/bryanwahyu/gradebench/internal/domain/chat"
	"github.com/bryanwahyu/gradebench/internal/infra/ai/anthropic"
	"github.com/bryanwahyu/gradebench/internal/infra/ai/gemini"
	"github.com/bryanwahyu/gradebench/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/gradebench/internal/infra/db/mysql"
	"github.com/bryanwahyu/gradebench/internal/infra/db/postgres"
	"github.com/bryanwahyu/gradebench/internal/infra/ratelimit"
	minioStore "github.com/bryanwahyu/gradebench/internal/infra/storage"
)

// verdictDeps is the verdict service plus the handles serve needs for health checks.
type verdictDeps struct {
	svc *appverdicts.Service
	db  *sql.DB
}

func (d *verdictDeps) Close() {
	if d.db != nil {
		_ = d.db.Close()
	}
}

// newVerdictService builds the collector/grouper with the optional database
// mirror and MinIO publisher.
func newVerdictService(ctx context.Context, cfg *config.Config) (*verdictDeps, error) {
	svc, err := appverdicts.NewService(cfg.Analysis.Subjects, cfg.Analysis.Dedup)
	if err != nil {
		return nil, err
	}
	deps := &verdictDeps{svc: svc}

	switch cfg.Database.Driver {
	case "":
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.DatabaseDSN())
		if err != nil {
			return nil, fmt.Errorf("mysql connect: %w", err)
		}
		deps.db = db
		repo := mysqlp.NewVerdictRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			deps.Close()
			return nil, fmt.Errorf("mysql schema: %w", err)
		}
		svc.Repo = repo
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.DatabaseDSN())
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		deps.db = db
		repo := postgres.NewVerdictRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			deps.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		svc.Repo = repo
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx, minioStore.Options{
			Endpoint:  cfg.Minio.Endpoint,
			Region:    cfg.Minio.Region,
			Bucket:    cfg.Minio.BucketName,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("minio init: %w", err)
		}
		svc.Artifacts = store
	}
	return deps, nil
}

// newProviders registers every provider that has an API key.
func newProviders(ctx context.Context, cfg *config.Config) (chat.Registry, error) {
	reg := chat.Registry{}
	if k := cfg.Providers.OpenAI.APIKey; k != "" {
		p := openai.NewClient(k, cfg.Providers.OpenAI.BaseURL)
		reg[p.Name()] = p
	}
	if k := cfg.Providers.Anthropic.APIKey; k != "" {
		p := anthropic.NewClient(k)
		reg[p.Name()] = p
	}
	if k := cfg.Providers.Gemini.APIKey; k != "" {
		p, err := gemini.NewClient(ctx, k, "")
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		reg[p.Name()] = p
	}
	clog.FromContext(ctx).With("providers", reg.Names()).Debug("providers registered")
	return reg, nil
}

func newRunner(ctx context.Context, cfg *config.Config) (*pipeline.Runner, error) {
	reg, err := newProviders(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if len(reg) == 0 {
		return nil, fmt.Errorf("no provider configured, set OPENAI_API_KEY, ANTHROPIC_API_KEY or GEMINI_API_KEY")
	}
	return &pipeline.Runner{
		Providers:       reg,
		GradingProvider: cfg.Pipeline.GradingProvider,
		GradingModel:    cfg.Pipeline.GradingModel,
		ResponsesDir:    cfg.Pipeline.ResponsesDir,
		ChatsDir:        cfg.Pipeline.ChatsDir,
		Pacer:           ratelimit.NewBucket(1, cfg.Pipeline.Pace),
	}, nil
}

// defaultModel is the model a provider adapter falls back to, so file names
// always carry a model.
func defaultModel(provider string) string {
	switch provider {
	case "openai":
		return openai.DefaultModel
	case "anthropic":
		return anthropic.DefaultModel
	case "gemini":
		return gemini.DefaultModel
	}
	return ""
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"framework-search/internal/analytics"
	"framework-search/internal/api"
	"framework-search/internal/common/camunda"
	"framework-search/internal/common/config"
	"framework-search/internal/common/observability"
	"framework-search/internal/forms"
	"framework-search/internal/search"
	"framework-search/internal/store"
	searchframeworks "framework-search/internal/workers/search-frameworks"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the analytics processor and the Zeebe worker",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	zapLog, log := newLogger(cfg)
	defer zapLog.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		return err
	}
	defer obs.Shutdown(context.Background())

	pg, err := connectPostgres(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer pg.Close()

	es, err := connectElasticsearch(ctx, cfg, log)
	if err != nil {
		return err
	}

	rdb, err := connectRedis(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rdb.Close()

	st := store.New(pg.DB)

	queue := asynq.NewClient(analytics.RedisClientOpt(cfg.Database.Redis))
	defer queue.Close()
	recorder := analytics.NewRecorder(queue, cfg.Analytics, log)
	defer recorder.Wait()

	images := search.Images{
		BackendDomain:    cfg.Search.BackendDomain,
		MediaURL:         cfg.Search.MediaURL,
		DefaultImagePath: cfg.Search.DefaultImagePath,
	}
	dispatcher := search.NewDispatcher(search.Options{
		Store:           st,
		Executor:        search.NewElasticsearchExecutor(es.Client, cfg.Search.FrameworkIndex, config.GetDuration(cfg.Search.Timeout), log),
		Recorder:        recorder,
		Observability:   obs,
		Logger:          log,
		Images:          images,
		ResultsPerPage:  cfg.Search.ResultsPerPage,
		SuggestionsSize: cfg.Search.SuggestionsSize,
	})
	formData := forms.NewService(st, rdb.Client, config.GetDuration(cfg.Cache.FormDataTTL), log)

	handler := api.NewHandler(dispatcher, st, formData, recorder, images, log)
	router := api.NewRouter(api.RouterConfig{
		Auth:        cfg.Auth,
		RateLimit:   cfg.RateLimit,
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
		Checks: map[string]api.Pinger{
			"postgres":      pg,
			"elasticsearch": es,
			"redis":         rdb,
		},
	}, handler, log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return api.NewServer(cfg.Server, router, log).Run(gctx)
	})

	g.Go(func() error {
		processor := analytics.NewProcessor(st, log)
		return analytics.NewServer(cfg.Database.Redis, cfg.Analytics, processor, log).Run(gctx)
	})

	if cfg.Camunda.Enabled && config.IsWorkerEnabled(cfg, searchframeworks.TaskType) {
		zeebe, err := camunda.NewClient(cfg.Camunda)
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		defer zeebe.Close()

		workerCfg := config.GetWorkerConfig(cfg, searchframeworks.TaskType)
		jobHandler := searchframeworks.NewHandler(searchframeworks.LoadConfig(cfg), dispatcher, log)
		worker := camunda.NewWorker(zeebe.Raw(), searchframeworks.TaskType, workerCfg.MaxJobsActive, jobHandler, log)
		g.Go(func() error {
			return worker.Run(gctx)
		})
	}

	log.Info("framework-search started", map[string]interface{}{
		"addr":    cfg.Server.Address(),
		"camunda": cfg.Camunda.Enabled,
	})
	return g.Wait()
}

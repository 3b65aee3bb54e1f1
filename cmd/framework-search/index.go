package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"framework-search/internal/common/config"
	"framework-search/internal/forms"
	"framework-search/internal/indexer"
	"framework-search/internal/store"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the framework search index",
}

var indexCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the framework index with its mapping",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withIndexer(cmd, false, func(idx *indexer.Indexer) error {
			return idx.Create(cmd.Context())
		})
	},
}

var indexDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the framework index",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withIndexer(cmd, false, func(idx *indexer.Indexer) error {
			return idx.Delete(cmd.Context())
		})
	},
}

var indexSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Index every framework from PostgreSQL",
	Long: `sync pages through the frameworks table and bulk-indexes each row by id.
With --recreate the index is dropped and created first, which also removes
documents whose rows no longer exist.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		recreate, _ := cmd.Flags().GetBool("recreate")
		return withIndexer(cmd, true, func(idx *indexer.Indexer) error {
			ctx := cmd.Context()
			if recreate {
				if err := idx.Recreate(ctx); err != nil {
					return err
				}
			} else if err := idx.Create(ctx); err != nil {
				return err
			}

			stats, err := idx.Sync(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "read %d, indexed %d, failed %d in %s\n",
				stats.Read, stats.Indexed, stats.Failed, stats.Duration)
			return err
		})
	},
}

func init() {
	indexSyncCmd.Flags().Bool("recreate", false, "drop and create the index before syncing")
	indexSyncCmd.Flags().Int("batch-size", 500, "rows read from PostgreSQL per page")
	indexSyncCmd.Flags().Int("workers", 2, "bulk indexer workers")

	indexCmd.AddCommand(indexCreateCmd, indexDeleteCmd, indexSyncCmd)
	rootCmd.AddCommand(indexCmd)
}

// withIndexer connects Elasticsearch, plus PostgreSQL and Redis when sync is
// true, and runs fn.
func withIndexer(cmd *cobra.Command, sync bool, fn func(*indexer.Indexer) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	zapLog, log := newLogger(cfg)
	defer zapLog.Sync()

	ctx := cmd.Context()
	es, err := connectElasticsearch(ctx, cfg, log)
	if err != nil {
		return err
	}

	opts := indexer.Options{
		Client: es.Client,
		Index:  cfg.Search.FrameworkIndex,
		Logger: log,
	}
	opts.BatchSize, _ = cmd.Flags().GetInt("batch-size")
	opts.Workers, _ = cmd.Flags().GetInt("workers")

	if sync {
		pg, err := connectPostgres(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer pg.Close()

		rdb, err := connectRedis(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer rdb.Close()

		st := store.New(pg.DB)
		opts.Source = st
		opts.Invalidator = forms.NewService(st, rdb.Client, config.GetDuration(cfg.Cache.FormDataTTL), log)
	}

	return fn(indexer.New(opts))
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dan1650/plates-bot/internal/bootstrap"
	"github.com/dan1650/plates-bot/internal/storage"
)

func newFetchDBCmd() *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "fetch-db",
		Short: "Download the registry database if it is missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Database.Driver != "sqlite" {
				return fmt.Errorf("fetch-db only applies to the sqlite driver")
			}
			if url == "" {
				url = cfg.Bootstrap.URL
			}

			ctx := cmd.Context()
			downloaded, err := bootstrap.EnsureFile(ctx, cfg.Database.SQLite.Path, bootstrap.Options{
				URL:     url,
				Timeout: cfg.Bootstrap.Timeout,
			}, logger)
			if err != nil {
				return err
			}

			rows, err := countRows(ctx)
			if err != nil {
				return err
			}
			logger.Info().
				Bool("downloaded", downloaded).
				Int64("rows", rows).
				Str("path", cfg.Database.SQLite.Path).
				Msg("Registry database ready")
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "download URL (default: bootstrap.url / DB_URL)")
	return cmd
}

func countRows(ctx context.Context) (int64, error) {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	return storage.NewRegistryRepository(db, cfg.StorageRegistry()).Count(ctx)
}

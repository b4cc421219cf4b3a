// Command coupon-import loads coupons from gzip-compressed CSV files with
// "CODE,percent" rows.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-faster/errors"

	"github.com/xenking/orderdesk/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		pattern     string
		workers     int
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&pattern, "files", "data/coupons*.csv.gz", "glob of gzip-compressed CSV files")
	flag.IntVar(&workers, "workers", 4, "files processed concurrently")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, pattern, workers); err != nil {
		slog.Error("coupon import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon import completed successfully")
}

func run(ctx context.Context, databaseURL, pattern string, workers int) error {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return errors.Wrapf(err, "glob %s", pattern)
	}
	if len(files) == 0 {
		return errors.Errorf("no files match %s", pattern)
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	imp := newImporter(postgres.NewCouponRepository(pool), workers)
	if err := imp.preload(ctx); err != nil {
		return errors.Wrap(err, "load existing coupons")
	}

	stats, err := imp.importFiles(ctx, files)
	if err != nil {
		return err
	}

	slog.Info("import summary",
		slog.Int("files", len(files)),
		slog.Int64("inserted", stats.inserted.Load()),
		slog.Int64("duplicates", stats.duplicates.Load()),
		slog.Int64("invalid", stats.invalid.Load()),
	)
	return nil
}

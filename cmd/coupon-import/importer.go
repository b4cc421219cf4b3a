package main

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/orderdesk/internal/domain/coupon"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	progressEvery = 10_000
)

type stats struct {
	inserted   atomic.Int64
	duplicates atomic.Int64
	invalid    atomic.Int64
}

// seenCodes is a bloom filter over every code known to exist. A negative
// answer is definite; a positive one is confirmed against the store.
type seenCodes struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
}

// testAndAdd reports whether code may have been seen and records it.
func (s *seenCodes) testAndAdd(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter.TestAndAddString(code)
}

type importer struct {
	repo    coupon.Repository
	workers int
	seen    *seenCodes
	stats   stats
}

func newImporter(repo coupon.Repository, workers int) *importer {
	if workers < 1 {
		workers = 1
	}
	return &importer{
		repo:    repo,
		workers: workers,
		seen:    &seenCodes{filter: bloom.NewWithEstimates(bloomCapacity, bloomFPR)},
	}
}

// preload adds the codes already in the store to the filter.
func (imp *importer) preload(ctx context.Context) error {
	existing, err := imp.repo.List(ctx)
	if err != nil {
		return err
	}
	for _, c := range existing {
		imp.seen.testAndAdd(c.Code)
	}
	slog.Info("existing coupons loaded", slog.Int("count", len(existing)))
	return nil
}

func (imp *importer) importFiles(ctx context.Context, files []string) (*stats, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(imp.workers)
	for _, path := range files {
		g.Go(func() error {
			f, err := os.Open(path)
			if err != nil {
				return errors.Wrapf(err, "open %s", path)
			}
			defer func() { _ = f.Close() }()

			gz, err := pgzip.NewReader(f)
			if err != nil {
				return errors.Wrapf(err, "create gzip reader for %s", path)
			}
			defer func() { _ = gz.Close() }()

			if err := imp.importReader(ctx, path, gz); err != nil {
				return errors.Wrapf(err, "import %s", path)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &imp.stats, nil
}

// importReader inserts every valid row of a CSV stream. A leading header row
// is skipped. Malformed rows are counted and logged, not fatal.
func (imp *importer) importReader(ctx context.Context, name string, r io.Reader) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var line int
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				imp.stats.invalid.Add(1)
				slog.Debug("malformed row", slog.String("file", name), slog.Int("line", line), slog.String("error", err.Error()))
				continue
			}
			return errors.Wrap(err, "read csv")
		}
		if line == 1 && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "code") {
			continue
		}

		c, err := parseRow(rec)
		if err != nil {
			imp.stats.invalid.Add(1)
			slog.Debug("invalid row", slog.String("file", name), slog.Int("line", line), slog.String("error", err.Error()))
			continue
		}
		if err := imp.insert(ctx, c); err != nil {
			return err
		}

		if line%progressEvery == 0 {
			slog.Info("import progress", slog.String("file", name), slog.Int("rows", line))
		}
	}

	slog.Info("file complete", slog.String("file", name), slog.Int("rows", line))
	return nil
}

func (imp *importer) insert(ctx context.Context, c *coupon.Coupon) error {
	if imp.seen.testAndAdd(c.Code) {
		_, err := imp.repo.FindByCode(ctx, c.Code)
		switch {
		case err == nil:
			imp.stats.duplicates.Add(1)
			return nil
		case !errors.Is(err, coupon.ErrNotFound):
			return errors.Wrapf(err, "find coupon %s", c.Code)
		}
	}

	err := imp.repo.Create(ctx, c)
	switch {
	case errors.Is(err, coupon.ErrDuplicateCode):
		imp.stats.duplicates.Add(1)
	case err != nil:
		return errors.Wrapf(err, "create coupon %s", c.Code)
	default:
		imp.stats.inserted.Add(1)
	}
	return nil
}

// parseRow builds a normalised, validated coupon from a "CODE,percent" row.
func parseRow(rec []string) (*coupon.Coupon, error) {
	if len(rec) != 2 {
		return nil, errors.Errorf("want 2 fields, got %d", len(rec))
	}
	pct, err := decimal.NewFromString(strings.TrimSpace(rec[1]))
	if err != nil {
		return nil, errors.Wrap(err, "parse percent")
	}
	c := &coupon.Coupon{Code: rec[0], DiscountPercent: pct}
	c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/orderdesk/internal/domain/shop"
)

const (
	getOverrideSQL = `SELECT override FROM shop_status WHERE id = 1`

	setOverrideSQL = `INSERT INTO shop_status (id, override, updated_at) VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET override = EXCLUDED.override, updated_at = EXCLUDED.updated_at`

	listHoursSQL = `SELECT weekday, start_minute, end_minute FROM opening_hours
		ORDER BY weekday, start_minute`

	deleteHoursSQL = `DELETE FROM opening_hours`
)

var (
	_ shop.OverrideStore = (*ShopRepository)(nil)
	_ shop.ScheduleStore = (*ShopRepository)(nil)
)

// ShopRepository stores the status override row and the weekly schedule.
type ShopRepository struct {
	pool *pgxpool.Pool
}

// NewShopRepository returns a ShopRepository that uses the given pool.
func NewShopRepository(pool *pgxpool.Pool) *ShopRepository {
	return &ShopRepository{pool: pool}
}

// Override returns the stored override. A missing row means none.
func (r *ShopRepository) Override(ctx context.Context) (shop.Override, error) {
	var v *string
	if err := r.pool.QueryRow(ctx, getOverrideSQL).Scan(&v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shop.OverrideNone, nil
		}
		return shop.OverrideNone, errors.Wrap(err, "select override")
	}
	return shop.ParseOverride(v)
}

// SetOverride upserts the single override row.
func (r *ShopRepository) SetOverride(ctx context.Context, o shop.Override) error {
	if _, err := r.pool.Exec(ctx, setOverrideSQL, o.Ptr()); err != nil {
		return errors.Wrap(err, "upsert override")
	}
	return nil
}

// Schedule returns the weekly schedule.
func (r *ShopRepository) Schedule(ctx context.Context) (shop.Schedule, error) {
	rows, err := r.pool.Query(ctx, listHoursSQL)
	if err != nil {
		return nil, errors.Wrap(err, "select opening hours")
	}

	s := shop.Schedule{}
	var weekday, start, end int16
	_, err = pgx.ForEachRow(rows, []any{&weekday, &start, &end}, func() error {
		day := time.Weekday(weekday)
		s[day] = append(s[day], shop.Interval{Start: int(start), End: int(end)})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan opening hours")
	}
	return s, nil
}

// ReplaceSchedule swaps the whole schedule in one transaction.
func (r *ShopRepository) ReplaceSchedule(ctx context.Context, s shop.Schedule) error {
	var rows [][]any
	for day, ivs := range s {
		for _, iv := range ivs {
			rows = append(rows, []any{int16(day), int16(iv.Start), int16(iv.End)})
		}
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteHoursSQL); err != nil {
			return errors.Wrap(err, "delete opening hours")
		}
		if len(rows) == 0 {
			return nil
		}
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"opening_hours"},
			[]string{"weekday", "start_minute", "end_minute"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return errors.Wrap(err, "copy opening hours")
		}
		return nil
	})
}

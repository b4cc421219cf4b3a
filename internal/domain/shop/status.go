package shop

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrClosed is returned when an order arrives while the shop is closed.
var ErrClosed = errors.New("shop is closed")

// OverrideStore holds the single current override. Writes are last-write-wins.
type OverrideStore interface {
	Override(ctx context.Context) (Override, error)
	SetOverride(ctx context.Context, o Override) error
}

// ScheduleStore holds the weekly schedule.
type ScheduleStore interface {
	Schedule(ctx context.Context) (Schedule, error)
	ReplaceSchedule(ctx context.Context, s Schedule) error
}

// State is a snapshot of the shop status.
type State struct {
	Override Override
	Open     bool
	NextOpen *time.Time
}

// Status combines override and schedule into the opening decision.
type Status struct {
	overrides OverrideStore
	schedules ScheduleStore
	loc       *time.Location
	now       func() time.Time
}

// StatusOption configures a Status.
type StatusOption func(*Status)

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) StatusOption {
	return func(s *Status) { s.now = now }
}

// NewStatus creates a Status evaluating schedules in loc.
func NewStatus(overrides OverrideStore, schedules ScheduleStore, loc *time.Location, opts ...StatusOption) *Status {
	if loc == nil {
		loc = time.Local
	}
	s := &Status{
		overrides: overrides,
		schedules: schedules,
		loc:       loc,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Current returns whether the shop is open now. NextOpen is set only when
// closed and the schedule has an upcoming interval that the override does
// not block.
func (s *Status) Current(ctx context.Context) (State, error) {
	o, err := s.overrides.Override(ctx)
	if err != nil {
		return State{}, errors.Wrap(err, "get override")
	}
	sched, err := s.schedules.Schedule(ctx)
	if err != nil {
		return State{}, errors.Wrap(err, "get schedule")
	}

	now := s.now().In(s.loc)
	st := State{Override: o, Open: IsOpen(now, o, sched, s.loc)}
	if !st.Open && o == OverrideNone {
		if next, ok := sched.NextOpening(now); ok {
			st.NextOpen = &next
		}
	}
	return st, nil
}

// Open reports whether orders are accepted now.
func (s *Status) Open(ctx context.Context) (bool, error) {
	st, err := s.Current(ctx)
	if err != nil {
		return false, err
	}
	return st.Open, nil
}

// SetOverride stores a new override.
func (s *Status) SetOverride(ctx context.Context, o Override) error {
	if err := s.overrides.SetOverride(ctx, o); err != nil {
		return errors.Wrap(err, "set override")
	}
	return nil
}

// Schedule returns the weekly schedule.
func (s *Status) Schedule(ctx context.Context) (Schedule, error) {
	sched, err := s.schedules.Schedule(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get schedule")
	}
	return sched, nil
}

// ReplaceSchedule validates and stores a new weekly schedule.
func (s *Status) ReplaceSchedule(ctx context.Context, sched Schedule) error {
	if err := sched.Validate(); err != nil {
		return err
	}
	sched.Normalize()
	if err := s.schedules.ReplaceSchedule(ctx, sched); err != nil {
		return errors.Wrap(err, "replace schedule")
	}
	return nil
}

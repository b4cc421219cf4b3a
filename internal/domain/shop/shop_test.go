package shop

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/orderdesk/internal/domain/validate"
)

var berlin = time.FixedZone("CEST", 2*60*60)

// lunch is open on Tuesdays 11:30-13:30 and 17:00-22:00.
func lunch() Schedule {
	return Schedule{
		time.Tuesday: {{Start: 11*60 + 30, End: 13*60 + 30}, {Start: 17 * 60, End: 22 * 60}},
		time.Friday:  {{Start: 11 * 60, End: 23 * 60}},
	}
}

// tuesday returns 2025-06-17 (a Tuesday) at hh:mm local time.
func tuesday(hh, mm int) time.Time {
	return time.Date(2025, 6, 17, hh, mm, 0, 0, berlin)
}

func TestIsOpen(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		override Override
		want     bool
	}{
		{name: "inside lunch window", now: tuesday(12, 0), want: true},
		{name: "window start is inclusive", now: tuesday(11, 30), want: true},
		{name: "window end is exclusive", now: tuesday(13, 30), want: false},
		{name: "before opening", now: tuesday(11, 29), want: false},
		{name: "between windows", now: tuesday(15, 0), want: false},
		{name: "day without hours", now: tuesday(12, 0).AddDate(0, 0, 1), want: false},
		{name: "forced open outside hours", now: tuesday(3, 0), override: OverrideOpen, want: true},
		{name: "forced open on closed day", now: tuesday(12, 0).AddDate(0, 0, 2), override: OverrideOpen, want: true},
		{name: "forced closed inside hours", now: tuesday(12, 0), override: OverrideClosed, want: false},
		{name: "evaluated in shop location", now: tuesday(12, 0).UTC(), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOpen(tt.now, tt.override, lunch(), berlin))
		})
	}
}

func TestSchedule_NextOpening(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{name: "later the same day", now: tuesday(9, 0), want: tuesday(11, 30)},
		{name: "second window", now: tuesday(14, 0), want: tuesday(17, 0)},
		{name: "next open day", now: tuesday(22, 30), want: time.Date(2025, 6, 20, 11, 0, 0, 0, berlin)},
		{name: "wraps to next week", now: time.Date(2025, 6, 20, 23, 30, 0, 0, berlin), want: tuesday(11, 30).AddDate(0, 0, 7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := lunch().NextOpening(tt.now)
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got), "expected %s, got %s", tt.want, got)
		})
	}

	_, ok := Schedule{}.NextOpening(tuesday(9, 0))
	assert.False(t, ok)
}

func TestSchedule_Validate(t *testing.T) {
	require.NoError(t, lunch().Validate())

	tests := []struct {
		name  string
		sched Schedule
	}{
		{name: "overlap", sched: Schedule{time.Monday: {{Start: 600, End: 800}, {Start: 700, End: 900}}}},
		{name: "empty interval", sched: Schedule{time.Monday: {{Start: 600, End: 600}}}},
		{name: "past midnight", sched: Schedule{time.Monday: {{Start: 1200, End: 1500}}}},
		{name: "negative start", sched: Schedule{time.Monday: {{Start: -1, End: 60}}}},
		{name: "bad weekday", sched: Schedule{time.Weekday(7): {{Start: 0, End: 60}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := validate.As(tt.sched.Validate())
			assert.True(t, ok)
		})
	}
}

func TestParseOverride(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name    string
		in      *string
		want    Override
		wantErr bool
	}{
		{name: "null", in: nil, want: OverrideNone},
		{name: "open", in: str("open"), want: OverrideOpen},
		{name: "closed", in: str("closed"), want: OverrideClosed},
		{name: "unknown", in: str("maybe"), wantErr: true},
		{name: "empty string", in: str(""), wantErr: true},
		{name: "wrong case", in: str("OPEN"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOverride(tt.in)
			if tt.wantErr {
				_, ok := validate.As(err)
				assert.True(t, ok)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOverride_Ptr(t *testing.T) {
	assert.Nil(t, OverrideNone.Ptr())
	require.NotNil(t, OverrideClosed.Ptr())
	assert.Equal(t, "closed", *OverrideClosed.Ptr())
}

func newTestStatus(now time.Time) (*Status, *MemoryOverride) {
	overrides := &MemoryOverride{}
	s := NewStatus(overrides, NewMemorySchedule(lunch()), berlin, WithClock(func() time.Time { return now }))
	return s, overrides
}

func TestStatus_Current(t *testing.T) {
	ctx := context.Background()

	t.Run("schedule mode inside window", func(t *testing.T) {
		s, _ := newTestStatus(tuesday(12, 15))
		st, err := s.Current(ctx)
		require.NoError(t, err)
		assert.True(t, st.Open)
		assert.Equal(t, OverrideNone, st.Override)
		assert.Nil(t, st.NextOpen)
	})

	t.Run("schedule mode closed reports next opening", func(t *testing.T) {
		s, _ := newTestStatus(tuesday(14, 0))
		st, err := s.Current(ctx)
		require.NoError(t, err)
		assert.False(t, st.Open)
		require.NotNil(t, st.NextOpen)
		assert.True(t, tuesday(17, 0).Equal(*st.NextOpen))
	})

	t.Run("forced closed hides next opening", func(t *testing.T) {
		s, overrides := newTestStatus(tuesday(12, 15))
		require.NoError(t, overrides.SetOverride(ctx, OverrideClosed))
		st, err := s.Current(ctx)
		require.NoError(t, err)
		assert.False(t, st.Open)
		assert.Nil(t, st.NextOpen)
	})

	t.Run("override can be reset to schedule", func(t *testing.T) {
		s, _ := newTestStatus(tuesday(3, 0))
		require.NoError(t, s.SetOverride(ctx, OverrideOpen))
		open, err := s.Open(ctx)
		require.NoError(t, err)
		assert.True(t, open)

		require.NoError(t, s.SetOverride(ctx, OverrideNone))
		open, err = s.Open(ctx)
		require.NoError(t, err)
		assert.False(t, open)
	})
}

type failingOverrides struct{}

func (failingOverrides) Override(context.Context) (Override, error) {
	return OverrideNone, errors.New("connection refused")
}

func (failingOverrides) SetOverride(context.Context, Override) error {
	return errors.New("connection refused")
}

func TestStatus_StoreErrors(t *testing.T) {
	s := NewStatus(failingOverrides{}, NewMemorySchedule(lunch()), berlin)

	_, err := s.Current(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get override")

	err = s.SetOverride(context.Background(), OverrideOpen)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set override")
}

func TestStatus_ReplaceSchedule(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStatus(tuesday(12, 0))

	err := s.ReplaceSchedule(ctx, Schedule{time.Monday: {{Start: 700, End: 600}}})
	_, ok := validate.As(err)
	require.True(t, ok)

	got, err := s.Schedule(ctx)
	require.NoError(t, err)
	assert.Equal(t, lunch(), got, "rejected schedule must not be stored")

	next := Schedule{
		time.Monday:  {{Start: 1000, End: 1200}, {Start: 600, End: 700}},
		time.Tuesday: {},
	}
	require.NoError(t, s.ReplaceSchedule(ctx, next))

	got, err = s.Schedule(ctx)
	require.NoError(t, err)
	assert.Equal(t, Schedule{time.Monday: {{Start: 600, End: 700}, {Start: 1000, End: 1200}}}, got)
}

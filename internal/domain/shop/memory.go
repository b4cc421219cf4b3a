package shop

import (
	"context"
	"slices"
	"sync/atomic"
)

// MemoryOverride keeps the override in process memory. It resets on restart.
type MemoryOverride struct {
	v atomic.Pointer[Override]
}

var _ OverrideStore = (*MemoryOverride)(nil)

// Override returns the current override.
func (m *MemoryOverride) Override(context.Context) (Override, error) {
	if p := m.v.Load(); p != nil {
		return *p, nil
	}
	return OverrideNone, nil
}

// SetOverride replaces the current override.
func (m *MemoryOverride) SetOverride(_ context.Context, o Override) error {
	m.v.Store(&o)
	return nil
}

// MemorySchedule keeps a schedule in process memory.
type MemorySchedule struct {
	v atomic.Pointer[Schedule]
}

var _ ScheduleStore = (*MemorySchedule)(nil)

// NewMemorySchedule creates a MemorySchedule holding s.
func NewMemorySchedule(s Schedule) *MemorySchedule {
	m := &MemorySchedule{}
	_ = m.ReplaceSchedule(context.Background(), s)
	return m
}

// Schedule returns a copy of the stored schedule.
func (m *MemorySchedule) Schedule(context.Context) (Schedule, error) {
	p := m.v.Load()
	if p == nil {
		return Schedule{}, nil
	}
	return cloneSchedule(*p), nil
}

// ReplaceSchedule stores a copy of s.
func (m *MemorySchedule) ReplaceSchedule(_ context.Context, s Schedule) error {
	c := cloneSchedule(s)
	m.v.Store(&c)
	return nil
}

func cloneSchedule(s Schedule) Schedule {
	out := make(Schedule, len(s))
	for day, ivs := range s {
		out[day] = slices.Clone(ivs)
	}
	return out
}

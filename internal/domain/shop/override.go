package shop

import (
	"github.com/xenking/orderdesk/internal/domain/validate"
)

// Override is the administrator's manual status.
type Override string

const (
	// OverrideNone defers to the schedule.
	OverrideNone Override = ""
	// OverrideOpen forces the shop open.
	OverrideOpen Override = "open"
	// OverrideClosed forces the shop closed.
	OverrideClosed Override = "closed"
)

// ParseOverride accepts nil (schedule mode), "open" or "closed".
func ParseOverride(v *string) (Override, error) {
	if v == nil {
		return OverrideNone, nil
	}
	switch o := Override(*v); o {
	case OverrideOpen, OverrideClosed:
		return o, nil
	default:
		return OverrideNone, validate.Field("status", `must be "open", "closed" or null`)
	}
}

// Ptr returns the JSON representation: nil for OverrideNone.
func (o Override) Ptr() *string {
	if o == OverrideNone {
		return nil
	}
	s := string(o)
	return &s
}

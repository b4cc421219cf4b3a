package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/xenking/orderdesk/internal/domain/shop"
	"github.com/xenking/orderdesk/internal/domain/validate"
)

type statusResponse struct {
	Override *string    `json:"override"`
	Open     bool       `json:"open"`
	NextOpen *time.Time `json:"next_open,omitempty"`
}

type setStatusRequest struct {
	Status *string `json:"status"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// GetStatus reports the override and whether the shop is open now.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.status.Current(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Override: st.Override.Ptr(),
		Open:     st.Open,
		NextOpen: st.NextOpen,
	})
}

// SetStatus sets the override to "open", "closed" or null.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if !decode(w, r, &req) {
		return
	}
	o, err := shop.ParseOverride(req.Status)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.status.SetOverride(r.Context(), o); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

type hoursDocument struct {
	Timezone string                      `json:"timezone,omitempty"`
	Days     map[string][]shop.Interval `json:"days"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// GetHours returns the weekly schedule keyed by lower-case weekday name.
func (h *Handler) GetHours(w http.ResponseWriter, r *http.Request) {
	sched, err := h.status.Schedule(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	doc := hoursDocument{Timezone: h.cfg.Timezone, Days: make(map[string][]shop.Interval, len(sched))}
	for day, ivs := range sched {
		doc.Days[strings.ToLower(day.String())] = ivs
	}
	writeJSON(w, http.StatusOK, doc)
}

// ReplaceHours replaces the whole weekly schedule. Days left out are closed.
func (h *Handler) ReplaceHours(w http.ResponseWriter, r *http.Request) {
	var doc hoursDocument
	if !decode(w, r, &doc) {
		return
	}

	var es validate.Errors
	sched := make(shop.Schedule, len(doc.Days))
	for name, ivs := range doc.Days {
		day, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			es.Add("days."+name, "unknown weekday")
			continue
		}
		sched[day] = append(sched[day], ivs...)
	}
	if err := es.Err(); err != nil {
		fail(w, r, err)
		return
	}

	if err := h.status.ReplaceSchedule(r.Context(), sched); err != nil {
		fail(w, r, err)
		return
	}
	h.GetHours(w, r)
}

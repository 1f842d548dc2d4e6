package service

import "time"

// Hours is the externally configured business-hours policy. Checkout is only
// permitted while the shop is open.
type Hours struct {
	Opening int // first open hour, exclusive lower bound
	Closing int // closing hour, exclusive upper bound
	now     func() time.Time
}

// NewHours creates a business-hours policy from configured opening and
// closing hours
func NewHours(opening, closing int) *Hours {
	return &Hours{Opening: opening, Closing: closing, now: time.Now}
}

// IsOpenNow reports whether the current hour falls inside the configured
// window. Both bounds are exclusive: opening 8 and closing 20 means open
// from 09:00 through 19:59.
func (h *Hours) IsOpenNow() bool {
	hour := h.now().Hour()
	return h.Opening < hour && hour < h.Closing
}

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func hoursAt(hour int) *Hours {
	h := NewHours(8, 20)
	h.now = func() time.Time {
		return time.Date(2025, 6, 1, hour, 30, 0, 0, time.UTC)
	}
	return h
}

func TestIsOpenNow(t *testing.T) {
	assert.True(t, hoursAt(9).IsOpenNow())
	assert.True(t, hoursAt(19).IsOpenNow())
}

func TestIsOpenNowClosed(t *testing.T) {
	assert.False(t, hoursAt(4).IsOpenNow())
	assert.False(t, hoursAt(23).IsOpenNow())
}

func TestIsOpenNowBoundsAreExclusive(t *testing.T) {
	assert.False(t, hoursAt(8).IsOpenNow())
	assert.False(t, hoursAt(20).IsOpenNow())
}

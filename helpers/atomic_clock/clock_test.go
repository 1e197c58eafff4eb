package atomic_clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock(t *testing.T) {
	t.Parallel()

	var c Clock
	assert.True(t, c.IsZero())
	assert.True(t, c.Time().IsZero())
	assert.Equal(t, time.Duration(0), c.Since())

	c.SetNow()
	assert.False(t, c.IsZero())
	assert.WithinDuration(t, time.Now(), c.Time(), 100*time.Millisecond)
	assert.True(t, c.Since() < 100*time.Millisecond)

	past := time.Now().Add(-time.Hour)
	c.Set(past)
	assert.Equal(t, past.UnixNano(), c.Time().UnixNano())
	assert.InDelta(t, float64(time.Hour), float64(c.Since()), float64(time.Second))

	c.Set(time.Time{})
	assert.True(t, c.IsZero())
}

package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDurationDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 7*time.Second, DurationDefault(0, time.Second, 7*time.Second))
	assert.Equal(t, 3*time.Second, DurationDefault(3, time.Second, 7*time.Second))
	assert.Equal(t, 250*time.Millisecond, DurationDefault(250, time.Millisecond, time.Second))
}

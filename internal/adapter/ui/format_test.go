package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeAgo(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "just now", timeAgo(now.Add(-30*time.Second), now))
	assert.Equal(t, "5m ago", timeAgo(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", timeAgo(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2d ago", timeAgo(now.Add(-49*time.Hour), now))
	assert.Equal(t, "Jan 2, 2025", timeAgo(time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC), now))
}

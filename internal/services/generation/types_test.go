package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTaskStatus(t *testing.T) {
	t.Run("Should map wire strings to statuses", func(t *testing.T) {
		tests := []struct {
			raw      string
			expected TaskStatus
		}{
			{"pending", StatusPending},
			{"processing", StatusProcessing},
			{"completed", StatusCompleted},
			{"failed", StatusFailed},
			{"PENDING", StatusPending},
			{"Completed", StatusCompleted},
			{"  completed  ", StatusCompleted},
			{"", StatusUnrecognized},
			{"unknown", StatusUnrecognized},
			{"queued", StatusUnrecognized},
		}

		for _, tt := range tests {
			t.Run(tt.raw, func(t *testing.T) {
				assert.Equal(t, tt.expected, ParseTaskStatus(tt.raw))
			})
		}
	})

	t.Run("Should classify terminal statuses", func(t *testing.T) {
		assert.True(t, StatusCompleted.Terminal())
		assert.True(t, StatusFailed.Terminal())
		assert.False(t, StatusPending.Terminal())
		assert.False(t, StatusProcessing.Terminal())
		assert.False(t, StatusUnrecognized.Terminal())
	})

	t.Run("Should round-trip status names", func(t *testing.T) {
		for _, s := range []TaskStatus{StatusPending, StatusProcessing, StatusCompleted, StatusFailed} {
			assert.Equal(t, s, ParseTaskStatus(s.String()))
		}
		assert.Equal(t, "unrecognized", StatusUnrecognized.String())
	})
}

func TestSubmissionError(t *testing.T) {
	t.Run("Should report HTTP status when present", func(t *testing.T) {
		err := &SubmissionError{StatusCode: 502}
		assert.Contains(t, err.Error(), "HTTP 502")
	})

	t.Run("Should report reason when no status", func(t *testing.T) {
		err := &SubmissionError{Reason: "no taskId in response"}
		assert.Contains(t, err.Error(), "no taskId in response")
	})
}

package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCron(t *testing.T) {
	t.Run("Should convert 5-field to 6-field cron", func(t *testing.T) {
		tests := []struct {
			name     string
			input    string
			expected string
		}{
			{
				name:     "Daily at 2 AM",
				input:    "0 2 * * *",
				expected: "0 0 2 * * *",
			},
			{
				name:     "Every 15 minutes",
				input:    "*/15 * * * *",
				expected: "0 */15 * * * *",
			},
			{
				name:     "Every Monday at 9 AM",
				input:    "0 9 * * 1",
				expected: "0 0 9 * * 1",
			},
			{
				name:     "First day of month at midnight",
				input:    "0 0 1 * *",
				expected: "0 0 0 1 * *",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				result, err := normalizeCron(tt.input)
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			})
		}
	})

	t.Run("Should keep 6-field cron unchanged", func(t *testing.T) {
		tests := []string{
			"0 0 2 * * *",
			"0 */15 * * * *",
			"30 0 2 * * 1",
		}

		for _, input := range tests {
			t.Run(input, func(t *testing.T) {
				result, err := normalizeCron(input)
				require.NoError(t, err)
				assert.Equal(t, input, result)
			})
		}
	})

	t.Run("Should fail with invalid field count", func(t *testing.T) {
		tests := []string{
			"0 2 * *",
			"0 0 2 * * * 2025",
			"",
			"*",
		}

		for _, input := range tests {
			t.Run(input, func(t *testing.T) {
				_, err := normalizeCron(input)
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "invalid cron expression")
			})
		}
	})

	t.Run("Should handle cron with extra whitespace", func(t *testing.T) {
		result, err := normalizeCron("  0 2 * * *  ")
		require.NoError(t, err)
		assert.Equal(t, "0 0 2 * * *", result)
	})
}

func TestParseJobPayload(t *testing.T) {
	t.Run("Should decode a full payload", func(t *testing.T) {
		payload := `{
			"description": "a dream about flying",
			"analysis": {"keywords":["flying"],"emotions":["peaceful"],"visualDescription":"clouds"},
			"model_name": "nightly_dream",
			"convert": true
		}`

		req, err := parseJobPayload(payload)

		require.NoError(t, err)
		assert.Equal(t, "a dream about flying", req.Description)
		assert.Equal(t, "nightly_dream", req.Name)
		assert.True(t, req.Convert)
		require.NotNil(t, req.Analysis)
		assert.Equal(t, []string{"flying"}, req.Analysis.Keywords)
	})

	t.Run("Should decode a minimal payload", func(t *testing.T) {
		req, err := parseJobPayload(`{"description":"x"}`)

		require.NoError(t, err)
		assert.Equal(t, "x", req.Description)
		assert.Nil(t, req.Analysis)
		assert.False(t, req.Convert)
	})

	t.Run("Should fail on malformed JSON", func(t *testing.T) {
		_, err := parseJobPayload(`{broken`)
		assert.Error(t, err)
	})

	t.Run("Should fail without a description", func(t *testing.T) {
		_, err := parseJobPayload(`{"model_name":"x"}`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing description")
	})
}

func TestToJobListResponse(t *testing.T) {
	t.Run("Should format run times as RFC 3339", func(t *testing.T) {
		last := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
		next := last.Add(24 * time.Hour)
		job := &ScheduledJob{
			ID:        "job-1",
			Name:      "nightly",
			Cron:      "0 0 2 * * *",
			Timezone:  "UTC",
			Enabled:   true,
			LastRunAt: &last,
			NextRunAt: &next,
		}

		resp := toJobListResponse(job)

		assert.Equal(t, "job-1", resp.ID)
		require.NotNil(t, resp.LastRunAt)
		assert.Equal(t, "2026-08-24T10:00:00Z", *resp.LastRunAt)
		require.NotNil(t, resp.NextRun)
		assert.Equal(t, "2026-08-25T10:00:00Z", *resp.NextRun)
	})

	t.Run("Should leave absent run times nil", func(t *testing.T) {
		resp := toJobListResponse(&ScheduledJob{ID: "job-1", Name: "nightly"})

		assert.Nil(t, resp.LastRunAt)
		assert.Nil(t, resp.NextRun)
	})
}

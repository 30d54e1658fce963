package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dreampipe/internal/logging"
	"dreampipe/internal/models"
)

func record(name, url, taskID string) ModelRecord {
	return ModelRecord{
		Name:        name,
		URL:         url,
		Description: "a dream",
		Analysis:    models.EmptyAnalysis(),
		Timestamp:   "2026-08-24T10:00:00Z",
		TaskID:      taskID,
	}
}

func TestRecord(t *testing.T) {
	t.Run("Should create catalog with one record on empty store", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "AppAssets", "models.json")
		svc := NewService(path, logging.Discard)

		require.NoError(t, svc.Record(record("m1", "https://h/m1.glb", "T1")))

		records, err := svc.List()
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "m1", records[0].Name)
		assert.Equal(t, "https://h/m1.glb", records[0].URL)
		assert.Equal(t, "T1", records[0].TaskID)
	})

	t.Run("Should append two records preserving insertion order", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "models.json")
		svc := NewService(path, logging.Discard)

		require.NoError(t, svc.Record(record("m1", "https://h/m1.glb", "T1")))
		require.NoError(t, svc.Record(record("m2", "https://h/m2.glb", "T2")))

		records, err := svc.List()
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "m1", records[0].Name)
		assert.Equal(t, "m2", records[1].Name)
	})

	t.Run("Should append exactly one record to a pre-existing store", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "models.json")
		existing := `{"models":[{"name":"old","url":"https://h/old.glb","description":"d","analysis":{"keywords":[],"emotions":[],"visualDescription":""},"timestamp":"2026-01-01T00:00:00Z","task_id":"T0"}]}`
		require.NoError(t, os.WriteFile(path, []byte(existing), 0644))

		svc := NewService(path, logging.Discard)
		require.NoError(t, svc.Record(record("new", "https://h/new.glb", "T1")))

		records, err := svc.List()
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "old", records[0].Name, "Prior entries must be untouched")
		assert.Equal(t, "https://h/old.glb", records[0].URL)
		assert.Equal(t, "new", records[1].Name)
	})

	t.Run("Should write human-readable indented JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "models.json")
		svc := NewService(path, logging.Discard)

		require.NoError(t, svc.Record(record("m1", "https://h/m1.glb", "T1")))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "\n  \"models\"")

		var doc map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.Contains(t, doc, "models")
	})

	t.Run("Should fail on a corrupt catalog", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "models.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

		svc := NewService(path, logging.Discard)
		err := svc.Record(record("m1", "https://h/m1.glb", "T1"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse catalog")
	})
}

func TestList(t *testing.T) {
	t.Run("Should return empty list for missing store", func(t *testing.T) {
		svc := NewService(filepath.Join(t.TempDir(), "models.json"), logging.Discard)

		records, err := svc.List()

		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

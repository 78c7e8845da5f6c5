package eventjson

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legistarevents/pkg/models"
)

func readIDs(t *testing.T, path string) []int {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var ids []int
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var row map[string]interface{}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &row))
		assert.Contains(t, row, "agenda_file_uri")
		assert.Nil(t, row["agenda_file_uri"])
		ids = append(ids, int(row["legistar_event_id"].(float64)))
	}
	return ids
}

func canonical(id int) *models.CanonicalEvent {
	return &models.CanonicalEvent{
		LegistarEventID: id,
		Body:            "City Council",
		EventDatetime:   time.Date(2024, 5, 6, 14, 0, 0, 0, time.UTC),
		MinutesItems:    []models.MinutesItem{},
	}
}

func TestWriterAppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "events.jsonl")
	w, err := NewWriter(path)
	require.NoError(t, err)

	require.NoError(t, w.WriteEvents([]*models.CanonicalEvent{canonical(1), nil, canonical(2)}))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.Equal(t, []int{1, 2}, readIDs(t, path))
}

func TestWriterSkipsEventsAlreadyWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	w, err := NewWriter(path)
	require.NoError(t, err)

	require.NoError(t, w.WriteEvents([]*models.CanonicalEvent{canonical(1), canonical(2), canonical(1)}))
	require.NoError(t, w.WriteEvents([]*models.CanonicalEvent{canonical(2), canonical(3)}))
	require.NoError(t, w.WriteEvents([]*models.CanonicalEvent{canonical(3)}))
	require.NoError(t, w.Close())

	assert.Equal(t, []int{1, 2, 3}, readIDs(t, path))
}

func TestWriterRejectsWritesAfterClose(t *testing.T) {
	w, err := NewWriter(filepath.Join(t.TempDir(), "events.jsonl"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Error(t, w.WriteEvents([]*models.CanonicalEvent{canonical(1)}))
}

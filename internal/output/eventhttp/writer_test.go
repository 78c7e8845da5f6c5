package eventhttp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legistarevents/pkg/models"
)

func TestWriteEventsPostsBatch(t *testing.T) {
	var got []models.CanonicalEvent
	var header http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	w, err := NewWriter(Config{URL: srv.URL, Headers: map[string]string{"Authorization": "Bearer x"}})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.WriteEvents([]*models.CanonicalEvent{
		{LegistarEventID: 5, Body: "Council"},
		nil,
		{LegistarEventID: 9, Body: "Parks"},
	}))
	require.Len(t, got, 2)
	assert.Equal(t, 5, got[0].LegistarEventID)
	assert.Equal(t, 9, got[1].LegistarEventID)
	assert.Equal(t, "Bearer x", header.Get("Authorization"))
	assert.Equal(t, "application/json", header.Get("Content-Type"))
	assert.Equal(t, "2", header.Get(HeaderEventCount))
	assert.Equal(t, "5,9", header.Get(HeaderEventIDs))
}

func TestWriteEventsFailsOnErrorStatus(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	w, err := NewWriter(Config{URL: srv.URL})
	require.NoError(t, err)

	err = w.WriteEvents([]*models.CanonicalEvent{{LegistarEventID: 5}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "post 1 canonical events (ids 5)")
	assert.Equal(t, 1, calls)

	assert.NoError(t, w.WriteEvents(nil))
	assert.NoError(t, w.WriteEvents([]*models.CanonicalEvent{nil}))
	assert.Equal(t, 1, calls)
}

func TestNewWriterRequiresURL(t *testing.T) {
	_, err := NewWriter(Config{})
	assert.Error(t, err)
}

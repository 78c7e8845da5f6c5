package itemclickhouse

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legistarevents/pkg/models"
)

func sampleEvents() []*models.CanonicalEvent {
	pass := "Pass"
	return []*models.CanonicalEvent{{
		LegistarEventID: 9,
		Body:            "City Council",
		EventDatetime:   time.Date(2024, 5, 6, 14, 0, 0, 0, time.UTC),
		MinutesItems: []models.MinutesItem{
			{LegistarEventItemID: 1, Name: "Adjournment", Index: -1, Votes: []models.Vote{}},
			{LegistarEventItemID: 2, Name: "CB 1", Index: 1, Decision: &pass, Votes: []models.Vote{{LegistarEventItemVoteID: 3}}},
		},
	}}
}

func TestRowsFlattenItems(t *testing.T) {
	rows := Rows(append(sampleEvents(), nil))
	require.Len(t, rows, 2)
	assert.Equal(t, 9, rows[0].EventID)
	assert.Equal(t, -1, rows[0].Index)
	assert.Equal(t, 1, rows[1].Votes)
	assert.Equal(t, "Pass", *rows[1].Decision)
}

func TestWriteEventsInsertsJSONEachRow(t *testing.T) {
	var query, user string
	var lines int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("query")
		user = r.Header.Get("X-ClickHouse-User")
		sc := bufio.NewScanner(r.Body)
		for sc.Scan() {
			var row map[string]interface{}
			require.NoError(t, json.Unmarshal(sc.Bytes(), &row))
			lines++
		}
	}))
	defer srv.Close()

	w, err := NewWriter(Config{URL: srv.URL, Database: "cdp", Username: "ingest"})
	require.NoError(t, err)
	require.NoError(t, w.WriteEvents(sampleEvents()))

	assert.Equal(t, "INSERT INTO `cdp`.`minutes_items` FORMAT JSONEachRow", query)
	assert.Equal(t, "ingest", user)
	assert.Equal(t, 2, lines)
}

func TestWriteEventsReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Code: 60. Table does not exist", http.StatusNotFound)
	}))
	defer srv.Close()

	w, err := NewWriter(Config{URL: srv.URL})
	require.NoError(t, err)
	err = w.WriteEvents(sampleEvents())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Table does not exist")
}

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventsFixture = `[
  {
    "EventId": 1,
    "EventDate": "2021-03-01T00:00:00",
    "EventTime": "2:00 PM",
    "EventAgendaFile": null,
    "EventMinutesFile": null,
    "EventBodyName": "Parks Committee",
    "EventInSiteURL": null,
    "EventItems": [{"EventItemId": 10, "EventItemTitle": "Playground renovation"}]
  },
  {
    "EventId": 2,
    "EventDate": "2021-03-01T00:00:00",
    "EventTime": "9:30 am",
    "EventAgendaFile": "https://example.com/agenda.pdf",
    "EventMinutesFile": null,
    "EventBodyName": "City Council",
    "EventInSiteURL": "https://example.legistar.com/x",
    "EventItems": [
      {"EventItemId": 20, "EventItemMatterName": "Budget amendment", "EventItemMinutesSequence": 1},
      {"EventItemId": 21, "EventItemTitle": "Public comment", "EventItemMinutesSequence": 2}
    ]
  }
]`

func TestRunMatch(t *testing.T) {
	dir := t.TempDir()
	eventsPath := filepath.Join(dir, "events.json")
	require.NoError(t, os.WriteFile(eventsPath, []byte(eventsFixture), 0644))
	targetsPath := filepath.Join(dir, "targets.txt")
	require.NoError(t, os.WriteFile(targetsPath, []byte("# agenda\nBudget Amendment\n"), 0644))

	var out bytes.Buffer
	code := runMatch([]string{
		"-events", eventsPath,
		"-targets-file", targetsPath,
		"-ignore", "Public comment",
		"-timezone", "America/Los_Angeles",
		"-source-id", "doc-9",
	}, &out)
	require.Equal(t, 0, code)

	var report struct {
		SourceID string `json:"source_id"`
		Match    struct {
			MatchScores map[string]int `json:"match_scores"`
		} `json:"match"`
		Event struct {
			LegistarEventID int       `json:"legistar_event_id"`
			Body            string    `json:"body"`
			EventDatetime   time.Time `json:"event_datetime"`
			MinutesItems    []struct {
				Name string `json:"name"`
			} `json:"minutes_items"`
		} `json:"event"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))

	assert.Equal(t, "doc-9", report.SourceID)
	assert.Equal(t, 100, report.Match.MatchScores["2"])
	assert.Less(t, report.Match.MatchScores["1"], 100)
	assert.Equal(t, 2, report.Event.LegistarEventID)
	assert.Equal(t, "City Council", report.Event.Body)
	require.Len(t, report.Event.MinutesItems, 1)
	assert.Equal(t, "Budget amendment", report.Event.MinutesItems[0].Name)

	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	assert.True(t, time.Date(2021, 3, 1, 9, 30, 0, 0, loc).Equal(report.Event.EventDatetime))
}

func TestRunMatchRequiresEvents(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 2, runMatch(nil, &out))
}

func TestParseWindow(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	start, end, err := parseWindow("", "", 24*time.Hour, time.UTC, now)
	require.NoError(t, err)
	assert.True(t, now.Equal(start))
	assert.True(t, now.Add(24*time.Hour).Equal(end))

	start, end, err = parseWindow("2024-05-01", "2024-05-08", time.Hour, time.UTC, now)
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, end.Sub(start))

	_, _, err = parseWindow("2024-05-08", "2024-05-01", time.Hour, time.UTC, now)
	assert.Error(t, err)

	_, _, err = parseWindow("yesterday", "", time.Hour, time.UTC, now)
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b c"}, splitList(" a, ,b c ,"))
	assert.Nil(t, splitList(""))
}

package legistar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLegistar struct {
	mu          sync.Mutex
	filters     []string
	personCalls int32
	eventsFails int32
}

func (f *fakeLegistar) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}
	mux.HandleFunc("/v1/seattle/Events", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&f.eventsFails, -1) >= 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		f.mu.Lock()
		f.filters = append(f.filters, r.URL.Query().Get("$filter"))
		f.mu.Unlock()
		write(w, `[
		  {"EventId": 1, "EventDate": "2024-05-06T00:00:00", "EventTime": "2:00 PM", "EventBodyName": "City Council"},
		  {"EventId": 2, "EventDate": "2024-05-06T00:00:00", "EventTime": "9:30 AM", "EventBodyName": "Parks"}
		]`)
	})
	mux.HandleFunc("/v1/seattle/Events/1/EventItems", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("Attachments"))
		write(w, `[{"EventItemId": 10, "EventItemTitle": "Budget Amendment", "EventItemPassedFlagName": "Pass", "EventItemMatterAttachments": []},
		           {"EventItemId": 11, "EventItemTitle": "Public Comment", "EventItemMatterAttachments": []}]`)
	})
	mux.HandleFunc("/v1/seattle/Events/2/EventItems", func(w http.ResponseWriter, r *http.Request) {
		write(w, `[]`)
	})
	mux.HandleFunc("/v1/seattle/EventItems/10/Votes", func(w http.ResponseWriter, r *http.Request) {
		write(w, `[{"VoteId": 100, "VoteValueName": "In Favor", "VotePersonId": 7},
		           {"VoteId": 101, "VoteValueName": "Opposed", "VotePersonId": 7}]`)
	})
	mux.HandleFunc("/v1/seattle/EventItems/11/Votes", func(w http.ResponseWriter, r *http.Request) {
		write(w, `[]`)
	})
	mux.HandleFunc("/v1/seattle/Persons/7", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.personCalls, 1)
		write(w, `{"PersonId": 7, "PersonFullName": "Jane Doe", "PersonEmail": "jane@example.gov", "PersonPhone": null, "PersonWWW": null}`)
	})
	return mux
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL:      url + "/v1",
		Client:       "seattle",
		Timeout:      5 * time.Second,
		RetryCount:   2,
		RetryWait:    time.Millisecond,
		RetryMaxWait: 5 * time.Millisecond,
		Concurrency:  2,
	})
	require.NoError(t, err)
	return c
}

func TestFetchEventsHydratesItemsVotesAndPersons(t *testing.T) {
	fake := &fakeLegistar{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	begin := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	events, err := c.FetchEvents(context.Background(), begin, begin.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 2)

	require.Len(t, fake.filters, 1)
	assert.Equal(t, "EventDate ge datetime'2024-05-06T00:00:00' and EventDate lt datetime'2024-05-07T00:00:00'", fake.filters[0])

	first := events[0]
	require.Len(t, first.Items, 2)
	require.Len(t, first.Items[0].Votes, 2)
	vote := first.Items[0].Votes[0]
	require.NotNil(t, vote.Person)
	assert.Equal(t, "Jane Doe", vote.Person.FullName.Key())
	assert.True(t, vote.Person.Phone.Present)
	assert.Empty(t, first.Items[1].Votes)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.personCalls))

	assert.NotNil(t, events[1].Items)
	assert.Empty(t, events[1].Items)
}

func TestFetchEventsRetriesServerErrors(t *testing.T) {
	fake := &fakeLegistar{eventsFails: 2}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	events, err := c.FetchEvents(context.Background(), time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestFetchEventsReportsClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.FetchEvents(context.Background(), time.Now(), time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "404"), err.Error())
}

func TestNewClientRequiresClientName(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

// Package legistar retrieves hydrated events from the Legistar web API.
package legistar

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"legistarevents/internal/logger"
	"legistarevents/pkg/models"
)

// filterTimeLayout is the datetime literal format used in OData filters.
const filterTimeLayout = "2006-01-02T15:04:05"

// Config configures the Legistar client.
type Config struct {
	BaseURL         string
	Client          string
	Timeout         time.Duration
	RetryCount      int
	RetryWait       time.Duration
	RetryMaxWait    time.Duration
	Concurrency     int
	PersonCacheSize int
}

// Client fetches events, event items, votes and persons for one Legistar client.
type Client struct {
	http        *resty.Client
	client      string
	concurrency int
	persons     *lru.Cache[string, models.RawPerson]
}

// NewClient creates a Legistar client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Client) == "" {
		return nil, fmt.Errorf("legistar client is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://webapi.legistar.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.PersonCacheSize <= 0 {
		cfg.PersonCacheSize = 512
	}

	persons, err := lru.New[string, models.RawPerson](cfg.PersonCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create person cache: %w", err)
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.RetryMaxWait).
		AddRetryCondition(retryCondition)

	return &Client{
		http:        httpClient,
		client:      cfg.Client,
		concurrency: cfg.Concurrency,
		persons:     persons,
	}, nil
}

func retryCondition(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// Name identifies the client in logs and job records.
func (c *Client) Name() string {
	return c.client
}

// FetchEvents returns every event with begin <= EventDate < end, each with its
// items, each item's votes and each vote's person attached.
func (c *Client) FetchEvents(ctx context.Context, begin, end time.Time) ([]models.RawEvent, error) {
	filter := fmt.Sprintf("EventDate ge datetime'%s' and EventDate lt datetime'%s'",
		begin.Format(filterTimeLayout), end.Format(filterTimeLayout))

	logger.Debugf("Querying Legistar %s for events between %s and %s", c.client, begin, end)
	var events []models.RawEvent
	if err := c.get(ctx, "/{client}/Events", nil, map[string]string{"$filter": filter}, &events); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i := range events {
		ev := &events[i]
		g.Go(func() error {
			return c.hydrate(gctx, ev)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debugf("Collected %d Legistar events for %s", len(events), c.client)
	return events, nil
}

func (c *Client) hydrate(ctx context.Context, ev *models.RawEvent) error {
	eventID := ev.EventID.Key()
	if eventID == "" {
		return fmt.Errorf("event without EventId in list response")
	}

	var items []models.RawEventItem
	err := c.get(ctx, "/{client}/Events/{id}/EventItems", map[string]string{"id": eventID},
		map[string]string{"AgendaNote": "1", "MinutesNote": "1", "Attachments": "1"}, &items)
	if err != nil {
		return fmt.Errorf("event %s items: %w", eventID, err)
	}

	for i := range items {
		item := &items[i]
		itemID := item.EventItemID.Key()
		if itemID == "" {
			continue
		}
		var votes []models.RawVote
		if err := c.get(ctx, "/{client}/EventItems/{id}/Votes", map[string]string{"id": itemID}, nil, &votes); err != nil {
			return fmt.Errorf("event item %s votes: %w", itemID, err)
		}
		for j := range votes {
			person, err := c.person(ctx, votes[j].VotePersonID.Key())
			if err != nil {
				return err
			}
			votes[j].Person = person
		}
		if votes == nil {
			votes = []models.RawVote{}
		}
		item.Votes = votes
	}

	if items == nil {
		items = []models.RawEventItem{}
	}
	ev.Items = items
	return nil
}

// person looks up a person, serving repeats from the cache.
func (c *Client) person(ctx context.Context, personID string) (*models.RawPerson, error) {
	if personID == "" {
		return nil, nil
	}
	if p, ok := c.persons.Get(personID); ok {
		return &p, nil
	}
	var p models.RawPerson
	if err := c.get(ctx, "/{client}/Persons/{id}", map[string]string{"id": personID}, nil, &p); err != nil {
		return nil, fmt.Errorf("person %s: %w", personID, err)
	}
	c.persons.Add(personID, p)
	return &p, nil
}

func (c *Client) get(ctx context.Context, path string, pathParams, query map[string]string, out interface{}) error {
	params := map[string]string{"client": c.client}
	for k, v := range pathParams {
		params[k] = v
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(params).
		SetQueryParams(query).
		SetResult(out).
		ForceContentType("application/json").
		Get(path)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("request %s failed with status %s", resp.Request.URL, resp.Status())
	}
	return nil
}

// Package normalizer flattens a hydrated Legistar event into a CanonicalEvent.
package normalizer

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"legistarevents/pkg/models"
)

// eventTimeLayout is the date portion of EventDate joined to a 12-hour EventTime.
const eventTimeLayout = "2006-01-02T3:04 PM"

// clockPattern matches a 12-hour clock with one- or two-digit fields.
var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{1,2})\s+(AM|PM)$`)

// Config controls normalization.
type Config struct {
	// IgnoreNames lists display names whose items are dropped.
	IgnoreNames []string
	// Location is the zone event times are recorded in. Defaults to UTC.
	Location *time.Location
}

// Normalizer converts raw events into canonical records. It holds no mutable
// state and is safe for concurrent use.
type Normalizer struct {
	ignore   map[string]struct{}
	location *time.Location
}

// New creates a normalizer. The ignore list is copied.
func New(cfg Config) *Normalizer {
	ignore := make(map[string]struct{}, len(cfg.IgnoreNames))
	for _, name := range cfg.IgnoreNames {
		ignore[name] = struct{}{}
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{ignore: ignore, location: loc}
}

// Normalize converts event with a throwaway normalizer.
func Normalize(event *models.RawEvent, ignore ...string) (*models.CanonicalEvent, error) {
	return New(Config{IgnoreNames: ignore}).Normalize(event)
}

// Normalize converts one raw event. Any error aborts the whole event; no
// partial record is returned.
func (n *Normalizer) Normalize(event *models.RawEvent) (*models.CanonicalEvent, error) {
	if event == nil {
		return nil, &MissingFieldError{Path: "Event"}
	}

	when, err := n.eventDatetime(event)
	if err != nil {
		return nil, err
	}

	items := make([]models.MinutesItem, 0, len(event.Items))
	for i := range event.Items {
		item, keep, err := n.minutesItem(&event.Items[i], fmt.Sprintf("EventItems[%d]", i))
		if err != nil {
			return nil, err
		}
		if keep {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].Index < items[b].Index
	})

	eventID, err := requireInt(event.EventID, "EventId")
	if err != nil {
		return nil, err
	}
	body, err := requireText(event.BodyName, "EventBodyName")
	if err != nil {
		return nil, err
	}
	link, err := nullable(event.InSiteURL, "EventInSiteURL")
	if err != nil {
		return nil, err
	}
	agenda, err := nullable(event.AgendaFile, "EventAgendaFile")
	if err != nil {
		return nil, err
	}
	minutes, err := nullable(event.MinutesFile, "EventMinutesFile")
	if err != nil {
		return nil, err
	}

	return &models.CanonicalEvent{
		LegistarEventID:   eventID,
		LegistarEventLink: link,
		AgendaFileURI:     agenda,
		MinutesFileURI:    minutes,
		Body:              body,
		EventDatetime:     when,
		MinutesItems:      items,
	}, nil
}

func (n *Normalizer) eventDatetime(event *models.RawEvent) (time.Time, error) {
	date, ok := event.EventDate.Text()
	if !ok || strings.TrimSpace(date) == "" {
		return time.Time{}, &ParseError{Field: "EventDate", Value: date}
	}
	clock, ok := event.EventTime.Text()
	if !ok || strings.TrimSpace(clock) == "" {
		return time.Time{}, &ParseError{Field: "EventTime", Value: clock}
	}

	hm, err := canonicalClock(clock)
	if err != nil {
		return time.Time{}, &ParseError{Field: "EventTime", Value: clock, Err: err}
	}
	day := strings.SplitN(strings.TrimSpace(date), "T", 2)[0]
	joined := day + "T" + hm
	t, err := time.ParseInLocation(eventTimeLayout, joined, n.location)
	if err != nil {
		return time.Time{}, &ParseError{Field: "EventDate/EventTime", Value: joined, Err: err}
	}
	return t, nil
}

// canonicalClock rewrites "h:m AM" into the "3:04 PM" form, accepting hours
// 1 through 12 and minutes 0 through 59 in one or two digits.
func canonicalClock(clock string) (string, error) {
	m := clockPattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(clock)))
	if m == nil {
		return "", fmt.Errorf("not a 12-hour clock")
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 1 || hour > 12 {
		return "", fmt.Errorf("hour %d out of range 1-12", hour)
	}
	if minute > 59 {
		return "", fmt.Errorf("minute %d out of range 0-59", minute)
	}
	return fmt.Sprintf("%d:%02d %s", hour, minute, m[3]), nil
}

// minutesItem builds one item. keep is false when the item is ignored.
func (n *Normalizer) minutesItem(raw *models.RawEventItem, path string) (models.MinutesItem, bool, error) {
	name, ok := raw.DisplayName()
	if !ok {
		return models.MinutesItem{}, false, &MissingFieldError{Path: path + ".EventItemTitle"}
	}
	if _, skip := n.ignore[name]; skip {
		return models.MinutesItem{}, false, nil
	}

	itemID, err := requireInt(raw.EventItemID, path+".EventItemId")
	if err != nil {
		return models.MinutesItem{}, false, err
	}

	index := -1
	if raw.MinutesSequence.Truthy() {
		index, err = requireInt(raw.MinutesSequence, path+".EventItemMinutesSequence")
		if err != nil {
			return models.MinutesItem{}, false, err
		}
	}

	attachments := make([]models.Attachment, 0, len(raw.Attachments))
	for i, a := range raw.Attachments {
		apath := fmt.Sprintf("%s.EventItemMatterAttachments[%d]", path, i)
		id, err := requireInt(a.AttachmentID, apath+".MatterAttachmentId")
		if err != nil {
			return models.MinutesItem{}, false, err
		}
		attachments = append(attachments, models.Attachment{
			LegistarMatterAttachmentID: id,
			Name:                       a.Name.TextPtr(),
			URI:                        a.Hyperlink.TextPtr(),
		})
	}

	item := models.MinutesItem{
		LegistarEventItemID: itemID,
		Name:                name,
		Matter:              raw.Matter().TextPtr(),
		Index:               index,
		Votes:               []models.Vote{},
		Attachments:         attachments,
	}
	if !raw.PassedFlagName.Truthy() {
		return item, true, nil
	}

	item.Decision = raw.PassedFlagName.TextPtr()
	for i := range raw.Votes {
		vote, err := canonicalVote(&raw.Votes[i], fmt.Sprintf("%s.EventItemVoteInfo[%d]", path, i))
		if err != nil {
			return models.MinutesItem{}, false, err
		}
		item.Votes = append(item.Votes, vote)
	}
	return item, true, nil
}

func canonicalVote(raw *models.RawVote, path string) (models.Vote, error) {
	id, err := requireInt(raw.VoteID, path+".VoteId")
	if err != nil {
		return models.Vote{}, err
	}
	if raw.Person == nil {
		return models.Vote{}, &MissingFieldError{Path: path + ".PersonInfo"}
	}
	personID, err := requireInt(raw.Person.PersonID, path+".PersonInfo.PersonId")
	if err != nil {
		return models.Vote{}, err
	}
	return models.Vote{
		LegistarEventItemVoteID: id,
		Decision:                raw.VoteValueName.TextPtr(),
		Person: models.Person{
			LegistarPersonID: personID,
			FullName:         raw.Person.FullName.TextPtr(),
			Email:            raw.Person.Email.TextPtr(),
			Phone:            raw.Person.Phone.TextPtr(),
			Website:          raw.Person.Website.TextPtr(),
		},
	}, nil
}

func requireInt(v models.Value, path string) (int, error) {
	if v.IsNull() {
		return 0, &MissingFieldError{Path: path}
	}
	i, err := v.Int()
	if err != nil {
		return 0, &InvalidFieldError{Path: path, Value: v.Raw, Err: err}
	}
	return i, nil
}

func requireText(v models.Value, path string) (string, error) {
	s, ok := v.Text()
	if !ok {
		return "", &MissingFieldError{Path: path}
	}
	return s, nil
}

// nullable requires the key but accepts a null value.
func nullable(v models.Value, path string) (*string, error) {
	if !v.Present {
		return nil, &MissingFieldError{Path: path}
	}
	return v.TextPtr(), nil
}

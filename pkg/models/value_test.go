package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueTracksPresence(t *testing.T) {
	var item RawEventItem
	require.NoError(t, json.Unmarshal([]byte(`{"EventItemId": 12, "EventItemMatterName": null}`), &item))

	assert.True(t, item.EventItemID.Present)
	assert.True(t, item.MatterName.Present)
	assert.True(t, item.MatterName.IsNull())
	assert.False(t, item.Title.Present)
	assert.True(t, item.Title.IsNull())
}

func TestValueTruthy(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"absent", Value{}, false},
		{"null", V(nil), false},
		{"empty string", V(""), false},
		{"zero number", V(json.Number("0")), false},
		{"zero float", V(0.0), false},
		{"false", V(false), false},
		{"text", V("Pass"), true},
		{"number", V(json.Number("3")), true},
		{"zero text", V("0"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.v.Truthy())
		})
	}
}

func TestValueInt(t *testing.T) {
	cases := []struct {
		v    Value
		want int
	}{
		{V(json.Number("42")), 42},
		{V(json.Number("42.0")), 42},
		{V("42"), 42},
		{V(" 7 "), 7},
		{V("3.9"), 3},
		{V(12.0), 12},
		{V(5), 5},
	}
	for _, tc := range cases {
		got, err := tc.v.Int()
		require.NoError(t, err, "value %v", tc.v.Raw)
		assert.Equal(t, tc.want, got)
	}

	for _, bad := range []Value{{}, V(nil), V("abc"), V(true)} {
		_, err := bad.Int()
		assert.Error(t, err, "value %v", bad.Raw)
	}
}

func TestValueKey(t *testing.T) {
	assert.Equal(t, "1", V(json.Number("1")).Key())
	assert.Equal(t, "1", V(1.0).Key())
	assert.Equal(t, "abc", V("abc").Key())
	assert.Equal(t, "", Value{}.Key())
}

func TestRawEventRoundTripKeepsAbsence(t *testing.T) {
	in := `{"EventId":7,"EventAgendaFile":null,"EventItems":[{"EventItemId":1,"EventItemTitle":"x","EventItemMatterAttachments":null,"EventItemVoteInfo":null}]}`
	var ev RawEvent
	require.NoError(t, json.Unmarshal([]byte(in), &ev))

	out, err := json.Marshal(ev)
	require.NoError(t, err)

	var back map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Contains(t, back, "EventAgendaFile")
	assert.Nil(t, back["EventAgendaFile"])
	assert.NotContains(t, back, "EventMinutesFile")
	assert.NotContains(t, back, "EventDate")
}

func TestDisplayNameFallback(t *testing.T) {
	withMatter := RawEventItem{MatterName: V("CB 1"), Title: V("An ordinance"), MatterFile: V("CB 1 file")}
	name, ok := withMatter.DisplayName()
	assert.True(t, ok)
	assert.Equal(t, "CB 1", name)
	assert.Equal(t, "CB 1", withMatter.Matter().Key())

	titleOnly := RawEventItem{MatterName: V(""), Title: V("Public Comment"), MatterFile: V("Inf 12")}
	name, ok = titleOnly.DisplayName()
	assert.True(t, ok)
	assert.Equal(t, "Public Comment", name)
	assert.Equal(t, "Inf 12", titleOnly.Matter().Key())

	_, ok = RawEventItem{}.DisplayName()
	assert.False(t, ok)
}

func TestDisplayNames(t *testing.T) {
	ev := RawEvent{Items: []RawEventItem{
		{MatterName: V("CB 1"), Title: V("x")},
		{Title: V("Adjournment")},
		{},
	}}
	assert.Equal(t, []string{"CB 1", "Adjournment", ""}, ev.DisplayNames())
}

func TestRawEventCloneIsDeep(t *testing.T) {
	var ev RawEvent
	require.NoError(t, json.Unmarshal([]byte(`{
		"EventId": 7,
		"EventBodyName": "Council",
		"EventItems": [{
			"EventItemId": 1,
			"EventItemTitle": "Budget",
			"EventItemMatterAttachments": [{"MatterAttachmentName": "a.pdf"}],
			"EventItemVoteInfo": [{"VoteId": 2, "PersonInfo": {"PersonId": 3, "PersonFullName": "Ada"}}]
		}]
	}`), &ev))
	ev.InSiteURL = V([]interface{}{map[string]interface{}{"k": "v"}})

	cp := ev.Clone()
	assert.Equal(t, ev, cp)

	cp.Items[0].Title = V("Changed")
	cp.Items[0].Attachments[0].Name = V("b.pdf")
	cp.Items[0].Votes[0].Person.FullName = V("Grace")
	cp.InSiteURL.Raw.([]interface{})[0].(map[string]interface{})["k"] = "changed"

	assert.Equal(t, "Budget", ev.Items[0].Title.Key())
	assert.Equal(t, "a.pdf", ev.Items[0].Attachments[0].Name.Key())
	assert.Equal(t, "Ada", ev.Items[0].Votes[0].Person.FullName.Key())
	assert.Equal(t, "v", ev.InSiteURL.Raw.([]interface{})[0].(map[string]interface{})["k"])
	assert.Nil(t, cp.Items[0].Votes[0].Person.Email.Raw)
}

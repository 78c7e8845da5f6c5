package models

// RawEvent is a hydrated Legistar event as returned by the events API,
// with items, votes and persons already attached.
type RawEvent struct {
	EventID     Value          `json:"EventId,omitzero"`
	EventDate   Value          `json:"EventDate,omitzero"`
	EventTime   Value          `json:"EventTime,omitzero"`
	AgendaFile  Value          `json:"EventAgendaFile,omitzero"`
	MinutesFile Value          `json:"EventMinutesFile,omitzero"`
	BodyName    Value          `json:"EventBodyName,omitzero"`
	InSiteURL   Value          `json:"EventInSiteURL,omitzero"`
	Items       []RawEventItem `json:"EventItems"`
}

// RawEventItem is one agenda or minutes entry of an event.
type RawEventItem struct {
	EventItemID     Value           `json:"EventItemId,omitzero"`
	MatterName      Value           `json:"EventItemMatterName,omitzero"`
	Title           Value           `json:"EventItemTitle,omitzero"`
	MatterFile      Value           `json:"EventItemMatterFile,omitzero"`
	MinutesSequence Value           `json:"EventItemMinutesSequence,omitzero"`
	PassedFlagName  Value           `json:"EventItemPassedFlagName,omitzero"`
	Attachments     []RawAttachment `json:"EventItemMatterAttachments"`
	Votes           []RawVote       `json:"EventItemVoteInfo"`
}

// RawAttachment is a matter attachment linked from an event item.
type RawAttachment struct {
	AttachmentID Value `json:"MatterAttachmentId,omitzero"`
	Name         Value `json:"MatterAttachmentName,omitzero"`
	Hyperlink    Value `json:"MatterAttachmentHyperlink,omitzero"`
}

// RawVote is one person's vote on an event item.
type RawVote struct {
	VoteID        Value      `json:"VoteId,omitzero"`
	VoteValueName Value      `json:"VoteValueName,omitzero"`
	VotePersonID  Value      `json:"VotePersonId,omitzero"`
	Person        *RawPerson `json:"PersonInfo,omitempty"`
}

// RawPerson is the person record attached to a vote.
type RawPerson struct {
	PersonID Value `json:"PersonId,omitzero"`
	FullName Value `json:"PersonFullName,omitzero"`
	Email    Value `json:"PersonEmail,omitzero"`
	Phone    Value `json:"PersonPhone,omitzero"`
	Website  Value `json:"PersonWWW,omitzero"`
}

// DisplayName returns the matter name when set, else the title.
// ok is false when neither is usable.
func (i RawEventItem) DisplayName() (string, bool) {
	if i.MatterName.Truthy() {
		return i.MatterName.Text()
	}
	return i.Title.Text()
}

// Matter returns the matter name when set, else the matter file.
func (i RawEventItem) Matter() Value {
	if i.MatterName.Truthy() {
		return i.MatterName
	}
	return i.MatterFile
}

// DisplayNames lists the display name of every item, in order. Items with
// neither a matter name nor a title contribute an empty string.
func (e *RawEvent) DisplayNames() []string {
	out := make([]string, 0, len(e.Items))
	for i := range e.Items {
		name, _ := e.Items[i].DisplayName()
		out = append(out, name)
	}
	return out
}

// Clone returns a deep copy of the event. Nothing in the copy shares memory
// with e.
func (e *RawEvent) Clone() RawEvent {
	out := RawEvent{
		EventID:     e.EventID.Clone(),
		EventDate:   e.EventDate.Clone(),
		EventTime:   e.EventTime.Clone(),
		AgendaFile:  e.AgendaFile.Clone(),
		MinutesFile: e.MinutesFile.Clone(),
		BodyName:    e.BodyName.Clone(),
		InSiteURL:   e.InSiteURL.Clone(),
	}
	if e.Items != nil {
		out.Items = make([]RawEventItem, len(e.Items))
		for i := range e.Items {
			out.Items[i] = e.Items[i].clone()
		}
	}
	return out
}

func (i *RawEventItem) clone() RawEventItem {
	out := RawEventItem{
		EventItemID:     i.EventItemID.Clone(),
		MatterName:      i.MatterName.Clone(),
		Title:           i.Title.Clone(),
		MatterFile:      i.MatterFile.Clone(),
		MinutesSequence: i.MinutesSequence.Clone(),
		PassedFlagName:  i.PassedFlagName.Clone(),
	}
	if i.Attachments != nil {
		out.Attachments = make([]RawAttachment, len(i.Attachments))
		for k, a := range i.Attachments {
			out.Attachments[k] = RawAttachment{
				AttachmentID: a.AttachmentID.Clone(),
				Name:         a.Name.Clone(),
				Hyperlink:    a.Hyperlink.Clone(),
			}
		}
	}
	if i.Votes != nil {
		out.Votes = make([]RawVote, len(i.Votes))
		for k, v := range i.Votes {
			vote := RawVote{
				VoteID:        v.VoteID.Clone(),
				VoteValueName: v.VoteValueName.Clone(),
				VotePersonID:  v.VotePersonID.Clone(),
			}
			if v.Person != nil {
				vote.Person = &RawPerson{
					PersonID: v.Person.PersonID.Clone(),
					FullName: v.Person.FullName.Clone(),
					Email:    v.Person.Email.Clone(),
					Phone:    v.Person.Phone.Clone(),
					Website:  v.Person.Website.Clone(),
				}
			}
			out.Votes[k] = vote
		}
	}
	return out
}

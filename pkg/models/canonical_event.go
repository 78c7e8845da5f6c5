package models

import "time"

// CanonicalEvent is the storage-ready form of one Legistar event.
type CanonicalEvent struct {
	LegistarEventID   int           `json:"legistar_event_id"`
	LegistarEventLink *string       `json:"legistar_event_link"`
	AgendaFileURI     *string       `json:"agenda_file_uri"`
	MinutesFileURI    *string       `json:"minutes_file_uri"`
	Body              string        `json:"body"`
	EventDatetime     time.Time     `json:"event_datetime"`
	MinutesItems      []MinutesItem `json:"minutes_items"`
}

// MinutesItem is one non-ignored event item.
type MinutesItem struct {
	LegistarEventItemID int          `json:"legistar_event_item_id"`
	Name                string       `json:"name"`
	Matter              *string      `json:"matter"`
	Index               int          `json:"index"`
	Decision            *string      `json:"decision"`
	Votes               []Vote       `json:"votes"`
	Attachments         []Attachment `json:"attachments"`
}

// Vote is a single recorded vote on a minutes item.
type Vote struct {
	LegistarEventItemVoteID int     `json:"legistar_event_item_vote_id"`
	Decision                *string `json:"decision"`
	Person                  Person  `json:"person"`
}

// Person identifies the voter.
type Person struct {
	LegistarPersonID int     `json:"legistar_person_id"`
	FullName         *string `json:"full_name"`
	Email            *string `json:"email"`
	Phone            *string `json:"phone"`
	Website          *string `json:"website"`
}

// Attachment is a document linked from a minutes item.
type Attachment struct {
	LegistarMatterAttachmentID int     `json:"legistar_matter_attachment_id"`
	Name                       *string `json:"name"`
	URI                        *string `json:"uri"`
}

package models

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ISO8601 is the layout dates are written with in properties.json
const ISO8601 = "2006-01-02T15:04:05"

// ArchiveMeta is the validated top-level identity of a campaign archive
type ArchiveMeta struct {
	ID           uuid.UUID
	GameSystemID string
	Name         string
	Description  string
	Author       string
	CreationDate *time.Time
	RevisionDate *time.Time
	ISBN         string

	// LastSeenPath is where the archive was last loaded from. Set by the
	// loader, never read from or written to properties.json.
	LastSeenPath string
}

// Validate checks if the archive metadata has its required fields
func (m *ArchiveMeta) Validate() error {
	if m.ID == uuid.Nil {
		return errors.New("id is required")
	}
	if m.GameSystemID == "" {
		return errors.New("game_system_id is required")
	}
	return nil
}

// properties mirrors the on-disk properties.json field set
type properties struct {
	ID           string  `json:"id"`
	GameSystemID string  `json:"game_system_id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Author       string  `json:"author"`
	CreationDate *string `json:"creation_date,omitempty"`
	RevisionDate *string `json:"revision_date,omitempty"`
	ISBN         string  `json:"isbn"`
}

// MarshalJSON encodes the properties.json field set. LastSeenPath is omitted.
func (m ArchiveMeta) MarshalJSON() ([]byte, error) {
	p := properties{
		ID:           m.ID.String(),
		GameSystemID: m.GameSystemID,
		Name:         m.Name,
		Description:  m.Description,
		Author:       m.Author,
		CreationDate: formatDate(m.CreationDate),
		RevisionDate: formatDate(m.RevisionDate),
		ISBN:         m.ISBN,
	}
	return json.Marshal(p)
}

// Equal reports whether two records carry the same field values
func (m *ArchiveMeta) Equal(o *ArchiveMeta) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.ID == o.ID &&
		m.GameSystemID == o.GameSystemID &&
		m.Name == o.Name &&
		m.Description == o.Description &&
		m.Author == o.Author &&
		m.ISBN == o.ISBN &&
		m.LastSeenPath == o.LastSeenPath &&
		sameTime(m.CreationDate, o.CreationDate) &&
		sameTime(m.RevisionDate, o.RevisionDate)
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	layout := ISO8601
	if t.Nanosecond() != 0 {
		layout = ISO8601 + ".999999999"
	}
	var s string
	if t.Location() == time.UTC {
		s = t.Format(layout)
	} else {
		s = t.Format(layout + "Z07:00")
	}
	return &s
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

package model

import "strings"

// Tag maps an RFID tag uuid to a participant.
type Tag struct {
	UUID  string  `json:"uuid"`
	Name  string  `json:"name"`
	Color *string `json:"color"`
}

// Normalize trims the uuid and name, and clears a blank color.
func (t *Tag) Normalize() {
	t.UUID = strings.TrimSpace(t.UUID)
	t.Name = strings.TrimSpace(t.Name)
	if t.Color != nil && strings.TrimSpace(*t.Color) == "" {
		t.Color = nil
	}
}

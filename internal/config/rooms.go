package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// capacitySeparator splits a display label from its capacity suffix,
// e.g. "Room Balam · 9 people".
const capacitySeparator = " · "

// Room is one bookable room resource.
type Room struct {
	Key        string `yaml:"key"`
	CalendarID string `yaml:"calendar_id"`
	Label      string `yaml:"label"`
}

// ShortLabel returns the display label without the capacity suffix, the
// form used in event titles and chat messages.
func (r Room) ShortLabel() string {
	if label, _, found := strings.Cut(r.Label, capacitySeparator); found {
		return label
	}
	return r.Label
}

// Catalog is the immutable room table plus the chat notification roster.
// It is built once at startup and passed by reference into each component.
type Catalog struct {
	rooms        []Room
	byKey        map[string]Room
	byCalendarID map[string]Room
	overrides    map[string]string
}

type catalogFile struct {
	Rooms             []Room            `yaml:"rooms"`
	ChatUserOverrides map[string]string `yaml:"chat_user_overrides"`
}

// LoadCatalog reads the room catalogue from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read room catalogue: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse room catalogue: %w", err)
	}
	return NewCatalog(file.Rooms, file.ChatUserOverrides)
}

// NewCatalog validates and indexes the room table.
func NewCatalog(rooms []Room, overrides map[string]string) (*Catalog, error) {
	if len(rooms) == 0 {
		return nil, fmt.Errorf("room catalogue is empty")
	}

	catalog := &Catalog{
		rooms:        make([]Room, 0, len(rooms)),
		byKey:        make(map[string]Room, len(rooms)),
		byCalendarID: make(map[string]Room, len(rooms)),
		overrides:    make(map[string]string, len(overrides)),
	}

	for _, room := range rooms {
		room.Key = strings.TrimSpace(room.Key)
		room.CalendarID = strings.TrimSpace(room.CalendarID)
		if room.Key == "" || room.CalendarID == "" {
			return nil, fmt.Errorf("room entries require key and calendar_id")
		}
		if room.Label == "" {
			room.Label = room.Key
		}
		if _, exists := catalog.byKey[room.Key]; exists {
			return nil, fmt.Errorf("duplicate room key %q", room.Key)
		}
		catalog.rooms = append(catalog.rooms, room)
		catalog.byKey[room.Key] = room
		catalog.byCalendarID[room.CalendarID] = room
	}

	for email, userID := range overrides {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" || userID == "" {
			continue
		}
		catalog.overrides[email] = userID
	}

	return catalog, nil
}

// Rooms returns the catalogue in file order.
func (c *Catalog) Rooms() []Room {
	out := make([]Room, len(c.rooms))
	copy(out, c.rooms)
	return out
}

// Room looks up a room by its key.
func (c *Catalog) Room(key string) (Room, bool) {
	room, ok := c.byKey[key]
	return room, ok
}

// RoomByCalendarID looks up a room by its calendar identity.
func (c *Catalog) RoomByCalendarID(calendarID string) (Room, bool) {
	room, ok := c.byCalendarID[calendarID]
	return room, ok
}

// CalendarIDs returns every room calendar identity, in catalogue order.
func (c *Catalog) CalendarIDs() []string {
	ids := make([]string, 0, len(c.rooms))
	for _, room := range c.rooms {
		ids = append(ids, room.CalendarID)
	}
	return ids
}

// IsRoomResource reports whether the email identifies one of the room
// calendars rather than a human.
func (c *Catalog) IsRoomResource(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	if _, ok := c.RoomByCalendarID(email); ok {
		return true
	}
	_, ok := c.RoomByCalendarID(strings.ToLower(email))
	return ok
}

// UserOverrides returns a copy of the email-to-chat-user-id table.
func (c *Catalog) UserOverrides() map[string]string {
	out := make(map[string]string, len(c.overrides))
	for email, userID := range c.overrides {
		out[email] = userID
	}
	return out
}

// ChatUserID returns the configured chat user id for an email, if any.
func (c *Catalog) ChatUserID(email string) (string, bool) {
	userID, ok := c.overrides[strings.ToLower(strings.TrimSpace(email))]
	return userID, ok
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MenuSet lists the dishes served for each meal of one day.
type MenuSet struct {
	Breakfast []string `json:"breakfast"`
	Lunch     []string `json:"lunch"`
	HighTea   []string `json:"highTea"`
	Dinner    []string `json:"dinner"`
}

// EmptyMenuSet returns a set with empty (not nil) item lists so the wire
// shape stays stable for clients.
func EmptyMenuSet() MenuSet {
	return MenuSet{
		Breakfast: []string{},
		Lunch:     []string{},
		HighTea:   []string{},
		Dinner:    []string{},
	}
}

// Value implements driver.Valuer for JSONB storage.
func (m MenuSet) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (m *MenuSet) Scan(src interface{}) error {
	if src == nil {
		*m = MenuSet{}
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("menu set: unsupported scan type %T", src)
	}
	return json.Unmarshal(raw, m)
}

// DailyMenu is a date-specific menu override for a mess. One row per
// (mess, date), enforced by a unique index.
type DailyMenu struct {
	ID        string    `db:"id" json:"id"`
	MessID    string    `db:"mess_id" json:"mess_id"`
	Date      time.Time `db:"date" json:"date"`
	Items     MenuSet   `db:"items" json:"items"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// WeekTemplate maps lowercase weekday names to their menu sets.
type WeekTemplate map[string]MenuSet

// Value implements driver.Valuer for JSONB storage.
func (w WeekTemplate) Value() (driver.Value, error) {
	if w == nil {
		return nil, nil
	}
	return json.Marshal(w)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (w *WeekTemplate) Scan(src interface{}) error {
	if src == nil {
		*w = nil
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("week template: unsupported scan type %T", src)
	}
	return json.Unmarshal(raw, w)
}

// WeeklyMenu is the repeating menu template for a mess, one row per mess.
type WeeklyMenu struct {
	ID        string       `db:"id" json:"id"`
	MessID    string       `db:"mess_id" json:"mess_id"`
	Days      WeekTemplate `db:"days" json:"days"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// WeekdayKey returns the lowercase weekday name used as a WeekTemplate key.
func WeekdayKey(t time.Time) string {
	switch t.Weekday() {
	case time.Sunday:
		return "sunday"
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	default:
		return "saturday"
	}
}

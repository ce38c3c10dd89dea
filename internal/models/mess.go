package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MealType identifies one of the four daily meals.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealHighTea   MealType = "highTea"
	MealDinner    MealType = "dinner"
)

// MealTypes lists every meal in serving order.
var MealTypes = []MealType{MealBreakfast, MealLunch, MealHighTea, MealDinner}

// Valid returns true when the meal type is a supported value.
func (m MealType) Valid() bool {
	switch m {
	case MealBreakfast, MealLunch, MealHighTea, MealDinner:
		return true
	default:
		return false
	}
}

// NormalizeMealType maps wire aliases onto canonical meal keys. The mobile
// client historically sends "hightea" for the high tea slot.
func NormalizeMealType(raw string) MealType {
	if raw == "hightea" {
		return MealHighTea
	}
	return MealType(raw)
}

// MealWindow describes one meal's serving window and the request deadline.
// Times are free-form "HH:MM" wall-clock strings; they are stored verbatim
// without validation, matching the permissive behaviour of the clients.
type MealWindow struct {
	ServingStart    string `json:"servingStart"`
	ServingEnd      string `json:"servingEnd"`
	RequestDeadline string `json:"requestDeadline"`
}

// MealTimings maps each meal type to its window. Stored as a single JSONB
// column on the messes table and always replaced wholesale.
type MealTimings map[MealType]MealWindow

// Value implements driver.Valuer for JSONB storage.
func (t MealTimings) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (t *MealTimings) Scan(src interface{}) error {
	if src == nil {
		*t = nil
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("meal timings: unsupported scan type %T", src)
	}
	return json.Unmarshal(raw, t)
}

// Window returns the configured window for a meal, if any.
func (t MealTimings) Window(meal MealType) (MealWindow, bool) {
	if t == nil {
		return MealWindow{}, false
	}
	w, ok := t[meal]
	return w, ok
}

// DefaultMealTimings returns the windows seeded when a mess is created.
func DefaultMealTimings() MealTimings {
	return MealTimings{
		MealBreakfast: {ServingStart: "07:30", ServingEnd: "09:30", RequestDeadline: "07:00"},
		MealLunch:     {ServingStart: "12:00", ServingEnd: "14:00", RequestDeadline: "11:00"},
		MealHighTea:   {ServingStart: "17:00", ServingEnd: "18:00", RequestDeadline: "16:00"},
		MealDinner:    {ServingStart: "19:30", ServingEnd: "21:30", RequestDeadline: "19:00"},
	}
}

// Mess is the dining-hall organizational unit: one manager, many students.
type Mess struct {
	ID          string      `db:"id" json:"id"`
	Name        string      `db:"name" json:"name"`
	MessCode    string      `db:"mess_code" json:"mess_code"`
	ManagerID   string      `db:"manager_id" json:"manager_id"`
	Location    *string     `db:"location" json:"location,omitempty"`
	MealTimings MealTimings `db:"meal_timings" json:"meal_timings,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

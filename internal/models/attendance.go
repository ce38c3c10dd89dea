package models

import (
	"fmt"
	"time"
)

// Attendance holds one student's per-day meal opt-in flags. At most one row
// exists per (student, date); the pair carries a unique index. Rows are
// created lazily on first write with every meal defaulting to opted-in.
type Attendance struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	MessID         string    `db:"mess_id" json:"mess_id"`
	Date           time.Time `db:"date" json:"date"`
	Breakfast      bool      `db:"breakfast" json:"breakfast"`
	Lunch          bool      `db:"lunch" json:"lunch"`
	HighTea        bool      `db:"high_tea" json:"highTea"`
	Dinner         bool      `db:"dinner" json:"dinner"`
	LastModifiedAt time.Time `db:"last_modified_at" json:"last_modified_at"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// SetMeal flips a single meal's opt-in flag.
func (a *Attendance) SetMeal(meal MealType, status bool) error {
	switch meal {
	case MealBreakfast:
		a.Breakfast = status
	case MealLunch:
		a.Lunch = status
	case MealHighTea:
		a.HighTea = status
	case MealDinner:
		a.Dinner = status
	default:
		return fmt.Errorf("unknown meal type %q", meal)
	}
	return nil
}

// MealFlags carries the four opt-in booleans on their own, used when a read
// finds no stored record and the all-true defaults apply.
type MealFlags struct {
	Breakfast bool `json:"breakfast"`
	Lunch     bool `json:"lunch"`
	HighTea   bool `json:"highTea"`
	Dinner    bool `json:"dinner"`
}

// DefaultMealFlags returns the opted-in-everywhere default.
func DefaultMealFlags() MealFlags {
	return MealFlags{Breakfast: true, Lunch: true, HighTea: true, Dinner: true}
}

// MealOptOuts aggregates opt-out counts for one mess and day.
type MealOptOuts struct {
	Breakfast int `db:"breakfast_opt_out"`
	Lunch     int `db:"lunch_opt_out"`
	HighTea   int `db:"high_tea_opt_out"`
	Dinner    int `db:"dinner_opt_out"`
}

// MessMealStats reports the expected head count per meal for a mess and day.
type MessMealStats struct {
	Breakfast     int `json:"breakfast"`
	Lunch         int `json:"lunch"`
	HighTea       int `json:"highTea"`
	Dinner        int `json:"dinner"`
	TotalStudents int `json:"totalStudents"`
}

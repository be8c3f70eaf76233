package meals

import (
	"fmt"
	"strings"
	"time"
)

// MealSlot is one of the three independently tracked meals.
type MealSlot string

const (
	Breakfast MealSlot = "breakfast"
	Lunch     MealSlot = "lunch"
	Dinner    MealSlot = "dinner"
)

// Slots lists every meal slot in serving order.
var Slots = []MealSlot{Breakfast, Lunch, Dinner}

// ParseMealSlot accepts a slot name in any case.
func ParseMealSlot(s string) (MealSlot, error) {
	switch MealSlot(strings.ToLower(strings.TrimSpace(s))) {
	case Breakfast:
		return Breakfast, nil
	case Lunch:
		return Lunch, nil
	case Dinner:
		return Dinner, nil
	}
	return "", fmt.Errorf("unknown meal slot %q", s)
}

// Participant is the identity and attendance record of one attendee.
type Participant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Mobile    string    `json:"mobile"`
	TeamName  string    `json:"team_name"`
	Token     string    `json:"qr_code"`
	Breakfast bool      `json:"breakfast"`
	Lunch     bool      `json:"lunch"`
	Dinner    bool      `json:"dinner"`
	CreatedAt time.Time `json:"created_at"`
}

// Served reports whether the given slot has been marked.
func (p Participant) Served(slot MealSlot) bool {
	switch slot {
	case Breakfast:
		return p.Breakfast
	case Lunch:
		return p.Lunch
	case Dinner:
		return p.Dinner
	}
	return false
}

func (p *Participant) markSlot(slot MealSlot) {
	switch slot {
	case Breakfast:
		p.Breakfast = true
	case Lunch:
		p.Lunch = true
	case Dinner:
		p.Dinner = true
	}
}

// RawInput is one candidate row of a bulk import, before validation.
type RawInput struct {
	Name     string `json:"name"`
	TeamName string `json:"team_name"`
	Mobile   string `json:"mobile"`
	Email    string `json:"email,omitempty"`
}

// Draft is a validated candidate that still lacks id, token and timestamps.
type Draft struct {
	Name     string
	TeamName string
	Mobile   string
	Email    *string
}

// Admin is an operator allowed to import, scan and export.
type Admin struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Stats is recomputed from the registry on every call.
type Stats struct {
	Total     int `json:"total"`
	Breakfast int `json:"breakfast"`
	Lunch     int `json:"lunch"`
	Dinner    int `json:"dinner"`
}

// Outcome is the result of a ledger mark attempt.
type Outcome int

const (
	OutcomeMarked Outcome = iota + 1
	OutcomeAlreadyServed
	OutcomeParticipantNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMarked:
		return "marked"
	case OutcomeAlreadyServed:
		return "already_served"
	case OutcomeParticipantNotFound:
		return "participant_not_found"
	}
	return "unknown"
}

// MobileKey normalises a mobile number into the dedup key.
func MobileKey(mobile string) string {
	return strings.ToLower(strings.TrimSpace(mobile))
}

package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Attendance string

const (
	AttendanceYes Attendance = "yes"
	AttendanceNo  Attendance = "no"
)

func (a Attendance) Valid() bool {
	return a == AttendanceYes || a == AttendanceNo
}

// RSVPResponse is one guest's stored reply. ID and CreatedAt are set by the store.
type RSVPResponse struct {
	bun.BaseModel `bun:"table:rsvp_responses"`

	ID         string     `bun:"id,pk" json:"id"`
	Name       string     `bun:"name,notnull" json:"name"`
	Email      string     `bun:"email,nullzero" json:"email"`
	Attendance Attendance `bun:"attendance,notnull" json:"attendance"`
	Guests     int        `bun:"guests,notnull" json:"guests"`
	Message    string     `bun:"message,nullzero" json:"message"`
	CreatedAt  time.Time  `bun:"created_at,notnull" json:"createdAt"`
}

type RSVPRequest struct {
	Name       string     `json:"name"`
	Email      string     `json:"email,omitempty"`
	Attendance Attendance `json:"attendance"`
	Guests     GuestCount `json:"guests"`
	Message    string     `json:"message,omitempty"`
}

type RSVPSubmitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

type RSVPListResponse struct {
	Success   bool           `json:"success"`
	Responses []RSVPResponse `json:"responses"`
}

type Stats struct {
	Total        int `json:"total"`
	Attending    int `json:"attending"`
	NotAttending int `json:"notAttending"`
	TotalGuests  int `json:"totalGuests"`
}

type StatsResponse struct {
	Success bool  `json:"success"`
	Stats   Stats `json:"stats"`
}

// RSVPSubmittedEvent is published after a response has been persisted.
type RSVPSubmittedEvent struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Attendance Attendance `json:"attendance"`
	Guests     int        `json:"guests"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func NewRSVPSubmittedEvent(r RSVPResponse) RSVPSubmittedEvent {
	return RSVPSubmittedEvent{
		ID:         r.ID,
		Name:       r.Name,
		Attendance: r.Attendance,
		Guests:     r.Guests,
		CreatedAt:  r.CreatedAt,
	}
}

package rsvp

import "ms-rsvp/internal/models"

// Aggregate derives the admin counters. Only attending responses add to
// TotalGuests.
func Aggregate(responses []models.RSVPResponse) models.Stats {
	var s models.Stats
	for _, r := range responses {
		s.Total++
		switch r.Attendance {
		case models.AttendanceYes:
			s.Attending++
			s.TotalGuests += r.Guests
		case models.AttendanceNo:
			s.NotAttending++
		}
	}
	return s
}

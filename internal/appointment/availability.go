package appointment

import (
	"context"
)

// AvailableHours lists the configured hours on date that are neither booked
// nor, when date is today, already past. Past dates are not filtered by time.
func (s *Service) AvailableHours(ctx context.Context, date string) ([]string, error) {
	day, err := s.parseDate(date)
	if err != nil {
		return nil, err
	}

	booked, err := s.appointmentsOnDay(ctx, day)
	if err != nil {
		return nil, err
	}

	bookedHours := make([]string, 0, len(booked))
	for _, a := range booked {
		bookedHours = append(bookedHours, a.Start.In(s.loc).Format(HourLayout))
	}

	now := s.now().In(s.loc)
	currentHour := ""
	if day.Format(DateLayout) == now.Format(DateLayout) {
		currentHour = now.Format(HourLayout)
	}

	return availableHours(s.hours, bookedHours, currentHour), nil
}

// availableHours removes, for each booked hour, the first matching entry of
// valid, then every entry <= currentHour when currentHour is set. Booked hours
// that are not configured are ignored. Order of valid is preserved.
func availableHours(valid, booked []string, currentHour string) []string {
	taken := make([]bool, len(valid))

	for _, b := range booked {
		for i, h := range valid {
			if !taken[i] && h == b {
				taken[i] = true
				break
			}
		}
	}

	if currentHour != "" {
		// HH:MM:SS compares correctly as a string
		for i, h := range valid {
			if h <= currentHour {
				taken[i] = true
			}
		}
	}

	out := make([]string, 0, len(valid))
	for i, h := range valid {
		if !taken[i] {
			out = append(out, h)
		}
	}
	return out
}

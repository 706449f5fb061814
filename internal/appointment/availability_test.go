package appointment

import (
	"context"
	"errors"
	"testing"
	"time"
)

var threeHours = []string{"09:00:00", "10:00:00", "11:00:00"}

func TestAvailableHours_Filtering(t *testing.T) {
	tests := []struct {
		name        string
		booked      []string
		currentHour string
		want        []string
	}{
		{"nothing booked", nil, "", threeHours},
		{"booked slot removed", []string{"10:00:00"}, "", []string{"09:00:00", "11:00:00"}},
		{"unconfigured booking ignored", []string{"10:30:00"}, "", threeHours},
		{"past hours removed today", nil, "09:30:00", []string{"10:00:00", "11:00:00"}},
		{"slot starting now is unavailable", nil, "10:00:00", []string{"11:00:00"}},
		{"booked and past combined", []string{"11:00:00"}, "09:00:01", []string{"10:00:00"}},
		{"everything past", nil, "23:59:59", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := availableHours(threeHours, tt.booked, tt.currentHour)
			assertHours(t, got, tt.want)
		})
	}
}

func TestAvailableHours_DuplicateBookingRemovesOneEntryEach(t *testing.T) {
	valid := []string{"09:00:00", "09:00:00", "10:00:00"}
	got := availableHours(valid, []string{"09:00:00"}, "")
	assertHours(t, got, []string{"09:00:00", "10:00:00"})
}

func TestAvailableHours_DoesNotMutateConfiguration(t *testing.T) {
	valid := []string{"09:00:00", "10:00:00"}
	_ = availableHours(valid, []string{"09:00:00"}, "09:30:00")
	if valid[0] != "09:00:00" || valid[1] != "10:00:00" {
		t.Fatalf("configuration mutated: %v", valid)
	}
}

func TestServiceAvailableHours_BookedSlotOnOtherDay(t *testing.T) {
	repo := newMemRepo()
	repo.put(Appointment{Name: "a", Email: "a@example.com", Start: at("2024-06-01 10:00:00")})
	svc := newTestService(repo, threeHours, at("2024-07-15 08:00:00"))

	got, err := svc.AvailableHours(context.Background(), "2024-06-01")
	if err != nil {
		t.Fatalf("AvailableHours error: %v", err)
	}
	assertHours(t, got, []string{"09:00:00", "11:00:00"})
}

func TestServiceAvailableHours_TodayDropsPastHours(t *testing.T) {
	svc := newTestService(newMemRepo(), threeHours, at("2024-06-01 09:30:00"))

	got, err := svc.AvailableHours(context.Background(), "2024-06-01")
	if err != nil {
		t.Fatalf("AvailableHours error: %v", err)
	}
	assertHours(t, got, []string{"10:00:00", "11:00:00"})
}

func TestServiceAvailableHours_PastDateIsNotTimeFiltered(t *testing.T) {
	svc := newTestService(newMemRepo(), threeHours, at("2024-06-02 12:00:00"))

	got, err := svc.AvailableHours(context.Background(), "2024-06-01")
	if err != nil {
		t.Fatalf("AvailableHours error: %v", err)
	}
	assertHours(t, got, threeHours)
}

func TestServiceAvailableHours_UsesServiceTimeZone(t *testing.T) {
	repo := newMemRepo()
	loc := time.FixedZone("UTC+3", 3*60*60)
	// 07:00 UTC is 10:00 in UTC+3
	repo.put(Appointment{Name: "a", Email: "a@example.com", Start: time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC)})

	svc := newTestServiceIn(repo, threeHours, loc, time.Date(2024, 5, 1, 0, 0, 0, 0, loc))

	got, err := svc.AvailableHours(context.Background(), "2024-06-01")
	if err != nil {
		t.Fatalf("AvailableHours error: %v", err)
	}
	assertHours(t, got, []string{"09:00:00", "11:00:00"})
}

func TestServiceAvailableHours_RejectsBadDate(t *testing.T) {
	svc := newTestService(newMemRepo(), threeHours, at("2024-06-01 09:30:00"))

	_, err := svc.AvailableHours(context.Background(), "06/01/2024")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	if _, ok := vErr.Fields["date"]; !ok {
		t.Fatalf("fields = %v, want date", vErr.Fields)
	}
}

func assertHours(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("hours = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("hours = %v, want %v", got, want)
		}
	}
}

package dispatch

import (
	"fmt"
	"testing"
	"time"

	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/config"
)

func TestHoursWithin(t *testing.T) {
	h := NewHours(config.HoursConfig{
		WeekdayStart: "08:00",
		WeekdayEnd:   "18:00",
		Saturday:     true,
		SaturdayEnd:  "12:00",
		Sunday:       false,
	})

	// 2026-08-24 is a Monday.
	at := func(day int, clock string) time.Time {
		parsed, err := time.Parse("2006-01-02 15:04", fmt.Sprintf("2026-08-%02d %s", day, clock))
		if err != nil {
			t.Fatal(err)
		}
		return parsed
	}

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"monday mid-morning", at(24, "10:30"), true},
		{"monday before opening", at(24, "07:59"), false},
		{"monday after closing", at(24, "18:01"), false},
		{"saturday morning", at(29, "09:00"), true},
		{"saturday afternoon past saturday end", at(29, "14:00"), false},
		{"sunday any time", at(30, "10:00"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.Within(tt.t); got != tt.want {
				t.Errorf("Within(%s %s) = %v, want %v", tt.t.Weekday(), tt.t.Format("15:04"), got, tt.want)
			}
		})
	}
}

func TestHoursSaturdayDisabled(t *testing.T) {
	h := NewHours(config.HoursConfig{WeekdayStart: "08:00", WeekdayEnd: "18:00", Saturday: false})
	saturday, _ := time.Parse("2006-01-02 15:04", "2026-08-29 09:00")
	if h.Within(saturday) {
		t.Error("saturday should be outside hours when disabled")
	}
}

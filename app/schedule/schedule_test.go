package schedule

import (
	"testing"
)

func TestReminderDate(t *testing.T) {
	date, ok := ReminderDate("20/05/2025")
	if !ok {
		t.Fatal("Expected valid reminder date")
	}
	if date != "16/05/2025" {
		t.Errorf("Expected reminder date '16/05/2025', got: %s", date)
	}
}

func TestReminderDateAcrossMonthBoundary(t *testing.T) {
	date, ok := ReminderDate("02/06/2025")
	if !ok {
		t.Fatal("Expected valid reminder date")
	}
	if date != "29/05/2025" {
		t.Errorf("Expected reminder date '29/05/2025', got: %s", date)
	}
}

func TestReminderDateInvalid(t *testing.T) {
	cases := []string{"", "not-a-date", "2025-05-20", "32/01/2025"}

	for _, input := range cases {
		if _, ok := ReminderDate(input); ok {
			t.Errorf("Expected %q to be rejected", input)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	days, ok := DaysBetween("01/01/2025", "16/05/2025")
	if !ok {
		t.Fatal("Expected valid day count")
	}
	if days != 135 {
		t.Errorf("Expected 135 days, got: %d", days)
	}
}

func TestDaysBetweenIgnoresTimePart(t *testing.T) {
	days, ok := DaysBetween("12/05/2025 14:33:08", "16/05/2025")
	if !ok {
		t.Fatal("Expected valid day count")
	}
	if days != 4 {
		t.Errorf("Expected 4 days, got: %d", days)
	}
}

func TestDaysBetweenInvalid(t *testing.T) {
	if _, ok := DaysBetween("garbage", "16/05/2025"); ok {
		t.Error("Expected invalid inclusion date to be rejected")
	}
	if _, ok := DaysBetween("12/05/2025", "garbage"); ok {
		t.Error("Expected invalid target date to be rejected")
	}
}

func TestDecidePathBoundary(t *testing.T) {
	// Four days or fewer between inclusion and reminder date means the
	// initial confirmation is pointless: go straight to the reminder.
	if got := DecidePath(4, true); got != PathReminderOnly {
		t.Errorf("Expected PathReminderOnly at 4 days, got: %s", got)
	}
	if got := DecidePath(5, true); got != PathInitial {
		t.Errorf("Expected PathInitial at 5 days, got: %s", got)
	}
	if got := DecidePath(0, true); got != PathReminderOnly {
		t.Errorf("Expected PathReminderOnly at 0 days, got: %s", got)
	}
	if got := DecidePath(-1, true); got != PathReminderOnly {
		t.Errorf("Expected PathReminderOnly at -1 days, got: %s", got)
	}
}

func TestDecidePathParseFailureFallsBackToInitial(t *testing.T) {
	if got := DecidePath(0, false); got != PathInitial {
		t.Errorf("Expected PathInitial on parse failure, got: %s", got)
	}
}

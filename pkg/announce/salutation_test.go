package announce

import (
	"testing"
	"time"
)

func atHour(hour int) time.Time {
	return time.Date(2024, 3, 10, hour, 30, 0, 0, time.Local)
}

func TestSalutationConfig_Select(t *testing.T) {
	c := DefaultSalutationConfig()

	cases := []struct {
		hour  int
		intro string
	}{
		{0, "Good night."},
		{4, "Good night."},
		{5, "Good morning."},
		{11, "Good morning."},
		{12, "Good afternoon."},
		{16, "Good afternoon."},
		{17, "Good evening."},
		{20, "Good evening."},
		{21, "Good night."},
		{23, "Good night."},
	}

	for _, tc := range cases {
		intro, _ := c.Select(atHour(tc.hour))
		if intro != tc.intro {
			t.Errorf("hour %d: expected %q, got %q", tc.hour, tc.intro, intro)
		}
	}
}

func TestSalutationConfig_SelectOutro(t *testing.T) {
	c := DefaultSalutationConfig()

	_, outro := c.Select(atHour(8))
	if outro != "Have a great morning." {
		t.Errorf("unexpected outro: %q", outro)
	}
}

func TestSalutationConfig_ValidateChain(t *testing.T) {
	c := DefaultSalutationConfig()
	if verr := c.Validate(); verr != nil {
		t.Errorf("default config must validate, got %v", verr)
	}

	c.EveningStart = 11 // breaks afternoon < evening
	verr := c.Validate()
	if verr == nil {
		t.Fatal("expected validation error for broken chain")
	}
	if len(verr) != 4 {
		t.Errorf("expected all four boundary fields flagged, got %v", verr)
	}
}

func TestSalutationConfig_ValidateEqualBoundaries(t *testing.T) {
	c := DefaultSalutationConfig()
	c.AfternoonStart = c.MorningStart

	if c.Validate() == nil {
		t.Error("equal boundaries must fail the strictly-increasing chain")
	}
}

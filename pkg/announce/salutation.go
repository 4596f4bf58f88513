package announce

import "time"

// Salutation validation field names.
const (
	FieldMorningStart   = "morning_start"
	FieldAfternoonStart = "afternoon_start"
	FieldEveningStart   = "evening_start"
	FieldNightStart     = "night_start"
)

// SalutationConfig holds the per-device settings for a salutation
// device: four hour boundaries splitting the day into buckets, and an
// intro/outro message pair per bucket.
type SalutationConfig struct {
	MorningStart   int `json:"morning_start"`
	AfternoonStart int `json:"afternoon_start"`
	EveningStart   int `json:"evening_start"`
	NightStart     int `json:"night_start"`

	MorningIn    string `json:"morning_in"`
	MorningOut   string `json:"morning_out"`
	AfternoonIn  string `json:"afternoon_in"`
	AfternoonOut string `json:"afternoon_out"`
	EveningIn    string `json:"evening_in"`
	EveningOut   string `json:"evening_out"`
	NightIn      string `json:"night_in"`
	NightOut     string `json:"night_out"`
}

// DefaultSalutationConfig returns the stock boundaries and messages.
func DefaultSalutationConfig() SalutationConfig {
	return SalutationConfig{
		MorningStart:   5,
		AfternoonStart: 12,
		EveningStart:   17,
		NightStart:     21,
		MorningIn:      "Good morning.",
		MorningOut:     "Have a great morning.",
		AfternoonIn:    "Good afternoon.",
		AfternoonOut:   "Have a great afternoon.",
		EveningIn:      "Good evening.",
		EveningOut:     "Have a great evening.",
		NightIn:        "Good night.",
		NightOut:       "Have a great night.",
	}
}

// Validate enforces that the hour boundaries form a strictly increasing
// chain. All four fields are flagged together because the chain is a
// single constraint.
func (c SalutationConfig) Validate() ValidationError {
	if c.MorningStart < c.AfternoonStart &&
		c.AfternoonStart < c.EveningStart &&
		c.EveningStart < c.NightStart {
		return nil
	}

	fields := ValidationError{}
	for _, key := range []string{FieldMorningStart, FieldAfternoonStart, FieldEveningStart, FieldNightStart} {
		fields[key] = "Each start time must be greater than the prior one."
	}
	return fields
}

// Select returns the intro and outro messages for the bucket containing
// now. Hours before morning-start and at or after night-start fall in
// the night bucket.
func (c SalutationConfig) Select(now time.Time) (intro, outro string) {
	hour := now.Hour()

	switch {
	case hour >= c.MorningStart && hour < c.AfternoonStart:
		return c.MorningIn, c.MorningOut
	case hour >= c.AfternoonStart && hour < c.EveningStart:
		return c.AfternoonIn, c.AfternoonOut
	case hour >= c.EveningStart && hour < c.NightStart:
		return c.EveningIn, c.EveningOut
	default:
		return c.NightIn, c.NightOut
	}
}

package announce

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validation field names, shared with the API layer.
const (
	FieldName    = "name"
	FieldText    = "text"
	FieldRefresh = "refresh_minutes"
)

// ValidateRecord checks the user-supplied fields for a new or edited
// announcement. It returns the parsed refresh interval and, if any
// fields are bad, a ValidationError keyed by field name. Refresh is
// accepted as free text because it arrives from a form field.
func ValidateRecord(name, text, refresh string) (float64, ValidationError) {
	fields := ValidationError{}

	name = strings.TrimSpace(name)
	first, _ := utf8.DecodeRuneInString(name)
	switch {
	case name == "":
		fields[FieldName] = "An announcement name is required."
	case unicode.IsDigit(first):
		fields[FieldName] = "The announcement name cannot start with a number."
	case unicode.IsPunct(first) || unicode.IsSymbol(first):
		fields[FieldName] = "The announcement name cannot start with punctuation."
	case strings.HasPrefix(strings.ToLower(name), "xml"):
		fields[FieldName] = "The announcement name cannot start with the letters 'xml'."
	}

	if strings.TrimSpace(text) == "" {
		fields[FieldText] = "An announcement is required."
	}

	minutes, err := strconv.ParseFloat(strings.TrimSpace(refresh), 64)
	if err != nil {
		fields[FieldRefresh] = "The refresh interval must be a numeric value greater than zero."
	} else if minutes <= 0 {
		fields[FieldRefresh] = "The refresh interval must be a number greater than zero."
	}

	if len(fields) > 0 {
		return 0, fields
	}
	return minutes, nil
}

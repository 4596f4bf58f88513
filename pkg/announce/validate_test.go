package announce

import "testing"

func TestValidateRecord_Valid(t *testing.T) {
	minutes, verr := ValidateRecord("Morning weather", "Temp is <<72.3, n:1>>", "15")
	if verr != nil {
		t.Fatalf("expected valid record, got: %v", verr)
	}
	if minutes != 15 {
		t.Errorf("expected 15 minutes, got %v", minutes)
	}
}

func TestValidateRecord_MultibyteLeadingRune(t *testing.T) {
	// The whole leading rune is classified, not its first byte.
	if _, verr := ValidateRecord("étage humidity", "hello", "5"); verr != nil {
		t.Errorf("expected accented letter to be accepted, got: %v", verr)
	}
	_, verr := ValidateRecord("«quoted»", "hello", "5")
	if verr == nil {
		t.Fatal("expected multibyte leading punctuation to be rejected")
	}
	if _, ok := verr[FieldName]; !ok {
		t.Errorf("expected error keyed by %q, got %v", FieldName, verr)
	}
}

func TestValidateRecord_Rejections(t *testing.T) {
	cases := []struct {
		label   string
		name    string
		text    string
		refresh string
		field   string
	}{
		{"empty name", "", "hello", "5", FieldName},
		{"whitespace name", "   ", "hello", "5", FieldName},
		{"leading digit", "123abc", "hello", "5", FieldName},
		{"leading punctuation", "!abc", "hello", "5", FieldName},
		{"xml prefix", "xmlFoo", "hello", "5", FieldName},
		{"xml prefix uppercase", "XMLFoo", "hello", "5", FieldName},
		{"empty text", "abc", "", "5", FieldText},
		{"zero refresh", "abc", "hello", "0", FieldRefresh},
		{"negative refresh", "abc", "hello", "-5", FieldRefresh},
		{"non-numeric refresh", "abc", "hello", "abc", FieldRefresh},
	}

	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			_, verr := ValidateRecord(tc.name, tc.text, tc.refresh)
			if verr == nil {
				t.Fatal("expected validation error")
			}
			if _, ok := verr[tc.field]; !ok {
				t.Errorf("expected error keyed by %q, got %v", tc.field, verr)
			}
		})
	}
}

func TestValidateRecord_MultipleFields(t *testing.T) {
	_, verr := ValidateRecord("", "", "abc")
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if len(verr) != 3 {
		t.Errorf("expected all three fields flagged, got %v", verr)
	}
}

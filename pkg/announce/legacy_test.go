package announce

import "testing"

func TestParseLegacy_Nested(t *testing.T) {
	src := `{12: {34: {'Name': 'A', 'Announcement': 'text one', 'Refresh': '5', 'nextRefresh': '2020-01-01 00:00:00'},
	             56: {'Name': 'B', 'Announcement': "text two", 'Refresh': '2.5', 'nextRefresh': ''}}}`

	col, err := parseLegacy([]byte(src))
	if err != nil {
		t.Fatal(err)
	}

	if len(col[12]) != 2 {
		t.Fatalf("expected two records, got %d", len(col[12]))
	}
	if col[12][34].Name != "A" || col[12][34].RefreshMinutes != 5 {
		t.Errorf("unexpected record: %+v", col[12][34])
	}
	if col[12][56].Text != "text two" || col[12][56].RefreshMinutes != 2.5 {
		t.Errorf("unexpected record: %+v", col[12][56])
	}
}

func TestParseLegacy_EmptyDict(t *testing.T) {
	col, err := parseLegacy([]byte(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(col) != 0 {
		t.Errorf("expected empty collection, got %v", col)
	}
}

func TestParseLegacy_EmptyGroup(t *testing.T) {
	col, err := parseLegacy([]byte(`{99: {}}`))
	if err != nil {
		t.Fatal(err)
	}
	group, ok := col[99]
	if !ok || len(group) != 0 {
		t.Errorf("expected empty group for device 99, got %v", col)
	}
}

func TestParseLegacy_Escapes(t *testing.T) {
	src := `{1: {2: {'Name': 'With quote', 'Announcement': 'It\'s here', 'Refresh': '1', 'nextRefresh': ''}}}`

	col, err := parseLegacy([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if col[1][2].Text != "It's here" {
		t.Errorf("escape not handled: %q", col[1][2].Text)
	}
}

func TestParseLegacy_Garbage(t *testing.T) {
	for _, src := range []string{"", "not a dict", "{1: }", "{1: {2: 'x'} extra"} {
		if _, err := parseLegacy([]byte(src)); err == nil {
			t.Errorf("expected parse error for %q", src)
		}
	}
}

package announce

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "announcements.txt"))
	if err := s.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)

	id, err := s.Create(ctx, 100, "Morning weather", "Temp is <<72.3, n:1>>", "15")
	if err != nil {
		t.Fatal(err)
	}

	rec, err := s.Get(ctx, 100, id)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Name != "Morning weather" || rec.RefreshMinutes != 15 {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.StateKey() != "Morning_weather" {
		t.Errorf("unexpected state key: %q", rec.StateKey())
	}
	if _, ok := rec.DueAt(); !ok {
		t.Error("expected nextRefresh to be seeded with a parsable timestamp")
	}
}

func TestStore_CreateRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)

	_, err := s.Create(ctx, 100, "", "hello", "5")
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	col, err := s.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(col[100]) != 0 {
		t.Error("failed validation must not create a record")
	}
}

func TestStore_UniqueIDs(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)

	seen := map[int64]bool{}
	for i := 0; i < 25; i++ {
		id, err := s.Create(ctx, 7, "Item "+string(rune('A'+i)), "text", "5")
		if err != nil {
			t.Fatal(err)
		}
		if seen[id] {
			t.Fatalf("duplicate id assigned: %d", id)
		}
		seen[id] = true
	}
}

func TestStore_DuplicateNameRenamed(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)

	if _, err := s.Create(ctx, 1, "Weather", "a", "5"); err != nil {
		t.Fatal(err)
	}
	id2, err := s.Create(ctx, 1, "Weather", "b", "5")
	if err != nil {
		t.Fatalf("duplicate name must not fail: %v", err)
	}

	rec, err := s.Get(ctx, 1, id2)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Name != "Weather X" {
		t.Errorf("expected disambiguated name, got %q", rec.Name)
	}
}

func TestStore_Duplicate(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)

	id, err := s.Create(ctx, 1, "Weather", "text", "5")
	if err != nil {
		t.Fatal(err)
	}
	orig, _ := s.Get(ctx, 1, id)

	dupID, err := s.Duplicate(ctx, 1, id)
	if err != nil {
		t.Fatal(err)
	}
	if dupID == id {
		t.Fatal("duplicate must get a new id")
	}

	dup, err := s.Get(ctx, 1, dupID)
	if err != nil {
		t.Fatal(err)
	}
	if dup.Name != "Weather copy" {
		t.Errorf("expected copy suffix, got %q", dup.Name)
	}
	if dup.Text != orig.Text || dup.RefreshMinutes != orig.RefreshMinutes || dup.NextRefresh != orig.NextRefresh {
		t.Errorf("duplicate must carry fields verbatim: %+v vs %+v", dup, orig)
	}
}

func TestStore_EditLeavesNextRefresh(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)

	id, err := s.Create(ctx, 1, "Weather", "text", "5")
	if err != nil {
		t.Fatal(err)
	}
	before, _ := s.Get(ctx, 1, id)

	if err := s.Edit(ctx, 1, id, "Weather report", "new text", "30"); err != nil {
		t.Fatal(err)
	}

	after, _ := s.Get(ctx, 1, id)
	if after.Name != "Weather report" || after.Text != "new text" || after.RefreshMinutes != 30 {
		t.Errorf("edit not applied: %+v", after)
	}
	if after.NextRefresh != before.NextRefresh {
		t.Error("edit must not touch nextRefresh")
	}
}

func TestStore_DeleteNotFound(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)

	if _, err := s.Create(ctx, 1, "Weather", "text", "5"); err != nil {
		t.Fatal(err)
	}

	err := s.Delete(ctx, 1, 424242)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	err = s.Delete(ctx, 99, 424242)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing group, got %v", err)
	}

	col, _ := s.All(ctx)
	if len(col[1]) != 1 {
		t.Error("failed delete must leave store unmodified")
	}
}

func TestStore_Reconcile(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)

	if _, err := s.Create(ctx, 1, "Keep", "text", "5"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(ctx, 2, "Drop", "text", "5"); err != nil {
		t.Fatal(err)
	}

	if err := s.Reconcile(ctx, []int64{1, 3}); err != nil {
		t.Fatal(err)
	}

	col, err := s.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := col[2]; ok {
		t.Error("group for removed device must be dropped")
	}
	if group, ok := col[3]; !ok || len(group) != 0 {
		t.Error("empty group must be seeded for new device")
	}
	if len(col[1]) != 1 {
		t.Error("existing group must survive reconcile")
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)

	if _, err := s.Create(ctx, 5, "One", "first <<1.5, n:0>>", "10"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(ctx, 5, "Two", "second", "2.5"); err != nil {
		t.Fatal(err)
	}

	before, err := s.All(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// Re-open the same file with a fresh store object.
	reopened := NewStore(s.Path())
	after, err := reopened.All(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(before, after) {
		t.Errorf("round trip mismatch:\nbefore: %+v\nafter:  %+v", before, after)
	}
}

func TestStore_LegacyMigration(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "announcements.txt")

	legacy := `{123456: {987: {'Name': 'Morning weather', 'Announcement': 'It\'s <<72.3, n:0>> degrees', 'Refresh': '15', 'nextRefresh': '2021-06-10 07:00:00'}}}`
	if err := os.WriteFile(path, []byte(legacy), 0600); err != nil {
		t.Fatal(err)
	}

	s := NewStore(path)
	col, err := s.All(ctx)
	if err != nil {
		t.Fatal(err)
	}

	rec := col[123456][987]
	if rec == nil {
		t.Fatal("legacy record not loaded")
	}
	if rec.Name != "Morning weather" || rec.Text != "It's <<72.3, n:0>> degrees" || rec.RefreshMinutes != 15 {
		t.Errorf("unexpected migrated record: %+v", rec)
	}

	// The file must now be canonical JSON.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"Announcement"`) {
		t.Errorf("expected canonical rewrite, file still reads: %s", data)
	}
}

func TestStore_CorruptFileIsFatal(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "announcements.txt")

	garbage := []byte("!!! definitely not a store !!!")
	if err := os.WriteFile(path, garbage, 0600); err != nil {
		t.Fatal(err)
	}

	s := NewStore(path)
	_, err := s.All(ctx)
	if !errors.Is(err, ErrStoreCorrupt) {
		t.Fatalf("expected ErrStoreCorrupt, got %v", err)
	}

	// The original file must be left untouched.
	data, _ := os.ReadFile(path)
	if string(data) != string(garbage) {
		t.Error("corrupt file must not be rewritten")
	}
}

func TestStore_InitDoesNotClobber(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)

	if _, err := s.Create(ctx, 1, "Weather", "text", "5"); err != nil {
		t.Fatal(err)
	}
	if err := s.Init(ctx); err != nil {
		t.Fatal(err)
	}

	col, _ := s.All(ctx)
	if len(col[1]) != 1 {
		t.Error("Init must not clobber an existing store")
	}
}

func TestRecord_DueAtFallback(t *testing.T) {
	rec := &Record{NextRefresh: "not a timestamp"}
	if _, ok := rec.DueAt(); ok {
		t.Error("unparsable nextRefresh must report not-ok")
	}

	rec = &Record{NextRefresh: time.Now().Format(NextRefreshLayout)}
	if _, ok := rec.DueAt(); !ok {
		t.Error("valid nextRefresh must parse")
	}
}

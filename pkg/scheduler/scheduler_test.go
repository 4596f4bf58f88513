package scheduler

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urmzd/announce/pkg/announce"
	"github.com/urmzd/announce/pkg/db"
	"github.com/urmzd/announce/pkg/template"
)

type fakeDevices struct {
	devices []*db.Device
}

func (f *fakeDevices) List(ctx context.Context, profileID int64) ([]*db.Device, error) {
	return f.devices, nil
}

type fakeStates struct {
	values map[string]string
}

func (f *fakeStates) Get(ctx context.Context, deviceID int64, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", db.ErrStateNotFound
	}
	return v, nil
}

type fakeResolver struct{}

func (fakeResolver) Resolve(ctx context.Context, text string) string {
	return strings.ReplaceAll(text, "%%v:1%%", "72.3")
}

type published struct {
	deviceID int64
	stateKey string
	value    string
}

type fakePublisher struct {
	calls []published
}

func (f *fakePublisher) Publish(ctx context.Context, deviceID int64, stateKey, value string) error {
	f.calls = append(f.calls, published{deviceID, stateKey, value})
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testScheduler(t *testing.T, now time.Time, devices []*db.Device, states map[string]string) (*Scheduler, *announce.Store, *fakePublisher) {
	t.Helper()

	store := announce.NewStore(filepath.Join(t.TempDir(), "announcements.json"),
		announce.WithStoreClock(fixedClock(now)))
	if err := store.Init(context.Background()); err != nil {
		t.Fatal(err)
	}

	pub := &fakePublisher{}
	engine := template.NewEngine(template.WithClock(fixedClock(now)))
	s := New(store, &fakeDevices{devices: devices}, &fakeStates{values: states},
		fakeResolver{}, engine, pub, 1, WithClock(fixedClock(now)))
	return s, store, pub
}

func announcementDevice(id int64) *db.Device {
	return &db.Device{ID: id, ProfileID: 1, Type: db.DeviceTypeAnnouncements, Enabled: true}
}

func TestTick_DueRecordPublishesAndAdvances(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local)
	s, store, pub := testScheduler(t, now, []*db.Device{announcementDevice(10)}, nil)

	// Created with nextRefresh = now, so it is immediately due.
	id, err := store.Create(ctx, 10, "Morning weather", "Temp is <<%%v:1%%, n:1>> degrees", "10")
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Tick(ctx, false); err != nil {
		t.Fatal(err)
	}

	if len(pub.calls) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(pub.calls))
	}
	got := pub.calls[0]
	if got.deviceID != 10 || got.stateKey != "Morning_weather" {
		t.Errorf("published to %d/%s", got.deviceID, got.stateKey)
	}
	if got.value != "Temp is 72.3 degrees" {
		t.Errorf("published value %q", got.value)
	}

	rec, err := store.Get(ctx, 10, id)
	if err != nil {
		t.Fatal(err)
	}
	want := now.Add(10 * time.Minute).Format(announce.NextRefreshLayout)
	if rec.NextRefresh != want {
		t.Errorf("nextRefresh = %q, want %q", rec.NextRefresh, want)
	}
}

func TestTick_NotDueIsSkipped(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local)
	s, store, pub := testScheduler(t, now, []*db.Device{announcementDevice(10)}, nil)

	id, err := store.Create(ctx, 10, "Weather", "hi", "10")
	if err != nil {
		t.Fatal(err)
	}
	future := now.Add(time.Hour).Format(announce.NextRefreshLayout)
	if err := store.Mutate(ctx, func(col announce.Collection) error {
		col[10][id].NextRefresh = future
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	if err := s.Tick(ctx, false); err != nil {
		t.Fatal(err)
	}
	if len(pub.calls) != 0 {
		t.Fatalf("expected no publishes, got %d", len(pub.calls))
	}
}

func TestTick_ForceRendersWithoutAdvancing(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local)
	s, store, pub := testScheduler(t, now, []*db.Device{announcementDevice(10)}, nil)

	id, err := store.Create(ctx, 10, "Weather", "hi", "10")
	if err != nil {
		t.Fatal(err)
	}
	future := now.Add(time.Hour).Format(announce.NextRefreshLayout)
	if err := store.Mutate(ctx, func(col announce.Collection) error {
		col[10][id].NextRefresh = future
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	if err := s.Tick(ctx, true); err != nil {
		t.Fatal(err)
	}

	if len(pub.calls) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(pub.calls))
	}
	rec, err := store.Get(ctx, 10, id)
	if err != nil {
		t.Fatal(err)
	}
	if rec.NextRefresh != future {
		t.Errorf("force changed nextRefresh to %q, want %q", rec.NextRefresh, future)
	}
}

func TestTick_BadTimestampTreatedAsDue(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local)
	s, store, pub := testScheduler(t, now, []*db.Device{announcementDevice(10)}, nil)

	id, err := store.Create(ctx, 10, "Weather", "hi", "5")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Mutate(ctx, func(col announce.Collection) error {
		col[10][id].NextRefresh = "not a timestamp"
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	if err := s.Tick(ctx, false); err != nil {
		t.Fatal(err)
	}

	if len(pub.calls) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(pub.calls))
	}
	rec, err := store.Get(ctx, 10, id)
	if err != nil {
		t.Fatal(err)
	}
	want := now.Add(5 * time.Minute).Format(announce.NextRefreshLayout)
	if rec.NextRefresh != want {
		t.Errorf("nextRefresh = %q, want %q", rec.NextRefresh, want)
	}
}

func TestTick_DisabledDeviceSkipped(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local)
	dev := announcementDevice(10)
	dev.Enabled = false
	s, store, pub := testScheduler(t, now, []*db.Device{dev}, nil)

	if _, err := store.Create(ctx, 10, "Weather", "hi", "10"); err != nil {
		t.Fatal(err)
	}
	if err := s.Tick(ctx, false); err != nil {
		t.Fatal(err)
	}
	if len(pub.calls) != 0 {
		t.Fatalf("expected no publishes for disabled device, got %d", len(pub.calls))
	}
}

func TestTick_SalutationsPublishOnChangeOnly(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local) // morning bucket
	dev := &db.Device{ID: 20, ProfileID: 1, Type: db.DeviceTypeSalutations, Enabled: true}

	// Intro already current, outro stale.
	states := map[string]string{
		"intro": "Good morning.",
		"outro": "Have a great night.",
	}
	s, _, pub := testScheduler(t, now, []*db.Device{dev}, states)

	if err := s.Tick(ctx, false); err != nil {
		t.Fatal(err)
	}

	if len(pub.calls) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(pub.calls))
	}
	got := pub.calls[0]
	if got.stateKey != "outro" || got.value != "Have a great morning." {
		t.Errorf("published %s=%q", got.stateKey, got.value)
	}
}

func TestTick_SalutationsCustomConfig(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 23, 0, 0, 0, time.Local)

	cfg := announce.DefaultSalutationConfig()
	cfg.NightIn = "Sleep well."
	raw, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	dev := &db.Device{ID: 20, ProfileID: 1, Type: db.DeviceTypeSalutations, Enabled: true, Config: raw}

	s, _, pub := testScheduler(t, now, []*db.Device{dev}, nil)
	if err := s.Tick(ctx, false); err != nil {
		t.Fatal(err)
	}

	var intro string
	for _, c := range pub.calls {
		if c.stateKey == "intro" {
			intro = c.value
		}
	}
	if intro != "Sleep well." {
		t.Errorf("intro = %q, want %q", intro, "Sleep well.")
	}
}

func TestRefreshOne(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local)
	s, store, pub := testScheduler(t, now, []*db.Device{announcementDevice(10)}, nil)

	id, err := store.Create(ctx, 10, "Morning weather", "Temp is <<%%v:1%%, n:0>>", "10")
	if err != nil {
		t.Fatal(err)
	}
	future := now.Add(time.Hour).Format(announce.NextRefreshLayout)
	if err := store.Mutate(ctx, func(col announce.Collection) error {
		col[10][id].NextRefresh = future
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	result, err := s.RefreshOne(ctx, 10, "Morning_weather")
	if err != nil {
		t.Fatal(err)
	}
	if result != "Temp is 72" {
		t.Errorf("result = %q", result)
	}
	if len(pub.calls) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(pub.calls))
	}

	rec, err := store.Get(ctx, 10, id)
	if err != nil {
		t.Fatal(err)
	}
	if rec.NextRefresh != future {
		t.Errorf("RefreshOne changed nextRefresh to %q", rec.NextRefresh)
	}
}

func TestRefreshOne_Unknown(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local)
	s, _, _ := testScheduler(t, now, []*db.Device{announcementDevice(10)}, nil)

	if _, err := s.RefreshOne(ctx, 10, "No_such_state"); err == nil {
		t.Fatal("expected error for unknown announcement")
	}
}

func TestSalutationConfigFor_BadConfigFallsBack(t *testing.T) {
	dev := &db.Device{ID: 1, Config: json.RawMessage(`{broken`)}
	got := SalutationConfigFor(dev)
	if got != announce.DefaultSalutationConfig() {
		t.Errorf("expected defaults for broken config, got %+v", got)
	}
}

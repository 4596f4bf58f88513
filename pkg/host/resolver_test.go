package host

import (
	"context"
	"testing"

	"github.com/urmzd/announce/pkg/db"
)

type fakeStates map[string]string

func (f fakeStates) Set(ctx context.Context, deviceID int64, key, value string) error { return nil }
func (f fakeStates) Get(ctx context.Context, deviceID int64, key string) (string, error) {
	if v, ok := f[key]; ok {
		return v, nil
	}
	return "", db.ErrStateNotFound
}
func (f fakeStates) List(ctx context.Context, deviceID int64) ([]db.State, error) { return nil, nil }
func (f fakeStates) DeleteForDevice(ctx context.Context, deviceID int64) error    { return nil }

type fakeVars map[int64]string

func (f fakeVars) Get(ctx context.Context, id int64) (*db.Variable, error) {
	if v, ok := f[id]; ok {
		return &db.Variable{ID: id, Value: v}, nil
	}
	return nil, db.ErrVariableNotFound
}
func (f fakeVars) GetByName(ctx context.Context, name string) (*db.Variable, error) {
	return nil, db.ErrVariableNotFound
}
func (f fakeVars) List(ctx context.Context) ([]*db.Variable, error) { return nil, nil }
func (f fakeVars) Set(ctx context.Context, name, value string) (*db.Variable, error) {
	return nil, nil
}
func (f fakeVars) Delete(ctx context.Context, id int64) error { return nil }

func TestResolve_DeviceAndVariable(t *testing.T) {
	r := NewResolver(
		fakeStates{"temperature": "72.3"},
		fakeVars{42: "kitchen"},
	)

	got := r.Resolve(context.Background(), "The %%v:42%% is %%d:7:temperature%% degrees")
	want := "The kitchen is 72.3 degrees"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestResolve_UnknownMarkersLeftVerbatim(t *testing.T) {
	r := NewResolver(fakeStates{}, fakeVars{})

	text := "missing %%d:1:nope%% and %%v:99%%"
	if got := r.Resolve(context.Background(), text); got != text {
		t.Errorf("expected markers left verbatim, got %q", got)
	}
}

func TestResolve_NoMarkers(t *testing.T) {
	r := NewResolver(fakeStates{}, fakeVars{})

	text := "plain text with <<72.3, n:1>> token"
	if got := r.Resolve(context.Background(), text); got != text {
		t.Errorf("text without markers must pass through, got %q", got)
	}
}

func TestMarker(t *testing.T) {
	if got := Marker(7, "temperature"); got != "%%d:7:temperature%%" {
		t.Errorf("unexpected device marker: %q", got)
	}
	if got := Marker(42, ""); got != "%%v:42%%" {
		t.Errorf("unexpected variable marker: %q", got)
	}
}

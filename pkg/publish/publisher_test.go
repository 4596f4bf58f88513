package publish

import (
	"context"
	"errors"
	"testing"
)

type recording struct {
	calls []string
	fail  bool
}

func (r *recording) Publish(ctx context.Context, deviceID int64, stateKey, value string) error {
	if r.fail {
		return errors.New("sink down")
	}
	r.calls = append(r.calls, stateKey+"="+value)
	return nil
}

func TestMulti_FansOut(t *testing.T) {
	a := &recording{}
	b := &recording{}

	m := Multi{a, b}
	if err := m.Publish(context.Background(), 1, "intro", "Good morning."); err != nil {
		t.Fatal(err)
	}

	if len(a.calls) != 1 || len(b.calls) != 1 {
		t.Errorf("expected both sinks called: %v / %v", a.calls, b.calls)
	}
}

func TestMulti_FailureDoesNotStopOthers(t *testing.T) {
	bad := &recording{fail: true}
	good := &recording{}

	m := Multi{bad, good}
	if err := m.Publish(context.Background(), 1, "intro", "x"); err != nil {
		t.Fatalf("multi publish must swallow sink errors, got %v", err)
	}
	if len(good.calls) != 1 {
		t.Error("remaining sink must still be called")
	}
}

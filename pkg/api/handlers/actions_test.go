package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/announce/pkg/announce"
	apitypes "github.com/urmzd/announce/pkg/api/types"
	"github.com/urmzd/announce/pkg/db"
	"github.com/urmzd/announce/pkg/scheduler"
	"github.com/urmzd/announce/pkg/speech"
	"github.com/urmzd/announce/pkg/template"
)

type recordingVars struct {
	values map[string]string
}

func (r *recordingVars) Get(ctx context.Context, id int64) (*db.Variable, error) {
	return nil, db.ErrVariableNotFound
}
func (r *recordingVars) GetByName(ctx context.Context, name string) (*db.Variable, error) {
	return nil, db.ErrVariableNotFound
}
func (r *recordingVars) List(ctx context.Context) ([]*db.Variable, error) { return nil, nil }
func (r *recordingVars) Set(ctx context.Context, name, value string) (*db.Variable, error) {
	if r.values == nil {
		r.values = map[string]string{}
	}
	r.values[name] = value
	return &db.Variable{Name: name, Value: value}, nil
}
func (r *recordingVars) Delete(ctx context.Context, id int64) error { return nil }

type passthroughResolver struct{}

func (passthroughResolver) Resolve(ctx context.Context, text string) string { return text }

func speakRouter(t *testing.T) (*gin.Engine, *announce.Store, *recordingVars) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := announce.NewStore(filepath.Join(t.TempDir(), "announcements.json"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatal(err)
	}

	sched := scheduler.New(store, nil, nil, passthroughResolver{}, template.NewEngine(), nil, 1)
	vars := &recordingVars{}
	h := NewActionsHandler(store, sched, speech.Noop{}, vars)

	r := gin.New()
	r.POST("/actions/speak", h.Speak)
	return r, store, vars
}

func TestSpeak_StoresRenderedText(t *testing.T) {
	r, _, vars := speakRouter(t)

	w := doJSON(t, r, http.MethodPost, "/actions/speak", apitypes.SpeakRequest{
		Text: "Currently <<72.3, n:1>> degrees",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp apitypes.SpeakResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	want := "Currently 72.3 degrees"
	if resp.Spoken != want {
		t.Errorf("spoken = %q, want %q", resp.Spoken, want)
	}

	// The saved variable holds the rendered text, not the template.
	if got := vars.values["spoken_announcement_raw"]; got != want {
		t.Errorf("variable = %q, want %q", got, want)
	}
}

func TestSpeak_StoredAnnouncement(t *testing.T) {
	r, store, vars := speakRouter(t)
	ctx := context.Background()

	id, err := store.Create(ctx, 10, "Weather", "It is <<55, n:0>> out", "5")
	if err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, r, http.MethodPost, "/actions/speak", apitypes.SpeakRequest{
		DeviceID:       10,
		AnnouncementID: id,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	want := "It is 55 out"
	if got := vars.values["spoken_announcement_raw"]; got != want {
		t.Errorf("variable = %q, want %q", got, want)
	}
}

func TestSpeak_RequiresTextOrAnnouncement(t *testing.T) {
	r, _, _ := speakRouter(t)

	w := doJSON(t, r, http.MethodPost, "/actions/speak", apitypes.SpeakRequest{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

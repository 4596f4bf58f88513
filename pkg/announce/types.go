// Package announce implements the announcement record collection: the
// per-device announcement store, its validation rules, and the on-disk
// persistence format including the legacy migration path.
package announce

import (
	"strconv"
	"strings"
	"time"
)

// NextRefreshLayout is the timestamp layout used for the nextRefresh
// field in the persisted store.
const NextRefreshLayout = time.DateTime

// Record is a single user-authored announcement owned by one device.
type Record struct {
	ID             int64
	Name           string
	Text           string
	RefreshMinutes float64
	// NextRefresh is kept as the raw persisted string. A value that fails
	// to parse means the record is treated as overdue, so parsing is
	// deferred to DueAt rather than done at load time.
	NextRefresh string
}

// Collection is the full announcement store grouped by the opaque
// integer device key supplied by the host.
type Collection map[int64]map[int64]*Record

// StateKey returns the key under which the rendered announcement is
// exposed. Spaces are not legal in state keys, so they become
// underscores.
func (r *Record) StateKey() string {
	return strings.ReplaceAll(r.Name, " ", "_")
}

// DueAt returns the instant at which the record becomes due. A missing
// or unparsable nextRefresh yields ok=false; callers treat the record
// as immediately due.
func (r *Record) DueAt() (time.Time, bool) {
	t, err := time.ParseInLocation(NextRefreshLayout, r.NextRefresh, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	return &c
}

// recordJSON is the canonical on-disk shape of a single record. Field
// names match the historical store format so existing files load as-is.
type recordJSON struct {
	Name        string `json:"Name"`
	Text        string `json:"Announcement"`
	Refresh     string `json:"Refresh"`
	NextRefresh string `json:"nextRefresh"`
}

func (r *Record) toJSON() recordJSON {
	return recordJSON{
		Name:        r.Name,
		Text:        r.Text,
		Refresh:     strconv.FormatFloat(r.RefreshMinutes, 'f', -1, 64),
		NextRefresh: r.NextRefresh,
	}
}

func (j recordJSON) toRecord(id int64) *Record {
	// A garbled refresh interval falls back to one minute rather than
	// dropping the record.
	minutes, err := strconv.ParseFloat(strings.TrimSpace(j.Refresh), 64)
	if err != nil || minutes <= 0 {
		minutes = 1
	}
	return &Record{
		ID:             id,
		Name:           j.Name,
		Text:           j.Text,
		RefreshMinutes: minutes,
		NextRefresh:    j.NextRefresh,
	}
}

package announce

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates a referenced device group or record is absent.
	ErrNotFound = errors.New("announcement not found")

	// ErrStoreCorrupt indicates the store file parses as neither the
	// canonical nor the legacy format. The file is left untouched.
	ErrStoreCorrupt = errors.New("announcement store is corrupt")
)

// ValidationError carries one message per offending field so a UI can
// highlight all of them at once.
type ValidationError map[string]string

func (e ValidationError) Error() string {
	fields := make([]string, 0, len(e))
	for k := range e {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, k := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

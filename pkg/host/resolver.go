// Package host bridges announcement text to the plugin registry. It
// resolves %%d:device:state%% and %%v:variable%% substitution markers
// before the text reaches the template engine. The marker syntax is not
// part of the template grammar.
package host

import (
	"context"
	"regexp"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/announce/pkg/db"
)

var (
	devicePattern   = regexp.MustCompile(`%%d:(\d+):([A-Za-z0-9_.]+)%%`)
	variablePattern = regexp.MustCompile(`%%v:(\d+)%%`)
)

// Resolver replaces substitution markers with live registry values.
type Resolver struct {
	states db.StateStore
	vars   db.VariableStore
}

// NewResolver creates a resolver backed by the given registry stores.
func NewResolver(states db.StateStore, vars db.VariableStore) *Resolver {
	return &Resolver{states: states, vars: vars}
}

// Resolve replaces every %%d:device:state%% marker with the device's
// published state value and every %%v:variable%% marker with the
// variable value. Markers that reference unknown devices, states, or
// variables are left verbatim so the rendered announcement shows what
// failed to resolve.
func (r *Resolver) Resolve(ctx context.Context, text string) string {
	text = devicePattern.ReplaceAllStringFunc(text, func(marker string) string {
		groups := devicePattern.FindStringSubmatch(marker)
		deviceID, err := strconv.ParseInt(groups[1], 10, 64)
		if err != nil {
			return marker
		}

		value, err := r.states.Get(ctx, deviceID, groups[2])
		if err != nil {
			log.Warn().Int64("device", deviceID).Str("state", groups[2]).Msg("Unresolvable device substitution")
			return marker
		}
		return value
	})

	return variablePattern.ReplaceAllStringFunc(text, func(marker string) string {
		groups := variablePattern.FindStringSubmatch(marker)
		varID, err := strconv.ParseInt(groups[1], 10, 64)
		if err != nil {
			return marker
		}

		v, err := r.vars.Get(ctx, varID)
		if err != nil {
			log.Warn().Int64("variable", varID).Msg("Unresolvable variable substitution")
			return marker
		}
		return v.Value
	})
}

// Marker builds the substitution marker for a device state or, when
// stateKey is empty, a variable. Used by the marker generator endpoint.
func Marker(id int64, stateKey string) string {
	if stateKey == "" {
		return "%%v:" + strconv.FormatInt(id, 10) + "%%"
	}
	return "%%d:" + strconv.FormatInt(id, 10) + ":" + stateKey + "%%"
}

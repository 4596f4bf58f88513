package template

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/ncruces/go-strftime"
	"github.com/rs/zerolog/log"
)

// Format spec prefixes recognized by the dispatcher.
const (
	prefixCurrentTime = "ct:"
	prefixDatetime    = "dt:"
	prefixNumber      = "n:"
)

// Allowable pattern characters. Anything outside these sets fails the
// formatter and yields a diagnostic string in the rendered output.
const (
	datetimeSpecifiers = ".,%:-aAwdbBmyYHIpMSfzZjUWcxX "
	numericSpecifiers  = "%+-0123456789eEfFgGn"
)

// dispatch routes a matched token to the proper formatter based on the
// format spec prefix. The caller has already stripped the outer token
// delimiters. Unknown prefixes are passed through joined by a space
// rather than treated as an error.
func dispatch(value, spec string, now time.Time) string {
	switch {
	case strings.HasPrefix(spec, prefixCurrentTime):
		return formatCurrentTime(value, spec, now)
	case strings.HasPrefix(spec, prefixDatetime):
		return formatDatetime(value, spec, now)
	case strings.HasPrefix(spec, prefixNumber):
		return formatNumber(value, spec)
	default:
		return value + " " + spec
	}
}

// formatCurrentTime renders the current instant with a strftime pattern.
// The token value is ignored.
func formatCurrentTime(value, spec string, now time.Time) string {
	pattern := strings.TrimPrefix(spec, prefixCurrentTime)

	if !allowed(pattern, datetimeSpecifiers) {
		log.Debug().Str("value", value).Str("pattern", pattern).Msg("Disallowed datetime specifier")
		return fmt.Sprintf("Unallowable datetime specifiers: %s %s", value, pattern)
	}
	return strftime.Format(pattern, now)
}

// formatDatetime parses the token value as a free-form date string and
// renders it with a strftime pattern. The literal value "now" renders
// the current instant.
func formatDatetime(value, spec string, now time.Time) string {
	pattern := strings.TrimPrefix(spec, prefixDatetime)

	if !allowed(pattern, datetimeSpecifiers) {
		log.Debug().Str("value", value).Str("pattern", pattern).Msg("Disallowed datetime specifier")
		return fmt.Sprintf("Unallowable datetime specifiers: %s %s", value, pattern)
	}

	t := now
	if value != "now" {
		parsed, err := dateparse.ParseLocal(value)
		if err != nil {
			log.Debug().Err(err).Str("value", value).Msg("Failed to parse datetime value")
			return fmt.Sprintf("Unallowable datetime specifiers: %s %s", value, pattern)
		}
		t = parsed
	}
	return strftime.Format(pattern, t)
}

// formatNumber renders the token value as a fixed-point number. The
// pattern accepts common numeric format characters but only its integer
// parse matters: it is the number of decimal places.
func formatNumber(value, spec string) string {
	pattern := strings.TrimPrefix(spec, prefixNumber)

	if !allowed(pattern, numericSpecifiers) {
		log.Debug().Str("value", value).Str("pattern", pattern).Msg("Disallowed numeric specifier")
		return fmt.Sprintf("Unallowable numeric specifiers: %s %s", value, pattern)
	}

	precision, err := strconv.Atoi(strings.TrimSpace(pattern))
	if err != nil || precision < 0 {
		log.Debug().Err(err).Str("pattern", pattern).Msg("Failed to parse numeric precision")
		return fmt.Sprintf("Unallowable numeric specifiers: %s %s", value, pattern)
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		log.Debug().Err(err).Str("value", value).Msg("Failed to parse numeric value")
		return fmt.Sprintf("Unallowable numeric specifiers: %s %s", value, pattern)
	}

	return strconv.FormatFloat(f, 'f', precision, 64)
}

// allowed reports whether every rune in pattern is in the given set.
func allowed(pattern, set string) bool {
	for _, r := range pattern {
		if !strings.ContainsRune(set, r) {
			return false
		}
	}
	return true
}

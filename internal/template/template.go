// Package template expands symbolic placeholders inside filename patterns.
package template

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Built-in placeholders, computed once per call.
const (
	Date      = "%date%"
	DateTime  = "%datetime%"
	Timestamp = "%timestamp%"
)

// isoMillis is the UTC timestamp layout used for %datetime%.
const isoMillis = "2006-01-02T15:04:05.000Z"

// Resolve replaces every occurrence of the built-in placeholders and of the
// override keys in pattern. Overrides win when a key collides with a built-in.
// Placeholders that are neither built-in nor overridden are left untouched.
func Resolve(pattern string, overrides map[string]string) string {
	return ResolveAt(time.Now(), pattern, overrides)
}

// ResolveAt is Resolve with an explicit instant.
func ResolveAt(now time.Time, pattern string, overrides map[string]string) string {
	now = now.UTC()
	replacements := map[string]string{
		Date:      now.Format("2006-01-02"),
		DateTime:  now.Format(isoMillis),
		Timestamp: strconv.FormatInt(now.UnixMilli(), 10),
	}
	for k, v := range overrides {
		replacements[k] = v
	}

	// Longest keys first so a key that contains another is replaced whole.
	keys := make([]string, 0, len(replacements))
	for k := range replacements {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, replacements[k])
	}
	return strings.NewReplacer(pairs...).Replace(pattern)
}

package config

import (
	"reflect"
	"strings"
	"unicode"
)

// structKeys returns the yaml key tree of cfg so env keys can be matched
// against it segment by segment.
func structKeys(v any) map[string]any {
	return keysOf(reflect.TypeOf(v))
}

func keysOf(t reflect.Type) map[string]any {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || t.PkgPath() == "time" {
		return nil
	}
	out := make(map[string]any, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.Split(f.Tag.Get("yaml"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		if child := keysOf(f.Type); child != nil {
			out[name] = child
		} else {
			out[name] = nil
		}
	}
	return out
}

// canonicalizeEnvKey turns HTTP_TIMEOUTS_READTIMEOUT into
// http.timeouts.readTimeout by matching each segment against known keys.
// Unknown segments are lowercased.
func canonicalizeEnvKey(rawKey string, known map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := known

	for _, segment := range segments {
		if segment == "" {
			continue
		}
		if matched, next, ok := findSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}
	return strings.Join(canonical, ".")
}

func findSegment(current map[string]any, segment string) (string, map[string]any, bool) {
	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}
		child, _ := value.(map[string]any)
		return key, child, true
	}
	return "", nil, false
}

func normalizeToken(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

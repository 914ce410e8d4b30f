package config

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Options is a free-form map for backend- and parser-specific settings whose
// shape varies by implementation. The typed getters return def when a key is
// absent or cannot be read as the requested type. Values may come from JSON
// (float64), YAML (int) or the environment (string), so each getter accepts
// all of them.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	switch v := o[key].(type) {
	case string:
		return v
	case nil:
		return def
	case bool, int, int64, float64:
		return toString(v)
	}
	return def
}

func toString(v any) string {
	switch n := v.(type) {
	case bool:
		return strconv.FormatBool(n)
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

// Bool returns the bool value for key or def. Strings such as "true" or "0"
// are parsed.
func (o Options) Bool(key string, def bool) bool {
	switch v := o[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def.
func (o Options) Int(key string, def int) int {
	switch n := o[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return def
}

// StringMap returns the string-valued entries of an object at key. It is
// never nil.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	switch m := o[key].(type) {
	case map[string]any:
		for k, v := range m {
			if s, ok := v.(string); ok {
				res[k] = s
			}
		}
	case map[string]string:
		for k, v := range m {
			res[k] = v
		}
	}
	return res
}

// StringSlice returns the strings of an array at key. A plain string is split
// on commas, which is how list values arrive from the environment.
func (o Options) StringSlice(key string) []string {
	switch v := o[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		var out []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Any returns the raw value for key.
func (o Options) Any(key string) any { return o[key] }

// UnmarshalJSON decodes a missing or null object to an empty, non-nil map.
func (o *Options) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	var tmp map[string]any
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

package schema

import (
	"errors"
	"sort"
)

// Validate checks val against the rule for key and returns the text that
// goes after the key in the config file. It performs no I/O.
func Validate(key string, val any) (string, error) {
	if IsForbidden(key) {
		return "", &ValidationError{Key: key, Value: val, Err: ErrForbiddenKey}
	}
	rule, ok := rules[key]
	if !ok {
		return "", &ValidationError{Key: key, Value: val, Err: ErrUnknownKey}
	}
	return rule.Format(key, val)
}

// ValidateAll validates every entry of params in key order. All failures
// are reported together; the returned map is nil when any entry fails.
func ValidateAll(params map[string]any) (map[string]string, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(params))
	var errs []error
	for _, k := range keys {
		text, err := Validate(k, params[k])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[k] = text
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func IsForbidden(key string) bool {
	_, ok := forbidden[key]
	return ok
}

// Lookup returns the rule for key.
func Lookup(key string) (Rule, bool) {
	r, ok := rules[key]
	return r, ok
}

// Keys returns every settable key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(rules))
	for k := range rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ForbiddenKeys returns the deny-list in sorted order.
func ForbiddenKeys() []string {
	keys := make([]string, 0, len(forbidden))
	for k := range forbidden {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

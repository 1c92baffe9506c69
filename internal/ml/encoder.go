package ml

import (
	"fmt"
	"sort"
)

// LabelEncoder maps string labels to the index of their position in the sorted class list.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// FitLabelEncoder collects the sorted unique values.
func FitLabelEncoder(values []string) *LabelEncoder {
	seen := make(map[string]struct{}, len(values))
	classes := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		classes = append(classes, v)
	}
	sort.Strings(classes)
	return &LabelEncoder{Classes: classes}
}

// Lookup returns the code for v and whether v is a known class.
func (e *LabelEncoder) Lookup(v string) (int, bool) {
	i := sort.SearchStrings(e.Classes, v)
	if i < len(e.Classes) && e.Classes[i] == v {
		return i, true
	}
	return 0, false
}

// Transform encodes every value, failing on unseen labels.
func (e *LabelEncoder) Transform(values []string) ([]int, error) {
	out := make([]int, len(values))
	for i, v := range values {
		code, ok := e.Lookup(v)
		if !ok {
			return nil, fmt.Errorf("label encoder: unseen label %q", v)
		}
		out[i] = code
	}
	return out, nil
}

// Inverse returns the class for a code.
func (e *LabelEncoder) Inverse(code int) (string, error) {
	if code < 0 || code >= len(e.Classes) {
		return "", fmt.Errorf("label encoder: code %d out of range", code)
	}
	return e.Classes[code], nil
}

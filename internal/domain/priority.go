package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Priority is the urgency tier assigned to a scored search result. The
// ordering is significant: high > medium > low, and threshold comparisons
// rely on the numeric values.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

var priorityNames = map[Priority]string{
	PriorityLow:    "low",
	PriorityMedium: "medium",
	PriorityHigh:   "high",
}

// ParsePriority parses a priority name ("high", "medium", "low").
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	}
	return PriorityLow, fmt.Errorf("unknown priority %q", s)
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return "low"
}

// AtLeast reports whether p meets the given minimum tier.
func (p Priority) AtLeast(min Priority) bool {
	return p >= min
}

// MarshalJSON encodes the priority as its lowercase name, matching the
// persisted document format.
func (p Priority) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts a priority name; unknown names decode as low so a
// hand-edited queue document cannot fail to load.
func (p *Priority) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePriority(s)
	if err != nil {
		*p = PriorityLow
		return nil
	}
	*p = parsed
	return nil
}

// MarshalYAML encodes the priority as its lowercase name.
func (p Priority) MarshalYAML() (any, error) {
	return p.String(), nil
}

// UnmarshalYAML parses a priority name from config.
func (p *Priority) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParsePriority(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// dayWeekTerm matches a day or week component; no Go duration unit contains
// either letter, so the expansion cannot touch other units.
var dayWeekTerm = regexp.MustCompile(`(\d+(?:\.\d+)?)([dw])`)

// ParseDuration accepts Go duration syntax plus d (24h) and w (7d) units,
// e.g. "15s", "1.5d", "1w2d3h".
func ParseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("duration is required")
	}
	var expandErr error
	expanded := dayWeekTerm.ReplaceAllStringFunc(raw, func(term string) string {
		parts := dayWeekTerm.FindStringSubmatch(term)
		n, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			expandErr = err
			return term
		}
		hours := n * 24
		if parts[2] == "w" {
			hours *= 7
		}
		return strconv.FormatFloat(hours, 'f', -1, 64) + "h"
	})
	if expandErr != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, expandErr)
	}
	d, err := time.ParseDuration(expanded)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return d, nil
}

// Duration is a time.Duration that reads from YAML strings such as "5m".
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("line %d: duration must be a string: %w", value.Line, err)
	}
	parsed, err := ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

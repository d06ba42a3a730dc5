package eligibility

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var floorPattern = regexp.MustCompile(`^\s*([^<>=\s]+)\s*(>=|=)\s*([-+]?[0-9]*\.?[0-9]+)\s*$`)

// ParseFloor parses a floor override such as "G>=50" or "PER=20".
func ParseFloor(input string) (Floor, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Floor{}, fmt.Errorf("floor cannot be empty")
	}

	matches := floorPattern.FindStringSubmatch(input)
	if matches == nil {
		return Floor{}, fmt.Errorf("invalid floor %q. Use 'COLUMN>=VALUE', e.g. 'G>=50'", input)
	}

	minValue, err := strconv.ParseFloat(matches[3], 64)
	if err != nil {
		return Floor{}, fmt.Errorf("invalid floor value %q: %w", matches[3], err)
	}
	if minValue < 0 {
		return Floor{}, fmt.Errorf("floor for %s must not be negative", matches[1])
	}

	return Floor{Column: matches[1], Min: minValue}, nil
}

// ParseFloors parses every override, stopping at the first invalid one
func ParseFloors(inputs []string) ([]Floor, error) {
	floors := make([]Floor, 0, len(inputs))
	for _, in := range inputs {
		fl, err := ParseFloor(in)
		if err != nil {
			return nil, err
		}
		floors = append(floors, fl)
	}
	return floors, nil
}

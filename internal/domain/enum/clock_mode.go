package enum

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ClockMode selects whether a billable unit counts up from zero or down
// from a configured duration.
type ClockMode int

const (
	ClockModeCountUp   ClockMode = 0
	ClockModeCountDown ClockMode = 1
)

func (m ClockMode) String() string {
	names := [...]string{"CountUp", "CountDown"}
	if int(m) < 0 || int(m) >= len(names) {
		return "CountUp"
	}
	return names[m]
}

// Valid reports whether m is one of the declared modes.
func (m ClockMode) Valid() bool {
	return m == ClockModeCountUp || m == ClockModeCountDown
}

func (m ClockMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *ClockMode) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*m = ClockMode(i)
		return nil
	}
	parsed, err := ParseClockMode(str)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseClockMode accepts the marshalled names plus the stopwatch/timer aliases.
func ParseClockMode(s string) (ClockMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "countup", "stopwatch", "":
		return ClockModeCountUp, nil
	case "countdown", "timer":
		return ClockModeCountDown, nil
	}
	return ClockModeCountUp, fmt.Errorf("unknown clock mode %q", s)
}

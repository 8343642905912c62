package schema

import (
	"fmt"
	"strings"
)

// Derivation is one of the built-in rules that compute a skeleton value
// from the first and last turn of a chunk.
type Derivation int

const (
	// DeriveDateSlash yields the first turn's date as YYYY/MM/DD.
	DeriveDateSlash Derivation = iota + 1
	// DeriveTimeRange yields "HH:MM:SS" or "HH:MM:SS-HH:MM:SS".
	DeriveTimeRange
)

var derivationNames = map[string]Derivation{
	"from_first_turn_date_ymd_slash":  DeriveDateSlash,
	"from_first_last_turn_time_range": DeriveTimeRange,
}

// ParseDerivation resolves a rule name from the schema's derived mapping.
func ParseDerivation(name string) (Derivation, error) {
	d, ok := derivationNames[strings.TrimSpace(name)]
	if !ok {
		return 0, fmt.Errorf("%w: unknown derived function: %s", ErrConfiguration, name)
	}
	return d, nil
}

func (d Derivation) String() string {
	for name, v := range derivationNames {
		if v == d {
			return name
		}
	}
	return fmt.Sprintf("derivation(%d)", int(d))
}

// Apply computes the rule over two "YYYY-MM-DD HH:MM:SS" timestamps.
func (d Derivation) Apply(firstTS, lastTS string) string {
	switch d {
	case DeriveDateSlash:
		return dateSlash(firstTS)
	case DeriveTimeRange:
		t1, t2 := timeOf(firstTS), timeOf(lastTS)
		if t2 == "" || t1 == t2 {
			return t1
		}
		return t1 + "-" + t2
	}
	return ""
}

func dateSlash(ts string) string {
	date, _, _ := strings.Cut(ts, " ")
	return strings.ReplaceAll(strings.TrimSpace(date), "-", "/")
}

func timeOf(ts string) string {
	_, t, ok := strings.Cut(ts, " ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(t)
}

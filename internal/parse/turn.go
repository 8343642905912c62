package parse

import "strings"

// Turn is one utterance in a chat transcript. Index is 1-based and
// follows parse order.
type Turn struct {
	Index     int
	Timestamp string // "YYYY-MM-DD HH:MM:SS"
	Speaker   string
	Content   string
}

// Date returns the YYYY-MM-DD part of the timestamp.
func (t Turn) Date() string {
	d, _, _ := strings.Cut(t.Timestamp, " ")
	return d
}

// Time returns the HH:MM:SS part of the timestamp, or "".
func (t Turn) Time() string {
	_, tm, _ := strings.Cut(t.Timestamp, " ")
	return tm
}

package impact

import (
	"strings"

	hammyerrors "hammy/internal/errors"
)

// Direction selects which side of the call graph Analyze walks.
type Direction string

const (
	Callers Direction = "callers"
	Callees Direction = "callees"
	Both    Direction = "both"
)

// ParseDirection accepts callers, callees or both, ignoring case. An empty
// string means Callers.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case "", Callers:
		return Callers, nil
	case Callees:
		return Callees, nil
	case Both:
		return Both, nil
	}
	return "", hammyerrors.Newf(hammyerrors.InvalidArgument, "unknown direction %q (want callers, callees or both)", s)
}

// Usage is one call site of a name.
type Usage struct {
	Caller  string `json:"caller"`
	Type    string `json:"type"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Context string `json:"context"`
}

// Affected is a node reached by an impact walk.
type Affected struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	File string `json:"file"`
	Line int    `json:"line"`
	Hop  int    `json:"hop"`
}

// Result is the outcome of Analyze.
type Result struct {
	Symbol    string     `json:"symbol"`
	Depth     int        `json:"depth"`
	Direction Direction  `json:"direction"`
	Found     bool       `json:"found"`
	Callers   []Affected `json:"callers"`
	Callees   []Affected `json:"callees"`
}

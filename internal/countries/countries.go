// Package countries resolves ISO 3166-1 alpha-2 codes to display names.
// The table is embedded and loaded once; a Lookup is immutable and safe
// to share, so the game transformer can stay a pure function of its
// inputs.
package countries

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed countries.json
var countriesJSON []byte

type Lookup struct {
	names map[string]string
}

func New() (*Lookup, error) {
	names := make(map[string]string)
	if err := json.Unmarshal(countriesJSON, &names); err != nil {
		return nil, fmt.Errorf("failed to parse embedded country table: %w", err)
	}
	return &Lookup{names: names}, nil
}

// NewFromMap builds a Lookup from an explicit table, for tests.
func NewFromMap(names map[string]string) *Lookup {
	m := make(map[string]string, len(names))
	for code, name := range names {
		m[strings.ToLower(code)] = name
	}
	return &Lookup{names: m}
}

// Name resolves a country code. Unknown codes come back upper-cased so
// they still group sensibly; an empty code is "Unknown".
func (l *Lookup) Name(code string) string {
	if code == "" {
		return "Unknown"
	}
	if name, ok := l.names[strings.ToLower(code)]; ok {
		return name
	}
	return strings.ToUpper(code)
}

func (l *Lookup) Len() int {
	return len(l.names)
}

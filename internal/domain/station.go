package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// StationSeparator joins station names in the aggregated line query, so it
// may not appear inside a name.
const StationSeparator = "||"

const MaxStationNameLen = 255

// ValidStationName reports whether name can be stored and read back intact.
func ValidStationName(name string) bool {
	return strings.TrimSpace(name) != "" &&
		utf8.RuneCountInString(name) <= MaxStationNameLen &&
		!strings.Contains(name, StationSeparator)
}

type Station struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	AltName       *string `json:"alt_name"`
	Description   *string `json:"description"`
	Type          *string `json:"type"`
	Status        *string `json:"status"`
	PlatformCount *int    `json:"platform_count"`
	Symbol        *string `json:"symbol"`
	ImagePath     *string `json:"image_path"`
}

// LineStation is a station as seen from a line, with its position.
type LineStation struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	AltName *string `json:"alt_name"`
	Order   int     `json:"station_order"`
}

// StationLine is a line as seen from a station.
type StationLine struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Color       Color      `json:"color"`
	Status      LineStatus `json:"status"`
	Type        LineType   `json:"type"`
	Operator    string     `json:"operator_name"`
	OperatorUID string     `json:"operator_uid"`
}

type StationRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type StationStatistics struct {
	StationName    string           `json:"station_name"`
	StationID      int64            `json:"station_id"`
	TotalLines     int              `json:"total_lines"`
	LinesByType    map[LineType]int `json:"lines_by_type"`
	OperatorsCount int              `json:"operators_count"`
	Operators      []string         `json:"operators"`
	Lines          []LineSummary    `json:"lines"`
}

type LineSummary struct {
	Name  string `json:"name"`
	Color Color  `json:"color"`
}

// StationUpdate lists the mutable station columns. Nil fields are skipped.
type StationUpdate struct {
	Name          *string  `json:"name"`
	AltName       *string  `json:"alt_name"`
	Description   *string  `json:"description"`
	Type          *string  `json:"type"`
	Status        *string  `json:"status"`
	PlatformCount LooseInt `json:"platform_count"`
	Symbol        *string  `json:"symbol"`
	ImagePath     *string  `json:"image_path"`
}

// LooseInt accepts whole numbers from 0 to MaxInt32, as numbers or numeric
// strings. Anything else, including null, is recorded as present with a nil
// value.
type LooseInt struct {
	Set   bool
	Value *int
}

func NewLooseInt(n int) LooseInt {
	return LooseInt{Set: true, Value: &n}
}

func (l *LooseInt) UnmarshalJSON(b []byte) error {
	l.Set = true
	l.Value = nil

	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}

	switch v := raw.(type) {
	case float64:
		l.Value = wholeInt32(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			l.Value = wholeInt32(f)
		}
	}
	return nil
}

// wholeInt32 keeps only non-negative whole numbers that fit an INT column.
func wholeInt32(f float64) *int {
	if f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}

package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// LineStatus is stored as a TINYINT and exposed as its legacy display string.
type LineStatus uint8

const (
	StatusRunning LineStatus = iota
	StatusPossibleDelays
	StatusSuspended
	StatusNoService
)

var lineStatusNames = [...]string{
	StatusRunning:        "Running",
	StatusPossibleDelays: "Possible delays",
	StatusSuspended:      "Suspended",
	StatusNoService:      "No scheduled service",
}

func ParseLineStatus(s string) (LineStatus, error) {
	for i, name := range lineStatusNames {
		if name == s {
			return LineStatus(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidLineStatus, s)
}

func (s LineStatus) String() string {
	if int(s) < len(lineStatusNames) {
		return lineStatusNames[s]
	}
	return lineStatusNames[StatusRunning]
}

// Key is the snake_case group name used by the overview page.
func (s LineStatus) Key() string {
	switch s {
	case StatusPossibleDelays:
		return "possible_delays"
	case StatusSuspended:
		return "suspended"
	case StatusNoService:
		return "no_scheduled"
	default:
		return "running"
	}
}

func (s LineStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *LineStatus) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return fmt.Errorf("line status must be a string: %w", err)
	}
	parsed, err := ParseLineStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s LineStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

// LineType is the category of a line.
type LineType string

const (
	LineTypePublic  LineType = "public"
	LineTypePrivate LineType = "private"
	LineTypeMetro   LineType = "metro"
	LineTypeTram    LineType = "tram"
	LineTypeBus     LineType = "bus"
)

// LineTypes lists every type in display order.
var LineTypes = []LineType{LineTypePublic, LineTypePrivate, LineTypeMetro, LineTypeTram, LineTypeBus}

func (t LineType) Valid() bool {
	for _, lt := range LineTypes {
		if lt == t {
			return true
		}
	}
	return false
}

// Composition describes a train formation. Incoming JSON may be either a
// {"name", "parts"} object or a bare parts string; both end up here.
type Composition struct {
	Name  string `json:"name"`
	Parts string `json:"parts"`
}

func (c *Composition) UnmarshalJSON(b []byte) error {
	var parts string
	if err := json.Unmarshal(b, &parts); err == nil {
		*c = Composition{Parts: parts}
		return nil
	}

	type plain Composition
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return fmt.Errorf("composition must be a string or an object: %w", err)
	}
	*c = Composition(p)
	return nil
}

// Line is a line with its operator, stations and compositions.
type Line struct {
	ID           int64         `json:"-"`
	Name         string        `json:"name"`
	Color        Color         `json:"color"`
	Status       LineStatus    `json:"status"`
	Type         LineType      `json:"type"`
	Notice       string        `json:"notice"`
	Operator     string        `json:"operator"`
	OperatorUID  string        `json:"operator_uid"`
	Stations     []string      `json:"stations"`
	Compositions []Composition `json:"compositions"`
}

// LineInput carries everything needed to create a line.
type LineInput struct {
	Name         string
	Color        Color
	Status       LineStatus
	Type         LineType
	Notice       string
	OperatorUID  string
	Stations     []string
	Compositions []Composition
}

// LineUpdate is a partial update; nil fields are left untouched. A non-nil
// Stations or Compositions replaces the whole association.
type LineUpdate struct {
	Name         *string
	Color        *Color
	Status       *LineStatus
	Type         *LineType
	Notice       *string
	Stations     *[]string
	Compositions *[]Composition
}

func (u LineUpdate) Empty() bool {
	return u.Name == nil && u.Color == nil && u.Status == nil && u.Type == nil &&
		u.Notice == nil && u.Stations == nil && u.Compositions == nil
}

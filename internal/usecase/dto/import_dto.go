package dto

// LegacyOperator is one entry of the old operators.json.
type LegacyOperator struct {
	UID   string   `json:"uid"`
	Name  string   `json:"name"`
	Short string   `json:"short"`
	Color string   `json:"color"`
	Users []string `json:"users"`
}

// LegacyLine is one entry of the old lines.json.
type LegacyLine struct {
	Name        string   `json:"name"`
	Status      string   `json:"status"`
	Notice      string   `json:"notice"`
	Color       string   `json:"color"`
	Type        string   `json:"type"`
	Stations    []string `json:"stations"`
	Operator    string   `json:"operator"`
	OperatorUID string   `json:"operator_uid"`
}

type ImportResult struct {
	Operators        int `json:"operators"`
	Lines            int `json:"lines"`
	SkippedOperators int `json:"skipped_operators"`
	SkippedLines     int `json:"skipped_lines"`
}

package dto

import "github.com/railway-info/internal/domain"

// Overview is the front page: lines grouped by type, then by status.
type Overview struct {
	Types       []TypeGroup  `json:"types"`
	Maintenance *Maintenance `json:"maintenance,omitempty"`
}

type TypeGroup struct {
	Type     domain.LineType `json:"type"`
	Statuses []StatusGroup   `json:"statuses"`
}

type StatusGroup struct {
	Status string         `json:"status"`
	Lines  []OverviewLine `json:"lines"`
}

// OverviewLine is a line with its notice cleaned for display. A blank
// notice is null.
type OverviewLine struct {
	Name         string               `json:"name"`
	Color        domain.Color         `json:"color"`
	Status       domain.LineStatus    `json:"status"`
	Notice       *string              `json:"notice"`
	Operator     string               `json:"operator"`
	OperatorUID  string               `json:"operator_uid"`
	Stations     []string             `json:"stations"`
	Compositions []domain.Composition `json:"compositions"`
}

type Maintenance struct {
	Message string `json:"message"`
}

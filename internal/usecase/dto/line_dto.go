package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/railway-info/internal/domain"
)

// CreateLineRequest is the body of POST /api/lines.
type CreateLineRequest struct {
	Name         string                `json:"name" validate:"required,max=255"`
	Color        string                `json:"color" validate:"required,hexcolor6"`
	Status       string                `json:"status" validate:"required"`
	Type         string                `json:"type" validate:"required,linetype"`
	Notice       string                `json:"notice"`
	OperatorUID  string                `json:"operator_uid" validate:"required"`
	Stations     []string              `json:"stations" validate:"dive,stationname"`
	Compositions *[]domain.Composition `json:"compositions"`
	// Composition is the single-formation field older dashboards send.
	Composition json.RawMessage `json:"composition,omitempty" swaggertype:"string"`
}

// ToInput converts the request, folding the legacy composition field.
func (r CreateLineRequest) ToInput() (domain.LineInput, error) {
	color, err := domain.ParseColor(r.Color)
	if err != nil {
		return domain.LineInput{}, err
	}
	status, err := domain.ParseLineStatus(r.Status)
	if err != nil {
		return domain.LineInput{}, err
	}

	comps, err := foldComposition(r.Compositions, r.Composition)
	if err != nil {
		return domain.LineInput{}, err
	}
	stations := r.Stations
	if stations == nil {
		stations = []string{}
	}
	if err := checkStationNames(stations); err != nil {
		return domain.LineInput{}, err
	}

	in := domain.LineInput{
		Name:         r.Name,
		Color:        color,
		Status:       status,
		Type:         domain.LineType(r.Type),
		Notice:       r.Notice,
		OperatorUID:  r.OperatorUID,
		Stations:     stations,
		Compositions: []domain.Composition{},
	}
	if comps != nil {
		in.Compositions = *comps
	}
	return in, nil
}

// UpdateLineRequest is a partial update; nil fields are left alone.
type UpdateLineRequest struct {
	Name         *string               `json:"name" validate:"omitempty,min=1,max=255"`
	Color        *string               `json:"color" validate:"omitempty,hexcolor6"`
	Status       *string               `json:"status"`
	Type         *string               `json:"type" validate:"omitempty,linetype"`
	Notice       *string               `json:"notice"`
	Stations     *[]string             `json:"stations" validate:"omitempty,dive,stationname"`
	Compositions *[]domain.Composition `json:"compositions"`
	Composition  json.RawMessage       `json:"composition,omitempty" swaggertype:"string"`
}

func (r UpdateLineRequest) ToUpdate() (domain.LineUpdate, error) {
	upd := domain.LineUpdate{
		Name:     r.Name,
		Notice:   r.Notice,
		Stations: r.Stations,
	}
	if r.Stations != nil {
		if err := checkStationNames(*r.Stations); err != nil {
			return upd, err
		}
	}

	if r.Color != nil {
		c, err := domain.ParseColor(*r.Color)
		if err != nil {
			return upd, err
		}
		upd.Color = &c
	}
	if r.Status != nil {
		s, err := domain.ParseLineStatus(*r.Status)
		if err != nil {
			return upd, err
		}
		upd.Status = &s
	}
	if r.Type != nil {
		t := domain.LineType(*r.Type)
		upd.Type = &t
	}

	comps, err := foldComposition(r.Compositions, r.Composition)
	if err != nil {
		return upd, err
	}
	upd.Compositions = comps
	return upd, nil
}

func checkStationNames(names []string) error {
	for _, name := range names {
		if !domain.ValidStationName(name) {
			return fmt.Errorf("station %q: %w", name, domain.ErrInvalidStationName)
		}
	}
	return nil
}

// foldComposition turns the legacy "composition" value into a one element
// list when "compositions" was not sent. An empty value clears the list.
func foldComposition(comps *[]domain.Composition, legacy json.RawMessage) (*[]domain.Composition, error) {
	if comps != nil || len(legacy) == 0 {
		return comps, nil
	}

	trimmed := bytes.TrimSpace(legacy)
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		empty := []domain.Composition{}
		return &empty, nil
	}

	var c domain.Composition
	if err := json.Unmarshal(trimmed, &c); err != nil {
		return nil, fmt.Errorf("invalid composition: %w", err)
	}
	folded := []domain.Composition{c}
	return &folded, nil
}

// LineStationRequest adds a station to a line at a position.
type LineStationRequest struct {
	Name  string `json:"name" validate:"stationname"`
	Order int    `json:"station_order" validate:"min=0"`
}

type ReorderStationsRequest struct {
	Stations []string `json:"stations" validate:"required,dive,stationname"`
}

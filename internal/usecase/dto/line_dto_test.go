package dto

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/pkg/validator"
)

func validCreate() CreateLineRequest {
	return CreateLineRequest{
		Name:        "S1",
		Color:       "#ff0000",
		Status:      "Running",
		Type:        "public",
		OperatorUID: "sr",
		Stations:    []string{"Central", "Harbour"},
	}
}

func TestCreateLineRequest_StationNames(t *testing.T) {
	tests := []struct {
		name     string
		stations []string
		valid    bool
	}{
		{"plain names", []string{"Central", "Harbour"}, true},
		{"single pipe is fine", []string{"North | South"}, true},
		{"no stations", nil, true},
		{"separator inside a name", []string{"Alpha||Beta", "Gamma"}, false},
		{"empty name", []string{"Central", ""}, false},
		{"blank name", []string{"   "}, false},
		{"too long", []string{strings.Repeat("a", 256)}, false},
		{"255 multibyte runes", []string{strings.Repeat("ж", 255)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreate()
			req.Stations = tt.stations

			verr := validator.Validate(&req)
			_, convErr := req.ToInput()

			if tt.valid {
				assert.NoError(t, verr)
				assert.NoError(t, convErr)
				return
			}
			require.Error(t, verr)
			assert.Equal(t, []string{fmt.Sprintf("Stations[%d]", badIndex(tt.stations))}, validator.Fields(verr))
			assert.ErrorIs(t, convErr, domain.ErrInvalidStationName)
		})
	}
}

func TestUpdateLineRequest_StationNames(t *testing.T) {
	ok := []string{"Central"}
	bad := []string{"Central", "Alpha||Beta"}
	empty := []string{""}

	assert.NoError(t, validator.Validate(&UpdateLineRequest{}))
	assert.NoError(t, validator.Validate(&UpdateLineRequest{Stations: &ok}))
	assert.Error(t, validator.Validate(&UpdateLineRequest{Stations: &bad}))
	assert.Error(t, validator.Validate(&UpdateLineRequest{Stations: &empty}))

	_, err := UpdateLineRequest{Stations: &bad}.ToUpdate()
	assert.ErrorIs(t, err, domain.ErrInvalidStationName)
}

func TestStationRequests_Names(t *testing.T) {
	assert.NoError(t, validator.Validate(&LineStationRequest{Name: "Central"}))
	assert.Error(t, validator.Validate(&LineStationRequest{Name: "A||B"}))
	assert.Error(t, validator.Validate(&LineStationRequest{Name: strings.Repeat("x", 256)}))

	assert.NoError(t, validator.Validate(&ReorderStationsRequest{Stations: []string{"B", "A"}}))
	assert.Error(t, validator.Validate(&ReorderStationsRequest{Stations: []string{"B||A"}}))
	assert.Error(t, validator.Validate(&ReorderStationsRequest{}))
}

func badIndex(names []string) int {
	for i, n := range names {
		if !domain.ValidStationName(n) {
			return i
		}
	}
	return -1
}

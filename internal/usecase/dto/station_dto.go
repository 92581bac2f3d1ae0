package dto

import "github.com/railway-info/internal/domain"

// StationDetails - ответ для страницы станции
type StationDetails struct {
	Station    domain.Station            `json:"station"`
	Lines      []domain.StationLine      `json:"lines"`
	Statistics *domain.StationStatistics `json:"statistics"`
}

type StationsOverview struct {
	Stations        []domain.Station `json:"stations"`
	Total           int              `json:"total_stations"`
	Active          int              `json:"active_stations"`
	ConnectingLines int              `json:"connecting_lines"`
}

type StationSearchResponse struct {
	Stations []domain.StationRef `json:"stations"`
}

type CreateStationRequest struct {
	Name string `json:"name" validate:"stationname"`
}

// CreateStationResponse - Created=false, если станция уже существовала
type CreateStationResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Created bool   `json:"created"`
}

package dto

import (
	"time"
)

// CreateOperatorRequest is the "request a new company" form. Field names
// follow the dashboard form.
type CreateOperatorRequest struct {
	CompanyName     string   `json:"companyName" validate:"required,max=255"`
	ShortCode       string   `json:"shortCode" validate:"required,max=16"`
	Color           string   `json:"color" validate:"required,hexcolor6"`
	AdditionalUsers []string `json:"additionalUsers" validate:"omitempty,dive,numeric"`
	// CompanyUID defaults to a slug of the company name.
	CompanyUID string `json:"companyUid" validate:"omitempty,max=64"`
}

type HandleRequestRequest struct {
	Action string `json:"action" validate:"required,oneof=accept reject"`
}

// LegacyHandleRequest identifies the request by its creation timestamp.
type LegacyHandleRequest struct {
	Timestamp time.Time `json:"timestamp" validate:"required"`
	Action    string    `json:"action" validate:"required,oneof=accept reject"`
}

// LegacyDeleteRequest identifies the request to delete by its creation timestamp.
type LegacyDeleteRequest struct {
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

type CreatedRequestResponse struct {
	ID         int64  `json:"id"`
	CompanyUID string `json:"company_uid"`
}

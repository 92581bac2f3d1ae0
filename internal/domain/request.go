package domain

import "time"

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestAccepted, RequestRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether a request in status s may move to next.
// Only pending requests move, and only to a terminal state.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	return s == RequestPending && (next == RequestAccepted || next == RequestRejected)
}

type Requester struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// OperatorRequest asks the admins to create an operator.
type OperatorRequest struct {
	ID              int64         `json:"id"`
	Timestamp       time.Time     `json:"timestamp"`
	Status          RequestStatus `json:"status"`
	Requester       Requester     `json:"requester"`
	CompanyName     string        `json:"company_name"`
	ShortCode       string        `json:"short_code"`
	Color           Color         `json:"color"`
	AdditionalUsers []string      `json:"additional_users"`
	CompanyUID      string        `json:"company_uid"`
}

type OperatorRequestInput struct {
	Requester       Requester
	CompanyName     string
	ShortCode       string
	Color           Color
	AdditionalUsers []string
	CompanyUID      string
}

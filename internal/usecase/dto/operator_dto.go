package dto

import (
	"github.com/railway-info/internal/domain"
)

// UpdateOperatorRequest is a partial operator update.
type UpdateOperatorRequest struct {
	Name        *string   `json:"name" validate:"omitempty,min=1,max=255"`
	Color       *string   `json:"color" validate:"omitempty,hexcolor6"`
	Short       *string   `json:"short" validate:"omitempty,max=16"`
	ImagePath   *string   `json:"image_path" validate:"omitempty,max=512"`
	Description *string   `json:"description"`
	Users       *[]string `json:"users" validate:"omitempty,dive,numeric"`
}

func (r UpdateOperatorRequest) ToUpdate() (domain.OperatorUpdate, error) {
	upd := domain.OperatorUpdate{
		Name:        r.Name,
		Short:       r.Short,
		ImagePath:   r.ImagePath,
		Description: r.Description,
		Users:       r.Users,
	}
	if r.Color != nil {
		c, err := domain.ParseColor(*r.Color)
		if err != nil {
			return upd, err
		}
		upd.Color = &c
	}
	return upd, nil
}

// MemberRequest adds a Discord user to an operator.
type MemberRequest struct {
	UserID string `json:"user_id" validate:"required,numeric"`
}

// Member is an operator member as shown on the operator page.
type Member struct {
	ID          string `json:"id"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url"`
}

// OperatorSummary is an operator with its line count, as listed on the
// operators page.
type OperatorSummary struct {
	domain.Operator
	TrainCount int `json:"train_count"`
}

// OperatorPage is the data of the operator page.
type OperatorPage struct {
	Operator domain.Operator `json:"operator"`
	Members  []Member        `json:"members"`
	Lines    []domain.Line   `json:"lines"`
}

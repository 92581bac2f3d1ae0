package domain

// Operator - компания-оператор и её участники
type Operator struct {
	ID          int64    `json:"-"`
	UID         string   `json:"uid"`
	Name        string   `json:"name"`
	Color       Color    `json:"color"`
	Short       string   `json:"short"`
	ImagePath   string   `json:"image_path,omitempty"`
	Description string   `json:"description,omitempty"`
	Users       []string `json:"users"`
}

func (o *Operator) HasUser(userID string) bool {
	for _, u := range o.Users {
		if u == userID {
			return true
		}
	}
	return false
}

type OperatorInput struct {
	UID         string
	Name        string
	Color       Color
	Short       string
	ImagePath   string
	Description string
	Users       []string
}

// OperatorUpdate - частичное обновление; не-nil Users заменяет всех участников
type OperatorUpdate struct {
	Name        *string
	Color       *Color
	Short       *string
	ImagePath   *string
	Description *string
	Users       *[]string
}

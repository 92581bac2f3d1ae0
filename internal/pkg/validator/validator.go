package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/railway-info/internal/domain"
)

var validate *validator.Validate

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

var lineTypes = map[string]struct{}{
	"public":  {},
	"private": {},
	"metro":   {},
	"tram":    {},
	"bus":     {},
}

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("linetype", validateLineType)
	_ = validate.RegisterValidation("hexcolor6", validateHexColor)
	_ = validate.RegisterValidation("stationname", validateStationName)
}

// Validate - валидация структуры
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// GetValidator - получить валидатор для кастомной конфигурации
func GetValidator() *validator.Validate {
	return validate
}

func validateLineType(fl validator.FieldLevel) bool {
	_, ok := lineTypes[fl.Field().String()]
	return ok
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorPattern.MatchString(fl.Field().String())
}

// stationname: непустое, до 255 символов, без разделителя "||"
func validateStationName(fl validator.FieldLevel) bool {
	return domain.ValidStationName(fl.Field().String())
}

// Fields - имена полей, не прошедших валидацию
func Fields(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}

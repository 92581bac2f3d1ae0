package handler

import (
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/railway-info/internal/pkg/errors"
	"github.com/railway-info/internal/pkg/validator"
)

// bindJSON parses the body into dst and runs the validate tags.
func bindJSON(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return errors.ErrInvalidRequest.WithMessage("Invalid JSON: " + err.Error())
	}
	if err := validator.Validate(dst); err != nil {
		return errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"fields": validator.Fields(err),
		})
	}
	return nil
}

// pathParam returns an unescaped route parameter. Line and station names
// may contain spaces and slashes.
func pathParam(c *fiber.Ctx, name string) string {
	raw := c.Params(name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func idParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.ErrInvalidRequest.WithMessage("Invalid " + name)
	}
	return id, nil
}

package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Color is a packed 0xRRGGBB value. Only the low 24 bits are significant.
type Color uint32

const DefaultOperatorColor Color = 0x808080

func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidColor, s, err)
	}
	return Color(v), nil
}

func (c Color) String() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
}

func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts "#rrggbb" strings and raw integers.
func (c *Color) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		parsed, err := ParseColor(s)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	var n uint32
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("color must be a string or an integer: %w", err)
	}
	*c = Color(n & 0xffffff)
	return nil
}

func (c Color) Value() (driver.Value, error) {
	return int64(uint32(c) & 0xffffff), nil
}

func (c *Color) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*c = 0
	case int64:
		*c = Color(uint32(v) & 0xffffff)
	case int:
		*c = Color(uint32(v) & 0xffffff)
	case uint64:
		*c = Color(uint32(v) & 0xffffff)
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("scan color: %w", err)
		}
		*c = Color(uint32(n) & 0xffffff)
	default:
		return fmt.Errorf("scan color: unsupported type %T", src)
	}
	return nil
}

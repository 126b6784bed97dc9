package inputs

import (
	"fmt"
	"strconv"
)

// Config is a key-value map for input-type-specific configuration.
// Factories interpret it when creating an input.
type Config map[string]any

// String returns the string at key, or "" when absent.
func (c Config) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// Int returns the number at key, or def when absent. Numbers decoded from
// JSON arrive as float64 and numbers from the environment as strings.
func (c Config) Int(key string, def int) (int, error) {
	switch v := c[key].(type) {
	case nil:
		return def, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s: unsupported type %T", key, v)
	}
}

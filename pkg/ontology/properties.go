package ontology

import "fmt"

// Properties is an opaque key-value map carried by Groups (settings),
// Things (properties), and Connections/Events/Knowledge (metadata). No
// sub-schema is enforced, but values are restricted to the closed JSON
// domain: string, number, bool, null, nested map, and array. Anything
// else is rejected before a write is attempted.
type Properties map[string]any

const (
	maxPropertyDepth = 8
	maxPropertyKeys  = 256
)

// Validate checks every value in the map against the closed value
// domain, bounding nesting depth and total key count.
func (p Properties) Validate() error {
	if p == nil {
		return nil
	}
	if len(p) > maxPropertyKeys {
		return fmt.Errorf("too many keys: %d exceeds limit of %d", len(p), maxPropertyKeys)
	}
	for key, value := range p {
		if key == "" {
			return fmt.Errorf("empty key")
		}
		if err := validateValue(key, value, 1); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(path string, value any, depth int) error {
	if depth > maxPropertyDepth {
		return fmt.Errorf("nesting at %q exceeds depth limit of %d", path, maxPropertyDepth)
	}

	switch v := value.(type) {
	case nil, string, bool,
		float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return nil
	case map[string]any:
		if len(v) > maxPropertyKeys {
			return fmt.Errorf("too many keys at %q: %d exceeds limit of %d", path, len(v), maxPropertyKeys)
		}
		for key, nested := range v {
			if key == "" {
				return fmt.Errorf("empty key at %q", path)
			}
			if err := validateValue(path+"."+key, nested, depth+1); err != nil {
				return err
			}
		}
		return nil
	case Properties:
		return validateValue(path, map[string]any(v), depth)
	case []any:
		for i, item := range v {
			if err := validateValue(fmt.Sprintf("%s[%d]", path, i), item, depth+1); err != nil {
				return err
			}
		}
		return nil
	case []string:
		return nil
	default:
		return fmt.Errorf("unsupported value type %T at %q", value, path)
	}
}

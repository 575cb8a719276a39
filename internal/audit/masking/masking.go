package masking

import "strings"

const maskToken = "****"

// sensitiveKeys are metadata keys whose values identify a taxpayer or a bank
// destination and must not be stored in clear in the audit trail.
var sensitiveKeys = map[string]bool{
	"customer_tax_id": true,
	"vendor_tax_id":   true,
	"destination":     true,
	"account":         true,
}

// MaskSecret redacts a value while keeping its first two and last three
// characters, which is enough to tell GSTINs apart by state and checksum.
func MaskSecret(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 5 {
		return maskToken
	}
	return trimmed[:2] + maskToken + trimmed[len(trimmed)-3:]
}

// MaskJSON returns a copy of input with sensitive keys masked. Nested maps
// are walked.
func MaskJSON(input map[string]any) map[string]any {
	if len(input) == 0 {
		return nil
	}

	masked := make(map[string]any, len(input))
	for key, value := range input {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}
		masked[trimmedKey] = maskValue(trimmedKey, value)
	}

	if len(masked) == 0 {
		return nil
	}
	return masked
}

func maskValue(key string, value any) any {
	switch cast := value.(type) {
	case string:
		if sensitiveKeys[key] {
			return MaskSecret(cast)
		}
		return cast
	case *string:
		if cast == nil {
			return nil
		}
		return maskValue(key, *cast)
	case map[string]any:
		return MaskJSON(cast)
	default:
		return value
	}
}

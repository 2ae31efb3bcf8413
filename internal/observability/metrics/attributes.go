package metrics

import (
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

var credentialKeyHints = []string{
	"token",
	"signature",
	"api_key",
	"secret",
	"password",
	"authorization",
}

// FilterAttributes drops attributes whose keys suggest credentials so a
// mislabeled instrument can never publish a bearer token or signature.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if credentialKey(string(attr.Key)) {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

func credentialKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, hint := range credentialKeyHints {
		if strings.Contains(key, hint) {
			return true
		}
	}
	return false
}

package tracing

import (
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// Keys that must never reach a span: credentials, signing link tokens
// and the signature image blob.
var redactedAttributeKeys = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"signature",
	"authorization",
	"cookie",
}

// SafeAttributes drops attributes whose keys look sensitive.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if isRedactedKey(string(attr.Key)) {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

// SafeError reduces an error to its type so recorded errors cannot leak
// token values embedded in messages.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%T", err)
}

func isRedactedKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, needle := range redactedAttributeKeys {
		if strings.Contains(key, needle) {
			return true
		}
	}
	return false
}

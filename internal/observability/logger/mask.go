package logger

import (
	"net/http"
	"strings"
)

// Field names whose values never reach a log line or audit row in the
// clear. Link tokens and signature images are the ones this service
// actually handles; the rest guard future payloads.
var sensitiveKeys = []string{
	"token",
	"signature",
	"api_key",
	"secret",
	"password",
	"authorization",
	"cookie",
}

// MaskToken reduces a link token to its last four characters. That is
// enough to correlate log lines about the same link without making the
// log a place tokens can be recovered from.
func MaskToken(value string) string {
	return lastFour(value)
}

// MaskAuthorization masks a credential while keeping the auth scheme
// readable.
func MaskAuthorization(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if scheme, cred, ok := strings.Cut(value, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return "Bearer " + lastFour(cred)
	}
	return lastFour(value)
}

// MaskHeaders copies headers with credential-bearing values masked.
func MaskHeaders(headers http.Header) map[string]string {
	masked := make(map[string]string, len(headers))
	for name, values := range headers {
		joined := strings.Join(values, ",")
		switch http.CanonicalHeaderKey(name) {
		case "Authorization":
			masked[name] = MaskAuthorization(joined)
		case "Cookie", "Set-Cookie":
			masked[name] = lastFour(joined)
		default:
			masked[name] = joined
		}
	}
	return masked
}

// MaskJSON deep-copies a decoded JSON object, masking any value whose
// key matches a sensitive name. The input is never mutated.
func MaskJSON(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = maskEntry(key, value)
	}
	return out
}

func maskEntry(key string, value any) any {
	if sensitiveKey(key) {
		switch typed := value.(type) {
		case string:
			return lastFour(typed)
		case []byte:
			return lastFour(string(typed))
		default:
			return "****"
		}
	}
	switch typed := value.(type) {
	case map[string]any:
		return MaskJSON(typed)
	case []any:
		items := make([]any, len(typed))
		for i, entry := range typed {
			items[i] = maskEntry("", entry)
		}
		return items
	default:
		return value
	}
}

func sensitiveKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return false
	}
	for _, needle := range sensitiveKeys {
		if strings.Contains(key, needle) {
			return true
		}
	}
	return false
}

func lastFour(value string) string {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return ""
	case len(value) <= 4:
		return "****" + value
	default:
		return "****" + value[len(value)-4:]
	}
}

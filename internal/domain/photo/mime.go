package photo

import (
	"encoding/base64"
	"errors"
	"strings"
	"unicode"
)

var base64Encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// MIMEAllowed matches a content type against patterns such as "image/jpeg"
// or "image/*". Parameters after ';' are ignored.
func MIMEAllowed(allowed []string, contentType string) bool {
	mt, _, _ := strings.Cut(contentType, ";")
	mt = strings.ToLower(strings.TrimSpace(mt))
	if mt == "" {
		return false
	}
	for _, pattern := range allowed {
		p := strings.ToLower(strings.TrimSpace(pattern))
		switch {
		case p == "":
			continue
		case p == "*/*" || p == mt:
			return true
		case strings.HasSuffix(p, "/*") && strings.HasPrefix(mt, strings.TrimSuffix(p, "*")):
			return true
		}
	}
	return false
}

// decodeBase64Payload accepts bare base64 (padded or not, standard or URL
// alphabet) and data URLs. The declared mime of a data URL is returned.
func decodeBase64Payload(value string) ([]byte, string, error) {
	value = strings.TrimSpace(value)

	declared := ""
	if strings.HasPrefix(value, "data:") {
		header, payload, ok := strings.Cut(value, ",")
		if !ok {
			return nil, "", errors.New("invalid data url")
		}
		if !strings.Contains(header, ";base64") {
			return nil, "", errors.New("data url must be base64 encoded")
		}
		declared, _, _ = strings.Cut(strings.TrimPrefix(header, "data:"), ";")
		value = payload
	}

	value = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, value)
	if value == "" {
		return nil, declared, errors.New("base64 payload is empty")
	}

	for _, enc := range base64Encodings {
		if data, err := enc.DecodeString(value); err == nil {
			if len(data) == 0 {
				break
			}
			return data, declared, nil
		}
	}
	return nil, declared, errors.New("base64 payload could not be decoded")
}

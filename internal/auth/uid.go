package auth

import (
	"encoding/base64"
	"errors"
)

var errBadUID = errors.New("invalid uid")

// EncodeUID returns the URL-safe form of a user id used in emailed links.
func EncodeUID(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

func DecodeUID(s string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil || len(b) == 0 {
		return "", errBadUID
	}
	return string(b), nil
}

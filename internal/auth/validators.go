package auth

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	MinPasswordLength = 8
	// bcrypt ignores everything past 72 bytes
	MaxPasswordBytes = 72
	MaxEmailLength   = 255
	MaxNameLength    = 150
)

var commonPasswords = map[string]struct{}{}

func init() {
	for _, p := range strings.Fields(`
		password password1 password123 passw0rd 12345678 123456789 1234567890 87654321
		qwerty123 qwertyuiop iloveyou sunshine princess football baseball welcome welcome1
		abc12345 admin123 letmein1 trustno1 whatever dragon123 monkey123 superman starwars
		11111111 00000000 aaaaaaaa azertyuiop changeme secret123 computer internet
		michael1 jennifer shadow12 master12 killer12 charlie1 jordan23 zaq12wsx 1q2w3e4r
		`) {
		commonPasswords[p] = struct{}{}
	}
}

var wordSplit = regexp.MustCompile(`\W+`)

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// PasswordProblems checks password against the password policy. Attributes
// are user values (email, names) the password must not resemble. An empty
// result means the password is acceptable.
func PasswordProblems(password string, attributes ...string) []string {
	var out []string
	if len(password) < MinPasswordLength {
		out = append(out, fmt.Sprintf("This password is too short. It must contain at least %d characters.", MinPasswordLength))
	}
	if len(password) > MaxPasswordBytes {
		out = append(out, fmt.Sprintf("This password is too long. It must contain at most %d bytes.", MaxPasswordBytes))
	}
	lower := strings.ToLower(password)
	if _, ok := commonPasswords[lower]; ok {
		out = append(out, "This password is too common.")
	}
	if isNumeric(password) {
		out = append(out, "This password is entirely numeric.")
	}
	if tooSimilar(lower, attributes) {
		out = append(out, "The password is too similar to your personal information.")
	}
	return out
}

func tooSimilar(lowerPassword string, attributes []string) bool {
	if lowerPassword == "" {
		return false
	}
	for _, attr := range attributes {
		attr = strings.ToLower(attr)
		if attr == "" {
			continue
		}
		if attr == lowerPassword {
			return true
		}
		for _, part := range wordSplit.Split(attr, -1) {
			if len(part) >= 4 && strings.Contains(lowerPassword, part) {
				return true
			}
		}
	}
	return false
}

// NormalizeEmail trims the address and lower-cases its domain part. The local
// part is kept as typed.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// ValidateEmail returns a human readable problem or "" when email is a bare,
// well-formed address.
func ValidateEmail(email string) string {
	if email == "" {
		return "This field is required."
	}
	if len(email) > MaxEmailLength {
		return fmt.Sprintf("Ensure this field has no more than %d characters.", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "Enter a valid email address."
	}
	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return "Enter a valid email address."
	}
	return ""
}

// NormalizeName trims a display name and applies NFKC normalization so that
// visually identical names compare equal.
func NormalizeName(name string) string {
	return norm.NFKC.String(strings.TrimSpace(name))
}

package email

import (
	"strings"
)

// Normalize trims the address and lower-cases its domain. The local part keeps
// its case; uniqueness checks compare the whole address case-insensitively.
func Normalize(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// LocalPart returns the part before the last '@', or the whole string when
// there is none.
func LocalPart(email string) string {
	if at := strings.LastIndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}

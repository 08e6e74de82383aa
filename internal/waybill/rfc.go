package waybill

import (
	"regexp"
	"strings"
)

// RFC is a Mexican taxpayer identifier. The official grammar is a 3-letter
// (companies) or 4-letter (individuals) prefix, six date digits, and a
// three-character alphanumeric homoclave.
type RFC string

var rfcPattern = regexp.MustCompile(`^[A-ZÑ&]{3,4}[0-9]{6}[A-Z0-9]{3}$`)

// ParseRFC normalizes and validates a raw RFC string.
func ParseRFC(raw string) (RFC, bool) {
	rfc := RFC(strings.ToUpper(strings.TrimSpace(raw)))
	return rfc, rfc.Valid()
}

// Valid reports whether the RFC matches the official grammar.
func (r RFC) Valid() bool {
	return rfcPattern.MatchString(string(r))
}

// IsZero reports whether the RFC is empty.
func (r RFC) IsZero() bool {
	return r == ""
}

func (r RFC) String() string {
	return string(r)
}

package models

import (
	"encoding/json"
	"fmt"

	dErrors "cartaporte/pkg/domain-errors"
)

// Version is the typed form of the "vMAJOR.MINOR" wire format. MAJOR counts
// regenerations from scratch; MINOR counts transformations applied on top of
// a MAJOR. Comparison happens on the typed value; the string form exists
// only at the storage and wire boundary.
type Version struct {
	Major int
	Minor int
}

// ParseVersion parses the textual "vMAJOR.MINOR" form.
func ParseVersion(raw string) (Version, error) {
	var v Version
	if _, err := fmt.Sscanf(raw, "v%d.%d", &v.Major, &v.Minor); err != nil {
		return Version{}, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("version %q is not of the form vMAJOR.MINOR", raw))
	}
	if v.Major < 1 || v.Minor < 0 {
		return Version{}, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("version %q is out of range", raw))
	}
	return v, nil
}

func (v Version) String() string {
	return fmt.Sprintf("v%d.%d", v.Major, v.Minor)
}

// IsZero reports whether the version is unset.
func (v Version) IsZero() bool {
	return v.Major == 0 && v.Minor == 0
}

// Compare orders versions by MAJOR, then MINOR. Returns -1, 0 or 1.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		if v.Major < o.Major {
			return -1
		}
		return 1
	case v.Minor != o.Minor:
		if v.Minor < o.Minor {
			return -1
		}
		return 1
	}
	return 0
}

// MarshalJSON serializes the wire form.
func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON parses the wire form.
func (v *Version) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "version must be a string")
	}
	parsed, err := ParseVersion(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

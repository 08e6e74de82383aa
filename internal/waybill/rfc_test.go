package waybill

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRFCValid(t *testing.T) {
	valid := []string{
		"TLO010203AB9",  // 3-letter company prefix
		"GODE840315QX2", // 4-letter individual prefix
		"A&B010203XY1",  // ampersand allowed in company prefixes
		"ÑUZ010203AB1",  // Ñ allowed
	}
	for _, raw := range valid {
		assert.True(t, RFC(raw).Valid(), "expected %q to be valid", raw)
	}

	invalid := []string{
		"",
		"TLO010203",       // missing homoclave
		"TL010203AB9",     // prefix too short
		"TLOXX0203AB9",    // letters where date digits belong
		"tlo010203ab9",    // lowercase is not normalized at this layer
		"TLO010203AB9X",   // too long
		"12345678901 2",   // garbage
	}
	for _, raw := range invalid {
		assert.False(t, RFC(raw).Valid(), "expected %q to be invalid", raw)
	}
}

func TestParseRFCNormalizes(t *testing.T) {
	rfc, ok := ParseRFC("  tlo010203ab9 ")
	assert.True(t, ok)
	assert.Equal(t, RFC("TLO010203AB9"), rfc)

	_, ok = ParseRFC("not-an-rfc")
	assert.False(t, ok)
}

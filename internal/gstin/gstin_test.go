package gstin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAcceptsValidIdentifiers(t *testing.T) {
	for _, raw := range []string{
		"27AAPFU0939F1ZV",
		"29AAGCB7383J1Z4",
		"33AAACH7409R1Z8",
		"07AAACI1681G1ZR",
		"24AABCU9603R1ZT",
		" 27AABCU9603R1ZN ",
	} {
		id, err := Parse(raw)
		require.NoError(t, err, raw)
		assert.Len(t, id.Value, Length)
	}

	id, err := Parse("27AAPFU0939F1ZV")
	require.NoError(t, err)
	assert.Equal(t, "27", id.StateCode)
	assert.Equal(t, "AAPFU0939F", id.PAN)
	assert.Equal(t, byte('1'), id.EntityNumber)
	assert.Equal(t, byte('V'), id.CheckChar)
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"too short":        "27AAPFU0939F1Z",
		"too long":         "27AAPFU0939F1ZVX",
		"lowercase":        "27aapfu0939f1zv",
		"letter in state":  "2AAAPFU0939F1ZV",
		"digit in pan":     "27AAP1U0939F1ZV",
		"letter in digits": "27AAPFU09X9F1ZV",
		"zero entity":      "27AAPFU0939F0ZV",
		"missing literal":  "27AAPFU0939F1YV",
		"state 00":         "00AAPFU0939F1ZV",
		"state 40":         "40AAPFU0939F1ZV",
		"symbol":           "27AAPFU0939F1Z-",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			err := Validate(raw)
			assert.ErrorIs(t, err, ErrMalformedTaxID)
			assert.NotErrorIs(t, err, ErrChecksumMismatch)
		})
	}
}

func TestParseRejectsBadChecksum(t *testing.T) {
	for _, raw := range []string{"27AAPFU0939F1ZA", "29AAGCB7383J1Z5", "33AAACH7409R1Z9"} {
		err := Validate(raw)
		assert.ErrorIs(t, err, ErrChecksumMismatch, raw)
	}
}

func TestCheckCharacter(t *testing.T) {
	c, err := CheckCharacter("27AAPFU0939F1Z")
	require.NoError(t, err)
	assert.Equal(t, byte('V'), c)

	c, err = CheckCharacter("19AAACW1234K1Z")
	require.NoError(t, err)
	assert.Equal(t, byte('A'), c)

	_, err = CheckCharacter("27AAPFU")
	assert.ErrorIs(t, err, ErrMalformedTaxID)
}

func TestJurisdictions(t *testing.T) {
	assert.True(t, IsJurisdiction("27"))
	assert.True(t, IsJurisdiction("97"))
	assert.False(t, IsJurisdiction("39"))

	name, ok := JurisdictionName("29")
	assert.True(t, ok)
	assert.Equal(t, "Karnataka", name)
}

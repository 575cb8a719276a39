package gstin

import (
	"strings"

	"github.com/smallbiznis/gstengine/pkg/apperror"
)

const (
	Length   = 15
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var (
	ErrMalformedTaxID   = apperror.New(apperror.DomainValidation, 1001, "malformed_tax_id", "tax id is malformed")
	ErrChecksumMismatch = apperror.New(apperror.DomainValidation, 1002, "checksum_mismatch", "tax id check character does not match")
)

// TaxID is a structurally valid, checksum-verified GSTIN.
type TaxID struct {
	Value        string
	StateCode    string
	PAN          string
	EntityNumber byte
	CheckChar    byte
}

type state int

const (
	stateStateCode state = iota
	statePANLetters
	statePANDigits
	statePANCheck
	stateEntity
	stateLiteral
	stateCheck
	stateDone
)

// transitions gives, for each state, the character class it accepts and the
// position at which the machine moves to the next state.
var transitions = [...]struct {
	accept func(byte) bool
	until  int
}{
	stateStateCode:  {isDigit, 2},
	statePANLetters: {isUpper, 7},
	statePANDigits:  {isDigit, 11},
	statePANCheck:   {isUpper, 12},
	stateEntity:     {isEntity, 13},
	stateLiteral:    {func(c byte) bool { return c == 'Z' }, 14},
	stateCheck:      {isAlnum, 15},
}

// Parse validates raw and returns its components. Surrounding whitespace is
// ignored; everything else, including lowercase letters, must match exactly.
func Parse(raw string) (TaxID, error) {
	value := strings.TrimSpace(raw)
	if len(value) != Length {
		return TaxID{}, ErrMalformedTaxID.WithMessage("tax id must be %d characters, got %d", Length, len(value))
	}

	st := stateStateCode
	for i := 0; i < len(value); i++ {
		t := transitions[st]
		if !t.accept(value[i]) {
			return TaxID{}, ErrMalformedTaxID.WithMessage("unexpected character %q at position %d", value[i], i+1)
		}
		if i+1 == t.until {
			st++
		}
	}
	if st != stateDone {
		return TaxID{}, ErrMalformedTaxID
	}

	stateCode := value[:2]
	if !IsJurisdiction(stateCode) {
		return TaxID{}, ErrMalformedTaxID.WithMessage("unknown state code %s", stateCode)
	}

	want, err := CheckCharacter(value[:Length-1])
	if err != nil {
		return TaxID{}, err
	}
	if want != value[Length-1] {
		return TaxID{}, ErrChecksumMismatch
	}

	return TaxID{
		Value:        value,
		StateCode:    stateCode,
		PAN:          value[2:12],
		EntityNumber: value[12],
		CheckChar:    value[14],
	}, nil
}

// Validate is Parse without the parsed result.
func Validate(raw string) error {
	_, err := Parse(raw)
	return err
}

// CheckCharacter computes the weighted modulo-36 check character over the
// first fourteen characters. Weights alternate 1 and 2 from the left; each
// product contributes its base-36 quotient plus remainder.
func CheckCharacter(body string) (byte, error) {
	if len(body) != Length-1 {
		return 0, ErrMalformedTaxID.WithMessage("check body must be %d characters", Length-1)
	}
	sum := 0
	for i := 0; i < len(body); i++ {
		v := strings.IndexByte(alphabet, body[i])
		if v < 0 {
			return 0, ErrMalformedTaxID.WithMessage("unexpected character %q at position %d", body[i], i+1)
		}
		factor := 1
		if i%2 == 1 {
			factor = 2
		}
		product := v * factor
		sum += product/36 + product%36
	}
	return alphabet[(36-sum%36)%36], nil
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isUpper(c byte) bool  { return c >= 'A' && c <= 'Z' }
func isAlnum(c byte) bool  { return isDigit(c) || isUpper(c) }
func isEntity(c byte) bool { return (c >= '1' && c <= '9') || isUpper(c) }

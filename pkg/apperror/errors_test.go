package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSample = New(DomainValidation, 1001, "malformed_tax_id", "tax id is malformed")

func TestWithFieldKeepsIdentity(t *testing.T) {
	err := errSample.WithField("vendor.tax_id")

	assert.ErrorIs(t, err, errSample)
	assert.Equal(t, "vendor.tax_id", err.Field())
	assert.Empty(t, errSample.Field(), "sentinel must not be mutated")
	assert.Equal(t, "validation[1001] malformed_tax_id: tax id is malformed (field=vendor.tax_id)", err.Error())
}

func TestWrapExposesCause(t *testing.T) {
	cause := errors.New("connection reset")
	storage := New(DomainStorage, 9001, "storage_unavailable", "storage unavailable")
	err := fmt.Errorf("allocate: %w", storage.Wrap(cause))

	assert.ErrorIs(t, err, storage)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsRetryable(err))
	assert.False(t, IsFatal(err))

	typed := As(err)
	if assert.NotNil(t, typed) {
		assert.Equal(t, DomainStorage, typed.Domain())
		assert.Equal(t, 9001, typed.Code())
		assert.Equal(t, "storage_unavailable", typed.Key())
	}
}

func TestDomainMetadata(t *testing.T) {
	conflict := New(DomainSequenceConflict, 1301, "sequence_conflict", "duplicate sequence")

	assert.True(t, IsFatal(conflict))
	assert.False(t, IsRetryable(conflict))
	assert.True(t, IsDomain(conflict, DomainSequenceConflict))
	assert.False(t, IsDomain(errors.New("plain"), DomainSequenceConflict))
	assert.Equal(t, "internal error", MetadataFor("unknown").PublicMessage)
}

func TestDifferentCodesDoNotMatch(t *testing.T) {
	other := New(DomainValidation, 1002, "checksum_mismatch", "bad check character")
	assert.False(t, errors.Is(other, errSample))
}

package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "27****1ZV", MaskSecret("27AAPFU0939F1ZV"))
	assert.Equal(t, "****", MaskSecret("abc"))
	assert.Equal(t, "", MaskSecret("  "))
}

func TestMaskJSONOnlyMasksSensitiveKeys(t *testing.T) {
	taxID := "29AAGCB7383J1Z4"
	out := MaskJSON(map[string]any{
		"vendor_tax_id": &taxID,
		"order_id":      "ORD-1",
		"nested":        map[string]any{"destination": "acct_1234567890"},
		"":              "dropped",
	})

	assert.Equal(t, "29****1Z4", out["vendor_tax_id"])
	assert.Equal(t, "ORD-1", out["order_id"])
	assert.Equal(t, "ac****890", out["nested"].(map[string]any)["destination"])
	assert.NotContains(t, out, "")
	assert.Nil(t, MaskJSON(nil))
}

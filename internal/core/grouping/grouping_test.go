package grouping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func variantHashes(t *testing.T, payload map[string]interface{}) map[string]string {
	t.Helper()

	variants := NewResolver().Variants(payload, "")
	require.Len(t, variants, 3)

	out := make(map[string]string, len(variants))
	for _, v := range variants {
		out[v.Name] = v.Hash
	}
	return out
}

func TestVariantOrder(t *testing.T) {
	variants := NewResolver().Variants(map[string]interface{}{}, "")
	require.Len(t, variants, 3)
	assert.Equal(t, "checksum", variants[0].Name)
	assert.Equal(t, "custom-fingerprint", variants[1].Name)
	assert.Equal(t, "default", variants[2].Name)
}

func TestChecksumVariant(t *testing.T) {
	hashes := variantHashes(t, map[string]interface{}{
		"checksum": "abc123",
		"message":  "boom",
	})
	assert.Equal(t, "abc123", hashes["checksum"])
}

func TestFingerprintVariant(t *testing.T) {
	custom := variantHashes(t, map[string]interface{}{
		"fingerprint": []interface{}{"payments", "timeout"},
	})
	require.NotEmpty(t, custom["custom-fingerprint"])

	// The same fingerprint parts always hash identically.
	again := variantHashes(t, map[string]interface{}{
		"fingerprint": []interface{}{"payments", "timeout"},
	})
	assert.Equal(t, custom["custom-fingerprint"], again["custom-fingerprint"])

	// A pure default fingerprint defers to the default variant.
	deferred := variantHashes(t, map[string]interface{}{
		"fingerprint": []interface{}{"{{ default }}"},
	})
	assert.Empty(t, deferred["custom-fingerprint"])
}

func TestDefaultVariantPrefersStacktrace(t *testing.T) {
	withTrace := map[string]interface{}{
		"message": "boom",
		"exception": map[string]interface{}{
			"values": []interface{}{
				map[string]interface{}{
					"type": "ValueError",
					"stacktrace": map[string]interface{}{
						"frames": []interface{}{
							map[string]interface{}{"module": "app.views", "function": "index"},
						},
					},
				},
			},
		},
	}
	messageOnly := map[string]interface{}{"message": "boom"}

	traceHashes := variantHashes(t, withTrace)
	msgHashes := variantHashes(t, messageOnly)

	require.NotEmpty(t, traceHashes["default"])
	require.NotEmpty(t, msgHashes["default"])
	assert.NotEqual(t, traceHashes["default"], msgHashes["default"])
}

func TestDefaultVariantEmptyPayload(t *testing.T) {
	hashes := variantHashes(t, map[string]interface{}{})
	assert.Empty(t, hashes["checksum"])
	assert.Empty(t, hashes["custom-fingerprint"])
	assert.Empty(t, hashes["default"])
}

package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_SortsKeysByUTF16(t *testing.T) {
	// U+E000 sorts before U+1F600 in UTF-8 byte order but after it in UTF-16,
	// where the emoji is a surrogate pair starting at 0xD83D.
	got, err := Marshal(map[string]any{
		"\U0001F600": 1,
		"\uE000":     2,
		"b":          3,
		"a":          4,
	})
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":4,\"b\":3,\"\U0001F600\":1,\"\uE000\":2}", string(got))
}

func TestMarshal_NoHTMLEscaping(t *testing.T) {
	got, err := Marshal("<a & b>")
	require.NoError(t, err)
	assert.Equal(t, `"<a & b>"`, string(got))
}

func TestMarshal_NFC(t *testing.T) {
	// "e" followed by a combining acute accent normalizes to U+00E9.
	got, err := Marshal("cafe\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"caf\u00e9\"", string(got))
}

func TestMarshal_LineSeparatorsLiteral(t *testing.T) {
	got, err := Marshal("a\u2028b\u2029c")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(got))
}

func TestMarshal_EscapedBackslashBeforeU(t *testing.T) {
	got, err := Marshal(`\u2028`)
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(got))
}

func TestMarshal_Nested(t *testing.T) {
	got, err := Marshal(map[string]any{
		"items": []any{map[string]any{"type": "fee", "satoshis": int64(10)}},
		"tags":  []string{"x", "y"},
		"ok":    true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"items":[{"satoshis":10,"type":"fee"}],"ok":true,"tags":["x","y"]}`, string(got))
}

func TestMarshal_Rejects(t *testing.T) {
	tests := []struct {
		name string
		v    any
	}{
		{"null", nil},
		{"float", 1.5},
		{"nested float", map[string]any{"a": []any{float32(2)}}},
		{"struct", struct{}{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Marshal(tt.v)
			assert.Error(t, err)
		})
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	fields := map[string]any{"requestID": "a", "originator": "example.com"}

	p1, h1, err := Fingerprint(DomainRequest, fields)
	require.NoError(t, err)
	p2, h2, err := Fingerprint(DomainRequest, map[string]any{"originator": "example.com", "requestID": "a"})
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	_, h3, err := Fingerprint("other/v1", fields)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3, "domain must separate hashes")
}

func TestFingerprint_Error(t *testing.T) {
	_, _, err := Fingerprint(DomainRequest, map[string]any{"bad": 0.5})
	assert.Error(t, err)
}

func TestHash_MatchesFingerprint(t *testing.T) {
	payload, h, err := Fingerprint(DomainRequest, map[string]any{"requestID": "a"})
	require.NoError(t, err)
	assert.Equal(t, h, Hash(DomainRequest, payload))
	assert.NotEqual(t, h, Hash(DomainSnapshot, payload))
}

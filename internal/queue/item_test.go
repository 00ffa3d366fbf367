package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodePayloadRoundTrip(t *testing.T) {
	payload, err := EncodePayload(2, map[string]string{"to": "ops@example.com"})
	require.NoError(t, err)

	env, err := DecodePayload(payload)
	require.NoError(t, err)
	assert.Equal(t, 2, env.SchemaVersion)

	var body struct {
		To string `json:"to"`
	}
	require.NoError(t, env.UnmarshalBody(&body))
	assert.Equal(t, "ops@example.com", body.To)
}

func TestDecodePayloadRejectsBadData(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
	}{
		{"not json", []byte(`{{{{`)},
		{"missing version", []byte(`{"body":{}}`)},
		{"zero version", []byte(`{"schema_version":0,"body":{}}`)},
		{"negative version", []byte(`{"schema_version":-1,"body":{}}`)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodePayload(tc.raw)
			assert.ErrorIs(t, err, ErrPayloadSchema)
		})
	}
}

func TestItemExhausted(t *testing.T) {
	assert.False(t, Item{Status: ItemStatusPending, Attempts: 5}.Exhausted(5))
	assert.False(t, Item{Status: ItemStatusFailed, Attempts: 4}.Exhausted(5))
	assert.True(t, Item{Status: ItemStatusFailed, Attempts: 5}.Exhausted(5))
	assert.True(t, Item{Status: ItemStatusFailed, Attempts: 6}.Exhausted(5))
}

package messages

import (
	"bytes"
	"testing"

	"github.com/cbodonnell/reactions/pkg/game/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressRoundTrip(t *testing.T) {
	body := []byte(`{"error":null,"result":{"game":{"id":42}}}`)
	for _, encoding := range []string{"", EncodingIdentity, EncodingZstd, EncodingGzip} {
		t.Run(encoding, func(t *testing.T) {
			compressed, err := Compress(body, encoding)
			require.NoError(t, err)
			out, err := Decompress(bytes.NewReader(compressed), encoding)
			require.NoError(t, err)
			assert.Equal(t, body, out)
		})
	}

	_, err := Decompress(bytes.NewReader(body), "br")
	assert.Error(t, err)
}

func TestDeserializeEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "error only", body: `{"error":"nope","result":null}`},
		{name: "game and participant", body: `{"result":{"game":{"id":42,"round":1,"currentAsset":{"id":10,"sourceUrl":"https://cdn/a.mp4"},"assetQueue":[{"id":11,"sourceUrl":"https://cdn/b.gif"}]},"participant":{"id":7,"displayName":"kim"}}}`},
		{name: "not json", body: `{`, wantErr: true},
		{name: "game id is a string", body: `{"result":{"game":{"id":"42"}}}`, wantErr: true},
		{name: "asset without url", body: `{"result":{"game":{"id":42,"assetQueue":[{"id":11}]}}}`, wantErr: true},
		{name: "participant without id", body: `{"result":{"participant":{"displayName":"kim"}}}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envelope, err := DeserializeEnvelope([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, envelope)
		})
	}

	envelope, err := DeserializeEnvelope([]byte(`{"result":{"game":{"id":42,"assetQueue":[{"id":11,"sourceUrl":"https://cdn/b.gif"}]}}}`))
	require.NoError(t, err)
	require.NotNil(t, envelope.Result)
	assert.Equal(t, int64(42), envelope.Result.Game.ID)
	head, ok := envelope.Result.Game.QueueHead()
	assert.True(t, ok)
	assert.Equal(t, int64(11), head.ID)
	assert.Nil(t, envelope.Result.Participant)
}

func TestSerializeRequest(t *testing.T) {
	sessionID := int64(42)
	b, err := SerializeRequest(&Request{
		Action:    constants.ActionPollSnapshot,
		SessionID: &sessionID,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"pollSnapshot","payload":{},"sessionId":42,"appIsActive":false}`, string(b))
}

package chat

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Inbound
	}{
		{
			name: "join",
			raw:  `{"event":"join","data":{"username":"alice","room":"general"}}`,
			want: Inbound{Event: EventJoin, Join: &JoinPayload{Username: "alice", Room: "general"}},
		},
		{
			name: "message",
			raw:  `{"event":"message","data":{"content":"hi","room":"general"}}`,
			want: Inbound{Event: EventMessage, Message: &MessagePayload{Content: "hi", Room: "general"}},
		},
		{
			name: "typing",
			raw:  `{"event":"typing","data":{"isTyping":true,"room":"general"}}`,
			want: Inbound{Event: EventTyping, Typing: &TypingPayload{IsTyping: true, Room: "general"}},
		},
		{
			name: "missing data yields zero payload",
			raw:  `{"event":"join"}`,
			want: Inbound{Event: EventJoin, Join: &JoinPayload{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInbound([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeInboundErrors(t *testing.T) {
	_, err := DecodeInbound([]byte(`{"event":"disconnect"}`))
	assert.True(t, errors.Is(err, ErrUnknownEvent))

	_, err = DecodeInbound([]byte(`not json`))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnknownEvent))

	_, err = DecodeInbound([]byte(`{"event":"typing","data":{"isTyping":"yes"}}`))
	assert.ErrorContains(t, err, "decode typing payload")
}

func TestOutboundFrames(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	b, err := SystemMessage("alice has joined the chat", at).MarshalFrame()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"message","data":{"type":"system","content":"alice has joined the chat","timestamp":"2024-05-01T12:00:00Z"}}`, string(b))

	b, err = UserMessage("alice", "hi", at).MarshalFrame()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"message","data":{"type":"user","username":"alice","content":"hi","timestamp":"2024-05-01T12:00:00Z"}}`, string(b))

	b, err = UserList(nil).MarshalFrame()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"userList","data":[]}`, string(b))

	b, err = TypingUsers([]string{"bob"}).MarshalFrame()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"typingUsers","data":["bob"]}`, string(b))
}

func TestUserMessageKeepsEmptyUsername(t *testing.T) {
	b, err := UserMessage("", "hi", time.Unix(0, 0).UTC()).MarshalFrame()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"message","data":{"type":"user","username":"","content":"hi","timestamp":"1970-01-01T00:00:00Z"}}`, string(b))

	b, err = SystemMessage(" has joined the chat", time.Unix(0, 0).UTC()).MarshalFrame()
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"username"`)
}

func TestEnvelopeTimestampRoundTrips(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 123000000, time.UTC)
	b, err := json.Marshal(Envelope{Type: MessageTypeUser, Username: "a", Content: "c", Timestamp: at})
	require.NoError(t, err)

	var got Envelope
	require.NoError(t, json.Unmarshal(b, &got))
	assert.True(t, at.Equal(got.Timestamp))
}

package ocppj

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

func TestParseFrame(t *testing.T) {
	t.Run("call", func(t *testing.T) {
		f, err := ParseFrame([]byte(`[2,"19223201","BootNotification",{"reason":"PowerUp"}]`))
		require.NoError(t, err)
		assert.Equal(t, TypeCall, f.Type)
		assert.Equal(t, "19223201", f.ID)
		assert.Equal(t, ocpp.ActionBootNotification, f.Action)
		assert.JSONEq(t, `{"reason":"PowerUp"}`, string(f.Payload))
	})

	t.Run("call result", func(t *testing.T) {
		f, err := ParseFrame([]byte(`[3,"42",{"status":"Accepted"}]`))
		require.NoError(t, err)
		assert.Equal(t, TypeCallResult, f.Type)
		assert.JSONEq(t, `{"status":"Accepted"}`, string(f.Payload))
	})

	t.Run("call error", func(t *testing.T) {
		f, err := ParseFrame([]byte(`[4,"42","NotSupported","no reset",{"hint":"x"}]`))
		require.NoError(t, err)
		assert.Equal(t, TypeCallError, f.Type)
		assert.Equal(t, "NotSupported", f.ErrorCode)
		assert.Equal(t, "no reset", f.ErrorDescription)
		assert.Equal(t, map[string]any{"hint": "x"}, f.ErrorDetails)
	})

	t.Run("call error without details", func(t *testing.T) {
		f, err := ParseFrame([]byte(`[4,"42","GenericError",""]`))
		require.NoError(t, err)
		assert.Nil(t, f.ErrorDetails)
	})
}

func TestParseFrame_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantID string
		err    error
	}{
		{"not json", `hello`, "", ErrMalformedFrame},
		{"object", `{"a":1}`, "", ErrMalformedFrame},
		{"too short", `[2,"1"]`, "", ErrMalformedFrame},
		{"bad type", `["2","1","Heartbeat",{}]`, "", ErrMalformedFrame},
		{"numeric id", `[2,1,"Heartbeat",{}]`, "", ErrMalformedFrame},
		{"call missing payload", `[2,"7","Heartbeat"]`, "7", ErrMalformedFrame},
		{"call bad action", `[2,"7",5,{}]`, "7", ErrMalformedFrame},
		{"unknown type", `[9,"8",{}]`, "8", ErrUnknownMessageType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFrame([]byte(tt.input))
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.wantID, f.ID)
		})
	}
}

func TestFrame_Encode(t *testing.T) {
	call, err := Frame{Type: TypeCall, ID: "1", Action: ocpp.ActionReset, Payload: json.RawMessage(`{"type":"Immediate"}`)}.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `[2,"1","Reset",{"type":"Immediate"}]`, string(call))

	result, err := Frame{Type: TypeCallResult, ID: "1"}.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `[3,"1",{}]`, string(result))

	callErr, err := callErrorFrame("1", ocpp.CodeNotImplemented, "nope", nil).Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `[4,"1","NotImplemented","nope",{}]`, string(callErr))

	_, err = Frame{Type: 7}.Encode()
	assert.ErrorIs(t, err, ErrUnknownMessageType)
}

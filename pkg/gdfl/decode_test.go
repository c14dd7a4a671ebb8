package gdfl

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// go test -v --run TestDecodeRealtime
func TestDecodeRealtime(t *testing.T) {
	msg, ok, err := DecodeRealtime([]byte(`{"MessageType":"RealtimeResult","InstrumentIdentifier":"BANKNIFTY27JAN2660100CE","OpenInterest":1200,"LastTradePrice":310.5}`))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "BANKNIFTY27JAN2660100CE", msg.InstrumentIdentifier)
	require.NotNil(t, msg.OpenInterest)
	assert.Equal(t, 1200.0, *msg.OpenInterest)
	require.NotNil(t, msg.LastTradePrice)
	assert.Equal(t, 310.5, *msg.LastTradePrice)
}

func TestDecodeRealtimeAbsentFields(t *testing.T) {
	msg, ok, err := DecodeRealtime([]byte(`{"MessageType":"RealtimeResult","InstrumentIdentifier":"BANKNIFTY27JAN26FUT","LastTradePrice":52345.6}`))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, msg.OpenInterest)
	assert.Equal(t, 52345.6, *msg.LastTradePrice)
}

func TestDecodeRealtimeIgnoresOtherShapes(t *testing.T) {
	for _, frame := range []string{
		`{"MessageType":"Echo"}`,
		`{"Complete":true}`,
		`{"MessageType":"RealtimeResult"}`,
	} {
		_, ok, err := DecodeRealtime([]byte(frame))
		assert.NoError(t, err, frame)
		assert.False(t, ok, frame)
	}
}

func TestDecodeRealtimeMalformed(t *testing.T) {
	_, ok, err := DecodeRealtime([]byte(`{"MessageType":`))
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestDecodeAuthenticate(t *testing.T) {
	resp, err := DecodeAuthenticate([]byte(`{"Complete":true,"Comment":"ok"}`))
	require.NoError(t, err)
	assert.True(t, resp.Complete)

	resp, err = DecodeAuthenticate([]byte(`{}`))
	require.NoError(t, err)
	assert.False(t, resp.Complete)
}

func TestSubscribeWireFormat(t *testing.T) {
	data, err := json.Marshal(SubscribeRealtimeRequest{
		MessageType:          MessageTypeSubscribeRealtime,
		Exchange:             "NFO",
		Unsubscribe:          "false",
		InstrumentIdentifier: "BANKNIFTY27JAN26FUT",
	})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"MessageType":"SubscribeRealtime","Exchange":"NFO","Unsubscribe":"false","InstrumentIdentifier":"BANKNIFTY27JAN26FUT"}`,
		string(data))
}

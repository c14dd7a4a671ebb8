package gdfl

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// DecodeRealtime parses an inbound frame. It returns ok=false without an
// error for well-formed frames that are not realtime results, and an error
// only when the payload cannot be parsed at all.
func DecodeRealtime(data []byte) (RealtimeResult, bool, error) {
	var msg RealtimeResult
	if err := sonic.Unmarshal(data, &msg); err != nil {
		return RealtimeResult{}, false, fmt.Errorf("decode frame: %w", err)
	}
	if msg.MessageType != MessageTypeRealtimeResult || msg.InstrumentIdentifier == "" {
		return RealtimeResult{}, false, nil
	}
	return msg, true, nil
}

// DecodeAuthenticate parses the authentication acknowledgement.
func DecodeAuthenticate(data []byte) (AuthenticateResponse, error) {
	var resp AuthenticateResponse
	if err := sonic.Unmarshal(data, &resp); err != nil {
		return AuthenticateResponse{}, fmt.Errorf("decode auth response: %w", err)
	}
	return resp, nil
}

package gdfl

const (
	MessageTypeAuthenticate      = "Authenticate"
	MessageTypeSubscribeRealtime = "SubscribeRealtime"
	MessageTypeRealtimeResult    = "RealtimeResult"
)

// AuthenticateRequest is the first frame sent on every connection.
type AuthenticateRequest struct {
	MessageType string `json:"MessageType"`
	Password    string `json:"Password"`
}

// AuthenticateResponse acknowledges the credential. Complete is false (or
// absent) when the feed rejected it.
type AuthenticateResponse struct {
	Complete bool   `json:"Complete"`
	Comment  string `json:"Comment,omitempty"`
}

// SubscribeRealtimeRequest subscribes to one instrument. Unsubscribe is the
// string "false", not a boolean, on the wire.
type SubscribeRealtimeRequest struct {
	MessageType          string `json:"MessageType"`
	Exchange             string `json:"Exchange"`
	Unsubscribe          string `json:"Unsubscribe"`
	InstrumentIdentifier string `json:"InstrumentIdentifier"`
}

// RealtimeResult is a streamed tick. Either numeric field may be absent.
type RealtimeResult struct {
	MessageType          string   `json:"MessageType"`
	InstrumentIdentifier string   `json:"InstrumentIdentifier"`
	OpenInterest         *float64 `json:"OpenInterest"`
	LastTradePrice       *float64 `json:"LastTradePrice"`
}

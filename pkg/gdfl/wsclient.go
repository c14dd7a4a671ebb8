package gdfl

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// WSClient is one websocket connection to the realtime feed. It is not
// reused: a reconnect creates a new client.
type WSClient struct {
	url              string
	exchange         string
	handshakeTimeout time.Duration
	limiter          *rate.Limiter
	conn             *websocket.Conn
	logger           *zap.Logger
}

// NewWSClient creates a client for url. subscribeRate caps subscription
// frames per second; zero or less sends them back to back.
func NewWSClient(url, exchange string, handshakeTimeout time.Duration, subscribeRate float64, logger *zap.Logger) *WSClient {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if subscribeRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(subscribeRate), 1)
	}
	if handshakeTimeout <= 0 {
		handshakeTimeout = 10 * time.Second
	}
	return &WSClient{
		url:              url,
		exchange:         exchange,
		handshakeTimeout: handshakeTimeout,
		limiter:          limiter,
		logger:           logger,
	}
}

// Connect dials the feed.
func (c *WSClient) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial %s: %w", c.url, err)
	}
	c.conn = conn
	c.logger.Info("websocket connected", zap.String("url", c.url))
	return nil
}

// Authenticate sends the credential and waits for the acknowledgement.
// The returned error covers transport failures only; a rejected credential
// is reported through AuthenticateResponse.Complete. An acknowledgement that
// cannot be parsed is returned as a rejection carrying the raw payload.
func (c *WSClient) Authenticate(password string) (AuthenticateResponse, error) {
	req := AuthenticateRequest{MessageType: MessageTypeAuthenticate, Password: password}
	if err := c.writeJSON(req); err != nil {
		return AuthenticateResponse{}, fmt.Errorf("send authenticate: %w", err)
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(c.handshakeTimeout)); err != nil {
		return AuthenticateResponse{}, fmt.Errorf("set read deadline: %w", err)
	}
	_, msg, err := c.conn.ReadMessage()
	if err != nil {
		return AuthenticateResponse{}, fmt.Errorf("read authenticate response: %w", err)
	}
	if err := c.conn.SetReadDeadline(time.Time{}); err != nil {
		return AuthenticateResponse{}, fmt.Errorf("clear read deadline: %w", err)
	}

	resp, err := DecodeAuthenticate(msg)
	if err != nil {
		return AuthenticateResponse{Complete: false, Comment: string(msg)}, nil
	}
	return resp, nil
}

// Subscribe requests realtime updates for one instrument.
func (c *WSClient) Subscribe(ctx context.Context, instrument string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	req := SubscribeRealtimeRequest{
		MessageType:          MessageTypeSubscribeRealtime,
		Exchange:             c.exchange,
		Unsubscribe:          "false",
		InstrumentIdentifier: instrument,
	}
	if err := c.writeJSON(req); err != nil {
		return fmt.Errorf("subscribe %s: %w", instrument, err)
	}
	return nil
}

// SubscribeAll subscribes to every instrument in order and returns how many
// frames were sent.
func (c *WSClient) SubscribeAll(ctx context.Context, instruments []string) (int, error) {
	for i, id := range instruments {
		if err := c.Subscribe(ctx, id); err != nil {
			return i, err
		}
	}
	return len(instruments), nil
}

// ReadMessage blocks for the next frame.
func (c *WSClient) ReadMessage() ([]byte, error) {
	_, msg, err := c.conn.ReadMessage()
	return msg, err
}

// Close sends a close frame and releases the connection. It may be called
// concurrently with ReadMessage to unblock it.
func (c *WSClient) Close() error {
	if c.conn == nil {
		return nil
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}

func (c *WSClient) writeJSON(v any) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.handshakeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

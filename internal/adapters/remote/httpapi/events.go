package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	baseReconnectDelay = time.Second
	maxReconnectDelay  = 2 * time.Minute
	wsHandshakeWait    = 15 * time.Second
	wsPongWait         = 70 * time.Second
	wsMaxMessageSize   = 1 << 20
)

// Listen follows the customer-info event stream and forwards every update of
// the configured entitlement to the installed listener. It reconnects with
// exponential backoff and returns only when ctx is done.
func (c *Client) Listen(ctx context.Context) error {
	failures := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		delivered, err := c.stream(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if delivered {
			failures = 0
		}
		failures++

		delay := backoffDelay(failures)
		if failures >= 3 {
			c.logger.Warn().Err(err).Int("failures", failures).Dur("retry_in", delay).Msg("entitlement event stream failing")
		} else {
			c.logger.Debug().Err(err).Dur("retry_in", delay).Msg("entitlement event stream interrupted")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// stream runs one connection. delivered reports whether at least one event
// arrived before it ended.
func (c *Client) stream(ctx context.Context) (bool, error) {
	dialer := websocket.Dialer{HandshakeTimeout: wsHandshakeWait}

	header := http.Header{}
	header.Set("User-Agent", userAgent)
	if c.apiKey != "" {
		header.Set("Authorization", "Bearer "+c.apiKey)
	}

	conn, _, err := dialer.DialContext(ctx, c.eventsURL, header)
	if err != nil {
		return false, fmt.Errorf("dial event stream: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	conn.SetReadLimit(wsMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	c.logger.Debug().Str("url", c.eventsURL).Msg("entitlement event stream connected")

	delivered := false
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return delivered, fmt.Errorf("read event: %w", err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))

		if c.handleEvent(message) {
			delivered = true
		}
	}
}

func (c *Client) handleEvent(message []byte) bool {
	var event eventPayload
	if err := json.Unmarshal(message, &event); err != nil {
		c.logger.Debug().Err(err).Msg("skip malformed entitlement event")
		return false
	}
	if event.Type != eventCustomerInfo || event.Subscriber == nil {
		return false
	}

	entitlement, err := c.entitlementFrom(*event.Subscriber)
	if err != nil {
		c.logger.Debug().Err(err).Msg("skip undecodable entitlement event")
		return false
	}

	c.notify(entitlement)
	return true
}

func backoffDelay(failures int) time.Duration {
	delay := baseReconnectDelay
	for i := 1; i < failures && delay < maxReconnectDelay; i++ {
		delay *= 2
	}
	if delay > maxReconnectDelay {
		delay = maxReconnectDelay
	}

	return delay
}

package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"

	"github.com/parsifal-shop/storefront-client/pkg/logger"
)

// Handler receives one raw chat message. The payload is opaque to this
// package.
type Handler func(ctx context.Context, data []byte)

// Options configures the chat subscriber.
type Options struct {
	URL              string
	ReconnectMin     time.Duration
	ReconnectMax     time.Duration
	HandshakeTimeout time.Duration
}

// Subscriber maintains a websocket connection to the chat channel and
// delivers messages to its handler, reconnecting with capped exponential
// backoff until the context is cancelled. The cart and media engines never
// touch it.
type Subscriber struct {
	opts    Options
	handler Handler
	logg    *logger.Logger
}

func NewSubscriber(opts Options, handler Handler, logg *logger.Logger) (*Subscriber, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("chat url required")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.ReconnectMin <= 0 {
		opts.ReconnectMin = time.Second
	}
	if opts.ReconnectMax < opts.ReconnectMin {
		opts.ReconnectMax = 30 * time.Second
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	return &Subscriber{opts: opts, handler: handler, logg: logg}, nil
}

// Run blocks until ctx is cancelled, dialing and re-dialing the chat channel
// as connections drop.
func (s *Subscriber) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		conn, err := s.dial(ctx)
		if err != nil {
			// backoff exhausted only on context cancellation
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		s.logg.Info(ctx, "chat channel connected")
		s.readLoop(ctx, conn)

		if ctx.Err() != nil {
			return nil
		}
		s.logg.Warn(ctx, "chat channel disconnected, reconnecting")
	}
}

func (s *Subscriber) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: s.opts.HandshakeTimeout}

	backoff := retry.NewExponential(s.opts.ReconnectMin)
	backoff = retry.WithCappedDuration(s.opts.ReconnectMax, backoff)
	backoff = retry.WithJitterPercent(20, backoff)

	var conn *websocket.Conn
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		dialed, _, err := dialer.DialContext(ctx, s.opts.URL, nil)
		if err != nil {
			s.logg.Warn(ctx, "chat dial failed, will retry")
			return retry.RetryableError(err)
		}
		conn = dialed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (s *Subscriber) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer func() {
		if err := conn.Close(); err != nil {
			s.logg.Warn(ctx, "failed to close chat connection")
		}
	}()

	// unblock ReadMessage when the context ends
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s.handler(ctx, data)
	}
}

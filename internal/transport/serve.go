package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/cartridge/arena-agent/internal/game"
)

// Handler reacts to one match worth of server messages.
type Handler interface {
	Reset(constants game.Constants)
	Order(view game.Game) (game.Order, error)
	Finish() error
}

// Serve dispatches server messages to h until the match finishes. It
// returns nil after Finish has been handled. Cancelling ctx closes conn.
func Serve(ctx context.Context, conn *Conn, h Handler) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("read message: %w", err)
		}

		switch m := msg.(type) {
		case UpdateConstants:
			h.Reset(m.Constants)
		case GetOrder:
			order, err := h.Order(m.PlayerView)
			if err != nil {
				return fmt.Errorf("compute order for tick %d: %w", m.PlayerView.CurrentTick, err)
			}
			if err := conn.WriteOrder(order); err != nil {
				return err
			}
		case DebugUpdate:
			if err := conn.WriteDebugUpdateDone(); err != nil {
				return err
			}
		case Finish:
			return h.Finish()
		default:
			return fmt.Errorf("%w: %T", ErrUnexpectedMessage, msg)
		}
	}
}

// DialConfig controls how the client reaches the game server.
type DialConfig struct {
	Addr    string
	Token   string
	Backoff time.Duration
	Logger  zerolog.Logger
}

// Dial connects and performs the handshake, retrying every Backoff while
// the server refuses connections. It gives up only when ctx is done.
func Dial(ctx context.Context, cfg DialConfig) (*Conn, error) {
	var dialer net.Dialer
	for attempt := 1; ; attempt++ {
		cfg.Logger.Debug().
			Str("addr", cfg.Addr).
			Int("attempt", attempt).
			Msg("Attempting to connect")

		nc, err := dialer.DialContext(ctx, "tcp", cfg.Addr)
		if err == nil {
			if tcp, ok := nc.(*net.TCPConn); ok {
				_ = tcp.SetNoDelay(true)
			}
			conn := NewConn(nc)
			if err := conn.Handshake(cfg.Token); err != nil {
				conn.Close()
				return nil, err
			}
			cfg.Logger.Info().Str("addr", cfg.Addr).Int("attempts", attempt).Msg("Connected to game server")
			return conn, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var opErr *net.OpError
		if !errors.As(err, &opErr) {
			return nil, fmt.Errorf("dial %s: %w", cfg.Addr, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.Backoff):
		}
	}
}

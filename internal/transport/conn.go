// Package transport speaks the game server's framed stream protocol.
package transport

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cartridge/arena-agent/internal/game"
)

// ProtocolVersion is sent during the handshake.
var ProtocolVersion = [3]int32{1, 0, 1}

// Conn is a client connection to the game server. It is not safe for
// concurrent use apart from Close.
type Conn struct {
	r      *bufio.Reader
	w      *bufio.Writer
	closer io.Closer
}

// NewConn wraps an established stream.
func NewConn(rwc io.ReadWriteCloser) *Conn {
	return &Conn{
		r:      bufio.NewReader(rwc),
		w:      bufio.NewWriter(rwc),
		closer: rwc,
	}
}

// Handshake sends the player token and the protocol version.
func (c *Conn) Handshake(token string) error {
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(token)))
	if _, err := c.w.Write(size[:]); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	if _, err := c.w.WriteString(token); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	if err := binary.Write(c.w, binary.LittleEndian, ProtocolVersion); err != nil {
		return fmt.Errorf("write protocol version: %w", err)
	}
	return c.flush()
}

// ReadMessage blocks for the next server message.
func (c *Conn) ReadMessage() (ServerMessage, error) {
	tag, payload, err := ReadFrame(c.r)
	if err != nil {
		return nil, err
	}
	return DecodeServerMessage(tag, payload)
}

// WriteOrder sends the order for the current tick.
func (c *Conn) WriteOrder(order game.Order) error {
	if err := WriteFrame(c.w, TagOrder, OrderMessage{Order: order}); err != nil {
		return err
	}
	return c.flush()
}

// WriteDebugUpdateDone acknowledges a debug update.
func (c *Conn) WriteDebugUpdateDone() error {
	if err := WriteFrame(c.w, TagDebugUpdateDone, DebugUpdateDone{}); err != nil {
		return err
	}
	return c.flush()
}

// Close closes the underlying stream.
func (c *Conn) Close() error {
	return c.closer.Close()
}

func (c *Conn) flush() error {
	if err := c.w.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

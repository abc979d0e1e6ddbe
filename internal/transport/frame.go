package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrUnexpectedMessage is returned for a frame outside the protocol. It is
// fatal: the stream position can no longer be trusted.
var ErrUnexpectedMessage = errors.New("unexpected server message")

// ErrFrameTooLarge is returned when a frame header announces a payload
// above MaxFrameSize.
var ErrFrameTooLarge = errors.New("frame too large")

// MaxFrameSize bounds a single payload.
const MaxFrameSize = 64 << 20

const headerSize = 8

// WriteFrame writes tag, payload length and the msgpack encoding of v.
func WriteFrame(w io.Writer, tag Tag, v interface{}) error {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", tag, err)
	}
	var header [headerSize]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(tag))
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads one frame and returns its tag and raw payload.
func ReadFrame(r io.Reader) (Tag, []byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, err
	}
	tag := Tag(int32(binary.LittleEndian.Uint32(header[0:4])))
	size := binary.LittleEndian.Uint32(header[4:8])
	if size > MaxFrameSize {
		return 0, nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("read frame payload: %w", err)
	}
	return tag, payload, nil
}

// DecodeServerMessage decodes a server frame payload by tag.
func DecodeServerMessage(tag Tag, payload []byte) (ServerMessage, error) {
	var msg ServerMessage
	switch tag {
	case TagUpdateConstants:
		var m UpdateConstants
		if err := msgpack.Unmarshal(payload, &m); err != nil {
			return nil, fmt.Errorf("decode update constants: %w", err)
		}
		msg = m
	case TagGetOrder:
		var m GetOrder
		if err := msgpack.Unmarshal(payload, &m); err != nil {
			return nil, fmt.Errorf("decode get order: %w", err)
		}
		msg = m
	case TagFinish:
		msg = Finish{}
	case TagDebugUpdate:
		var m DebugUpdate
		if err := msgpack.Unmarshal(payload, &m); err != nil {
			return nil, fmt.Errorf("decode debug update: %w", err)
		}
		msg = m
	default:
		return nil, fmt.Errorf("%w: tag %d", ErrUnexpectedMessage, tag)
	}
	return msg, nil
}

// WriteServerMessage frames a server message. Game server simulators use it.
func WriteServerMessage(w io.Writer, msg ServerMessage) error {
	return WriteFrame(w, msg.serverTag(), msg)
}

package transport

import (
	"github.com/cartridge/arena-agent/internal/game"
)

// Tag identifies a frame's payload type.
type Tag int32

// Server to client tags.
const (
	TagUpdateConstants Tag = 0
	TagGetOrder        Tag = 1
	TagFinish          Tag = 2
	TagDebugUpdate     Tag = 3
)

// Client to server tags.
const (
	TagOrder           Tag = 1
	TagDebugUpdateDone Tag = 2
)

// ServerMessage is the closed set of messages the game server sends.
type ServerMessage interface {
	serverTag() Tag
}

// UpdateConstants starts a match.
type UpdateConstants struct {
	Constants game.Constants `msgpack:"constants"`
}

// GetOrder requests the order for the current tick.
type GetOrder struct {
	PlayerView     game.Game `msgpack:"player_view"`
	DebugAvailable bool      `msgpack:"debug_available"`
}

// Finish ends the match.
type Finish struct{}

// DebugUpdate asks the client to refresh debug drawing.
type DebugUpdate struct {
	DisplayedTick int32 `msgpack:"displayed_tick"`
}

func (UpdateConstants) serverTag() Tag { return TagUpdateConstants }
func (GetOrder) serverTag() Tag { return TagGetOrder }
func (Finish) serverTag() Tag { return TagFinish }
func (DebugUpdate) serverTag() Tag { return TagDebugUpdate }

// OrderMessage carries the client's order for one tick.
type OrderMessage struct {
	Order game.Order `msgpack:"order"`
}

// DebugUpdateDone acknowledges a DebugUpdate.
type DebugUpdateDone struct{}

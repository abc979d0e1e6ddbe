package game

// ActionKind is the closed set of discrete per-tick sub-actions.
type ActionKind int32

const (
	ActionNone ActionKind = iota
	ActionAim
	ActionPickup
	ActionUseShieldPotion
)

// ActionKindCount is the number of discrete buckets.
const ActionKindCount = 4

func (k ActionKind) String() string {
	switch k {
	case ActionNone:
		return "none"
	case ActionAim:
		return "aim"
	case ActionPickup:
		return "pickup"
	case ActionUseShieldPotion:
		return "use_shield_potion"
	default:
		return "unknown"
	}
}

// ActionOrder is a tagged variant: Shoot is read for ActionAim, LootID for
// ActionPickup. ActionNone carries nothing.
type ActionOrder struct {
	Kind   ActionKind `msgpack:"kind"`
	Shoot  bool       `msgpack:"shoot,omitempty"`
	LootID int32      `msgpack:"loot_id,omitempty"`
}

// UnitOrder is the command for a single unit for one tick.
type UnitOrder struct {
	TargetVelocity  Vec2        `msgpack:"target_velocity"`
	TargetDirection Vec2        `msgpack:"target_direction"`
	Action          ActionOrder `msgpack:"action"`
}

// Order maps unit ids to their orders.
type Order struct {
	UnitOrders map[int32]UnitOrder `msgpack:"unit_orders"`
}

// EmptyOrder is an order that commands nothing.
func EmptyOrder() Order {
	return Order{UnitOrders: map[int32]UnitOrder{}}
}

package policy

import (
	"math"

	"github.com/cartridge/arena-agent/internal/game"
)

// Bucket quantizes the selector dimension into one of the discrete action
// kinds. Values at or past the upper bound land in the last bucket.
func Bucket(selector float64) game.ActionKind {
	idx := int(math.Floor(selector * game.ActionKindCount))
	if idx < 0 {
		idx = 0
	}
	if idx >= game.ActionKindCount {
		idx = game.ActionKindCount - 1
	}
	return game.ActionKind(idx)
}

// Decode turns a normalized action vector into the order for unit.
// Movement is rescaled to the maximum forward speed, a (0,0) movement pair
// decodes to standing still. Pickup targets the visible loot nearest to
// the unit and degrades to no action when nothing is visible.
func Decode(action []float64, c game.Constants, unit game.Unit, loot []game.Loot) game.UnitOrder {
	move := game.Vec2{X: action[MoveX], Y: action[MoveY]}
	order := game.UnitOrder{
		TargetVelocity:  move.WithLength(c.MaxUnitForwardSpeed),
		TargetDirection: game.Vec2{X: action[AimX], Y: action[AimY]},
	}

	switch Bucket(action[Selector]) {
	case game.ActionAim:
		order.Action = game.ActionOrder{Kind: game.ActionAim, Shoot: true}
	case game.ActionPickup:
		if id, ok := nearestLoot(unit.Position, loot); ok {
			order.Action = game.ActionOrder{Kind: game.ActionPickup, LootID: id}
		}
	case game.ActionUseShieldPotion:
		order.Action = game.ActionOrder{Kind: game.ActionUseShieldPotion}
	}
	return order
}

// Encode maps an order back to a normalized action vector. The selector is
// placed at the midpoint of the order's bucket.
func Encode(order game.UnitOrder, c game.Constants) []float64 {
	move := order.TargetVelocity
	if c.MaxUnitForwardSpeed > 0 {
		move = move.Scale(1 / c.MaxUnitForwardSpeed)
	}
	return []float64{
		move.X, move.Y,
		order.TargetDirection.X, order.TargetDirection.Y,
		(float64(order.Action.Kind) + 0.5) / game.ActionKindCount,
	}
}

func nearestLoot(pos game.Vec2, loot []game.Loot) (int32, bool) {
	best := math.Inf(1)
	var id int32
	found := false
	for _, l := range loot {
		d := game.SqrDistance(pos, l.Position)
		if d < best {
			best = d
			id = l.ID
			found = true
		}
	}
	return id, found
}

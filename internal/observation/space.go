// Package observation flattens a game tick into a fixed-length feature
// vector for the learner.
package observation

import (
	"github.com/cartridge/arena-agent/internal/game"
)

// Per-entity attribute widths.
const (
	ZoneWidth       = 6 // current centre (2), current radius, next centre (2), next radius
	LootWidth       = 3 // position (2), item kind
	ObstacleWidth   = 3 // position (2), can shoot through
	ProjectileWidth = 6 // weapon type, position (2), velocity (2), life time

	// unitFixedWidth counts every unit attribute except the ammo table:
	// health, shield, position (2), velocity (2), direction (2), aim,
	// action (2), weapon, next shot tick, shield potions.
	unitFixedWidth = 14
)

// noWeapon encodes an empty weapon slot; weapon type indexes start at 0.
const noWeapon = -1

// Space describes the slot caps of the observation vector. Its zero value
// is not usable; start from DefaultSpace.
type Space struct {
	MaxUnits       int
	MaxLoot        int
	MaxObstacles   int
	MaxProjectiles int
	// AmmoSlots is the fixed size of the per-unit ammo table.
	AmmoSlots int
	// ObstacleRange is the half-size of the square around the self unit
	// from which obstacles are taken.
	ObstacleRange float64
}

// DefaultSpace returns the caps used in live matches.
func DefaultSpace() Space {
	return Space{
		MaxUnits:       5,
		MaxLoot:        10,
		MaxObstacles:   6,
		MaxProjectiles: 30,
		AmmoSlots:      3,
		ObstacleRange:  25,
	}
}

// UnitWidth is the number of scalars contributed by one unit slot.
func (s Space) UnitWidth() int {
	return unitFixedWidth + s.AmmoSlots
}

// Dim is the length of every vector produced by Encode.
func (s Space) Dim() int {
	return ZoneWidth +
		s.MaxUnits*s.UnitWidth() +
		s.MaxLoot*LootWidth +
		s.MaxObstacles*ObstacleWidth +
		s.MaxProjectiles*ProjectileWidth
}

// Encode maps a tick to a vector of length Dim. Layout: zone, self unit,
// other units, loot, nearby obstacles, projectiles. Entities past a cap are
// dropped in list order and unused slots are zero. A missing self unit is
// encoded as an all-zero unit record, like an empty opponent slot.
func (s Space) Encode(g game.Game, c game.Constants) []float64 {
	out := make([]float64, 0, s.Dim())

	z := g.Zone
	out = append(out,
		z.CurrentCenter.X, z.CurrentCenter.Y, z.CurrentRadius,
		z.NextCenter.X, z.NextCenter.Y, z.NextRadius,
	)

	self, ok := g.SelfUnit()
	if ok {
		out = s.appendUnit(out, self)
	} else {
		out = pad(out, s.UnitWidth())
	}

	others := 0
	for _, u := range g.Units {
		if u.PlayerID == g.MyID {
			continue
		}
		if others == s.MaxUnits-1 {
			break
		}
		out = s.appendUnit(out, u)
		others++
	}
	out = pad(out, (s.MaxUnits-1-others)*s.UnitWidth())

	n := 0
	for _, l := range g.Loot {
		if n == s.MaxLoot {
			break
		}
		out = append(out, l.Position.X, l.Position.Y, float64(l.Item.Kind))
		n++
	}
	out = pad(out, (s.MaxLoot-n)*LootWidth)

	n = 0
	for _, o := range game.ObstaclesNear(self.Position, c.Obstacles, s.ObstacleRange) {
		if n == s.MaxObstacles {
			break
		}
		out = append(out, o.Position.X, o.Position.Y, boolFloat(o.CanShootThrough))
		n++
	}
	out = pad(out, (s.MaxObstacles-n)*ObstacleWidth)

	n = 0
	for _, p := range g.Projectiles {
		if n == s.MaxProjectiles {
			break
		}
		out = append(out,
			float64(p.WeaponTypeIndex),
			p.Position.X, p.Position.Y,
			p.Velocity.X, p.Velocity.Y,
			p.LifeTime,
		)
		n++
	}
	out = pad(out, (s.MaxProjectiles-n)*ProjectileWidth)

	return out
}

func (s Space) appendUnit(out []float64, u game.Unit) []float64 {
	out = append(out,
		u.Health, u.Shield,
		u.Position.X, u.Position.Y,
		u.Velocity.X, u.Velocity.Y,
		u.Direction.X, u.Direction.Y,
		u.Aim,
	)
	if u.Action != nil {
		out = append(out, float64(u.Action.FinishTick), float64(u.Action.ActionType))
	} else {
		out = append(out, 0, 0)
	}
	if u.Weapon != nil {
		out = append(out, float64(*u.Weapon))
	} else {
		out = append(out, noWeapon)
	}
	out = append(out, float64(u.NextShotTick))
	for i := 0; i < s.AmmoSlots; i++ {
		if i < len(u.Ammo) {
			out = append(out, float64(u.Ammo[i]))
		} else {
			out = append(out, 0)
		}
	}
	return append(out, float64(u.ShieldPotions))
}

func pad(out []float64, n int) []float64 {
	for i := 0; i < n; i++ {
		out = append(out, 0)
	}
	return out
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

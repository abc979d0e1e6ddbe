// Package reward turns consecutive snapshots of the controlled unit into a
// scalar shaping reward.
package reward

import (
	"math"

	"github.com/cartridge/arena-agent/internal/game"
)

// Weights are the per-event reward terms.
type Weights struct {
	DamageDealt      float64
	ShieldPotion     float64
	Regeneration     float64
	AmmoPickup       float64
	ObstacleContact  float64
	DamageTaken      float64
	ObstacleRange    float64 // half-size of the square searched for obstacles
	ContactTolerance float64 // max gap to an obstacle surface that counts as contact
}

// DefaultWeights returns the weights used in live matches.
func DefaultWeights() Weights {
	return Weights{
		DamageDealt:      15,
		ShieldPotion:     20,
		Regeneration:     10,
		AmmoPickup:       5,
		ObstacleContact:  -7,
		DamageTaken:      -25,
		ObstacleRange:    25,
		ContactTolerance: 0.2,
	}
}

// Snapshot is the part of a tick the shaper compares.
type Snapshot struct {
	Unit   game.Unit
	Damage float64 // damage dealt so far by the acting player
}

// Shaper computes rewards. It holds no per-match state.
type Shaper struct {
	weights Weights
}

// NewShaper creates a shaper with the given weights.
func NewShaper(w Weights) *Shaper {
	return &Shaper{weights: w}
}

// Shape returns the reward for moving from prev to cur and the updated
// damage high-water mark. A nil prev yields zero and leaves the mark
// untouched. Event terms are additive.
func (s *Shaper) Shape(prev *Snapshot, cur Snapshot, lastDamage float64, c game.Constants) (float64, float64) {
	if prev == nil {
		return 0, lastDamage
	}
	w := s.weights
	p, u := prev.Unit, cur.Unit
	var r float64

	if cur.Damage > lastDamage {
		r += w.DamageDealt
		lastDamage = cur.Damage
	}
	if u.ShieldPotions > p.ShieldPotions {
		r += w.ShieldPotion
	}
	if u.Health > p.Health || u.Shield > p.Shield {
		r += w.Regeneration
	}
	if ammoIncreased(p, u) {
		r += w.AmmoPickup
	}
	if s.touchingObstacle(u.Position, c) {
		r += w.ObstacleContact
	}
	if u.Health < p.Health || u.Shield < p.Shield {
		r += w.DamageTaken
	}
	return r, lastDamage
}

// ammoIncreased compares both snapshots at the slot of the weapon equipped
// now.
func ammoIncreased(prev, cur game.Unit) bool {
	now, ok := cur.EquippedAmmo()
	if !ok {
		return false
	}
	idx := int(*cur.Weapon)
	if idx >= len(prev.Ammo) {
		return false
	}
	return now > prev.Ammo[idx]
}

func (s *Shaper) touchingObstacle(pos game.Vec2, c game.Constants) bool {
	near := game.ObstaclesNear(pos, c.Obstacles, s.weights.ObstacleRange)
	if len(near) == 0 {
		return false
	}
	closest := near[0]
	best := game.SqrDistance(pos, closest.Position)
	for _, o := range near[1:] {
		if d := game.SqrDistance(pos, o.Position); d < best {
			closest, best = o, d
		}
	}
	return math.Sqrt(best)-closest.Radius-c.UnitRadius < s.weights.ContactTolerance
}

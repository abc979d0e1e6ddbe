package observation

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartridge/arena-agent/internal/game"
)

func randomGame(rng *rand.Rand, units, loot, projectiles int) game.Game {
	g := game.Game{MyID: 1, Zone: game.Zone{CurrentRadius: 100, NextRadius: 80}}
	for i := 0; i < units; i++ {
		weapon := int32(rng.Intn(3))
		g.Units = append(g.Units, game.Unit{
			ID:       int32(i),
			PlayerID: int32(i + 1),
			Health:   rng.Float64() * 100,
			Position: game.Vec2{X: rng.Float64()*20 - 10, Y: rng.Float64()*20 - 10},
			Weapon:   &weapon,
			Ammo:     []int32{int32(rng.Intn(10)), int32(rng.Intn(10)), int32(rng.Intn(10))},
		})
	}
	for i := 0; i < loot; i++ {
		g.Loot = append(g.Loot, game.Loot{
			ID:       int32(i),
			Position: game.Vec2{X: rng.Float64(), Y: rng.Float64()},
			Item:     game.Item{Kind: game.ItemKind(rng.Intn(3))},
		})
	}
	for i := 0; i < projectiles; i++ {
		g.Projectiles = append(g.Projectiles, game.Projectile{ID: int32(i), LifeTime: rng.Float64()})
	}
	return g
}

func randomConstants(rng *rand.Rand, obstacles int) game.Constants {
	c := game.Constants{MaxUnitForwardSpeed: 10, UnitRadius: 1}
	for i := 0; i < obstacles; i++ {
		c.Obstacles = append(c.Obstacles, game.Obstacle{
			ID:       int32(i),
			Position: game.Vec2{X: rng.Float64()*40 - 20, Y: rng.Float64()*40 - 20},
			Radius:   1,
		})
	}
	return c
}

func TestDefaultSpaceDim(t *testing.T) {
	s := DefaultSpace()
	assert.Equal(t, 17, s.UnitWidth())
	assert.Equal(t, 6+5*17+10*3+6*3+30*6, s.Dim())
}

func TestEncodeLengthIsConstant(t *testing.T) {
	s := DefaultSpace()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		g := randomGame(rng, rng.Intn(12), rng.Intn(25), rng.Intn(70))
		c := randomConstants(rng, rng.Intn(40))
		require.Len(t, s.Encode(g, c), s.Dim(), "iteration %d", i)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	s := DefaultSpace()
	rng := rand.New(rand.NewSource(11))
	g := randomGame(rng, 8, 14, 40)
	c := randomConstants(rng, 30)

	assert.Equal(t, s.Encode(g, c), s.Encode(g, c))
}

func TestEncodeMissingSelfUnit(t *testing.T) {
	s := DefaultSpace()
	g := game.Game{MyID: 99, Units: []game.Unit{{ID: 1, PlayerID: 2, Health: 50}}}

	vec := s.Encode(g, game.Constants{})
	require.Len(t, vec, s.Dim())

	self := vec[ZoneWidth : ZoneWidth+s.UnitWidth()]
	for i, v := range self {
		assert.Zero(t, v, "self slot %d", i)
	}
	// The only other unit lands in the first opponent slot.
	assert.Equal(t, 50.0, vec[ZoneWidth+s.UnitWidth()])
}

func TestEncodeSelfUnitComesFirst(t *testing.T) {
	s := DefaultSpace()
	weapon := int32(2)
	g := game.Game{
		MyID: 3,
		Units: []game.Unit{
			{ID: 10, PlayerID: 1, Health: 11},
			{ID: 11, PlayerID: 3, Health: 33, Weapon: &weapon, Ammo: []int32{1, 2, 3, 4}, ShieldPotions: 2,
				Action: &game.Action{FinishTick: 40, ActionType: game.ActionAiming}},
			{ID: 12, PlayerID: 2, Health: 22},
		},
	}

	vec := s.Encode(g, game.Constants{})
	self := vec[ZoneWidth : ZoneWidth+s.UnitWidth()]
	assert.Equal(t, 33.0, self[0])
	assert.Equal(t, []float64{40, float64(game.ActionAiming)}, self[9:11])
	assert.Equal(t, 2.0, self[11])
	// Ammo table is truncated to the fixed slot count.
	assert.Equal(t, []float64{1, 2, 3}, self[13:16])
	assert.Equal(t, 2.0, self[16])

	first := ZoneWidth + s.UnitWidth()
	assert.Equal(t, 11.0, vec[first])
	assert.Equal(t, 22.0, vec[first+s.UnitWidth()])
}

func TestEncodeTruncatesInListOrder(t *testing.T) {
	s := DefaultSpace()
	s.MaxLoot = 2
	g := game.Game{
		Loot: []game.Loot{
			{ID: 1, Position: game.Vec2{X: 1}},
			{ID: 2, Position: game.Vec2{X: 2}},
			{ID: 3, Position: game.Vec2{X: 3}},
		},
	}

	vec := s.Encode(g, game.Constants{})
	lootStart := ZoneWidth + s.MaxUnits*s.UnitWidth()
	assert.Equal(t, 1.0, vec[lootStart])
	assert.Equal(t, 2.0, vec[lootStart+LootWidth])
	assert.Zero(t, vec[lootStart+2*LootWidth], "first obstacle slot")
}

func TestEncodeOnlyNearbyObstacles(t *testing.T) {
	s := DefaultSpace()
	g := game.Game{MyID: 1, Units: []game.Unit{{PlayerID: 1, Position: game.Vec2{X: 100, Y: 100}}}}
	c := game.Constants{Obstacles: []game.Obstacle{
		{ID: 1, Position: game.Vec2{X: 0, Y: 0}},
		{ID: 2, Position: game.Vec2{X: 110, Y: 90}, CanShootThrough: true},
	}}

	vec := s.Encode(g, c)
	obsStart := ZoneWidth + s.MaxUnits*s.UnitWidth() + s.MaxLoot*LootWidth
	assert.Equal(t, []float64{110, 90, 1}, vec[obsStart:obsStart+ObstacleWidth])
	assert.Equal(t, []float64{0, 0, 0}, vec[obsStart+ObstacleWidth:obsStart+2*ObstacleWidth])
}

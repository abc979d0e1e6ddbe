// Package game holds the match data model exchanged with the game server:
// the per-tick view, the per-match constants and the orders sent back.
package game

// ActionType identifies what a unit is busy with.
type ActionType int32

const (
	ActionLooting ActionType = iota
	ActionAiming
)

// Action is an in-progress unit action.
type Action struct {
	FinishTick int32      `msgpack:"finish_tick"`
	ActionType ActionType `msgpack:"action_type"`
}

// Unit is a single controllable entity on the map.
type Unit struct {
	ID                          int32    `msgpack:"id"`
	PlayerID                    int32    `msgpack:"player_id"`
	Health                      float64  `msgpack:"health"`
	Shield                      float64  `msgpack:"shield"`
	ExtraLives                  int32    `msgpack:"extra_lives"`
	Position                    Vec2     `msgpack:"position"`
	RemainingSpawnTime          *float64 `msgpack:"remaining_spawn_time"`
	Velocity                    Vec2     `msgpack:"velocity"`
	Direction                   Vec2     `msgpack:"direction"`
	Aim                         float64  `msgpack:"aim"`
	Action                      *Action  `msgpack:"action"`
	HealthRegenerationStartTick int32    `msgpack:"health_regeneration_start_tick"`
	Weapon                      *int32   `msgpack:"weapon"`
	NextShotTick                int32    `msgpack:"next_shot_tick"`
	Ammo                        []int32  `msgpack:"ammo"`
	ShieldPotions               int32    `msgpack:"shield_potions"`
}

// EquippedAmmo returns the ammo count for the currently equipped weapon.
// The second return is false when no weapon is equipped or the ammo table
// has no slot for it.
func (u Unit) EquippedAmmo() (int32, bool) {
	if u.Weapon == nil {
		return 0, false
	}
	idx := int(*u.Weapon)
	if idx < 0 || idx >= len(u.Ammo) {
		return 0, false
	}
	return u.Ammo[idx], true
}

// Player carries per-player match statistics.
type Player struct {
	ID     int32   `msgpack:"id"`
	Kills  int32   `msgpack:"kills"`
	Damage float64 `msgpack:"damage"`
	Place  *int32  `msgpack:"place"`
	Score  float64 `msgpack:"score"`
}

// ItemKind tags the closed set of loot item variants.
type ItemKind int32

const (
	ItemWeapon ItemKind = iota
	ItemShieldPotions
	ItemAmmo
)

func (k ItemKind) String() string {
	switch k {
	case ItemWeapon:
		return "weapon"
	case ItemShieldPotions:
		return "shield_potions"
	case ItemAmmo:
		return "ammo"
	default:
		return "unknown"
	}
}

// Item is a tagged variant. TypeIndex is meaningful for weapons and ammo,
// Amount for potions and ammo.
type Item struct {
	Kind      ItemKind `msgpack:"kind"`
	TypeIndex int32    `msgpack:"type_index"`
	Amount    int32    `msgpack:"amount"`
}

// Loot is an item lying on the ground.
type Loot struct {
	ID       int32 `msgpack:"id"`
	Position Vec2  `msgpack:"position"`
	Item     Item  `msgpack:"item"`
}

// Obstacle is a static circular obstacle.
type Obstacle struct {
	ID              int32   `msgpack:"id"`
	Position        Vec2    `msgpack:"position"`
	Radius          float64 `msgpack:"radius"`
	CanSeeThrough   bool    `msgpack:"can_see_through"`
	CanShootThrough bool    `msgpack:"can_shoot_through"`
}

// Projectile is a bullet in flight.
type Projectile struct {
	ID              int32   `msgpack:"id"`
	WeaponTypeIndex int32   `msgpack:"weapon_type_index"`
	ShooterID       int32   `msgpack:"shooter_id"`
	ShooterPlayerID int32   `msgpack:"shooter_player_id"`
	Position        Vec2    `msgpack:"position"`
	Velocity        Vec2    `msgpack:"velocity"`
	LifeTime        float64 `msgpack:"life_time"`
}

// Zone is the shrinking safe area.
type Zone struct {
	CurrentCenter Vec2    `msgpack:"current_center"`
	CurrentRadius float64 `msgpack:"current_radius"`
	NextCenter    Vec2    `msgpack:"next_center"`
	NextRadius    float64 `msgpack:"next_radius"`
}

// Game is the player's view of one tick.
type Game struct {
	MyID        int32        `msgpack:"my_id"`
	Players     []Player     `msgpack:"players"`
	CurrentTick int32        `msgpack:"current_tick"`
	Units       []Unit       `msgpack:"units"`
	Loot        []Loot       `msgpack:"loot"`
	Projectiles []Projectile `msgpack:"projectiles"`
	Zone        Zone         `msgpack:"zone"`
}

// SelfUnit returns the unit controlled by the acting player.
func (g Game) SelfUnit() (Unit, bool) {
	for _, u := range g.Units {
		if u.PlayerID == g.MyID {
			return u, true
		}
	}
	return Unit{}, false
}

// SelfPlayer returns the acting player's statistics.
func (g Game) SelfPlayer() (Player, bool) {
	for _, p := range g.Players {
		if p.ID == g.MyID {
			return p, true
		}
	}
	return Player{}, false
}

// Constants is the static per-match configuration.
type Constants struct {
	TicksPerSecond      float64    `msgpack:"ticks_per_second"`
	TeamSize            int32      `msgpack:"team_size"`
	MaxUnitForwardSpeed float64    `msgpack:"max_unit_forward_speed"`
	UnitRadius          float64    `msgpack:"unit_radius"`
	WeaponCount         int32      `msgpack:"weapon_count"`
	Obstacles           []Obstacle `msgpack:"obstacles"`
}

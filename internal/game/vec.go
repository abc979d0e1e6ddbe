package game

import "math"

// Vec2 is a 2D vector in world units.
type Vec2 struct {
	X float64 `msgpack:"x"`
	Y float64 `msgpack:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

func (v Vec2) Scale(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }

func (v Vec2) Length() float64 { return math.Hypot(v.X, v.Y) }

func (v Vec2) SqrLength() float64 { return v.X*v.X + v.Y*v.Y }

// SqrDistance returns the squared Euclidean distance between two points.
func SqrDistance(a, b Vec2) float64 { return a.Sub(b).SqrLength() }

// WithLength rescales v to the given length. A zero vector stays zero.
func (v Vec2) WithLength(length float64) Vec2 {
	l := v.Length()
	if l == 0 {
		return Vec2{}
	}
	return v.Scale(length / l)
}

// ObstaclesNear returns the obstacles whose centre lies strictly inside the
// axis-aligned square of half-size half around pos, in list order.
func ObstaclesNear(pos Vec2, obstacles []Obstacle, half float64) []Obstacle {
	var out []Obstacle
	for _, o := range obstacles {
		if o.Position.X > pos.X-half && o.Position.X < pos.X+half &&
			o.Position.Y > pos.Y-half && o.Position.Y < pos.Y+half {
			out = append(out, o)
		}
	}
	return out
}

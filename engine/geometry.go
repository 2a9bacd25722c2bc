package engine

// Vec is a pitch position or displacement in integer centimetres. All engine
// geometry is integer so runs agree bit-for-bit across platforms.
type Vec struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
}

// isqrt is floor(sqrt(n)) by Newton iteration.
func isqrt(n int64) int64 {
	if n <= 0 {
		return 0
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}

// Distance is the floored Euclidean distance between two points.
func Distance(a, b Vec) int64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return isqrt(dx*dx + dy*dy)
}

// stepToward moves from toward to by at most maxStep. Division truncates
// toward zero, which is what fixes the result across implementations.
func stepToward(from, to Vec, maxStep int64) Vec {
	d := Distance(from, to)
	if d <= maxStep || d == 0 {
		return to
	}
	return Vec{
		X: from.X + (to.X-from.X)*maxStep/d,
		Y: from.Y + (to.Y-from.Y)*maxStep/d,
	}
}

func onPitch(v Vec) bool {
	return v.X >= 0 && v.X <= PitchLength && v.Y >= 0 && v.Y <= PitchWidth
}

func clampToPitch(v Vec) Vec {
	return Vec{X: clamp(v.X, 0, PitchLength), Y: clamp(v.Y, 0, PitchWidth)}
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// attackingGoal is the centre of the goal a side shoots at. Home attacks x=PitchLength.
func attackingGoal(side string) Vec {
	if side == sideHome {
		return Vec{X: PitchLength, Y: GoalCenterY}
	}
	return Vec{X: 0, Y: GoalCenterY}
}

func centerSpot() Vec {
	return Vec{X: PitchLength / 2, Y: GoalCenterY}
}

// formationAnchor places roster index i. Index 0 keeps goal; outfielders fill
// columns of four from the own box outward. Away mirrors home.
func formationAnchor(side string, i int) Vec {
	var v Vec
	if i == 0 {
		v = Vec{X: 500, Y: GoalCenterY}
	} else {
		col := int64((i - 1) / 4)
		row := int64((i - 1) % 4)
		v = Vec{X: 1500 + col*1500, Y: PitchWidth * (row + 1) / 5}
	}
	if side == sideAway {
		v.X = PitchLength - v.X
	}
	return v
}

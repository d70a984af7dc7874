package challenge

// PointSource yields a point value; bonuses wrap other sources.
type PointSource interface {
	Points() int
}

// Base is a fixed number of points.
type Base int

func (b Base) Points() int { return int(b) }

const streakStep = 10

// StreakBonus adds 10 points per consecutive completion.
type StreakBonus struct {
	Inner  PointSource
	Streak int
}

func (s StreakBonus) Points() int {
	return s.Inner.Points() + s.Streak*streakStep
}

// DoubleXP doubles the wrapped points.
type DoubleXP struct {
	Inner PointSource
}

func (d DoubleXP) Points() int {
	return d.Inner.Points() * 2
}

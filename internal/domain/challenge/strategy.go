// Package challenge defines quizzes and exercises and the strategies that
// turn a submission into points.
package challenge

// Submission is a user's answer, keyed by field name.
type Submission map[string]string

// ScoreContext carries the facts a strategy scores on.
type ScoreContext struct {
	Correct    bool
	Time       *int     // seconds taken; nil means unknown
	Difficulty *int     // 1..n; nil means 1
	Accuracy   *float64 // 0..1 for multi-question quizzes
}

// WithTime returns a copy of c with Time set.
func (c ScoreContext) WithTime(seconds int) ScoreContext {
	c.Time = &seconds
	return c
}

// WithDifficulty returns a copy of c with Difficulty set.
func (c ScoreContext) WithDifficulty(d int) ScoreContext {
	c.Difficulty = &d
	return c
}

// WithAccuracy returns a copy of c with Accuracy set.
func (c ScoreContext) WithAccuracy(a float64) ScoreContext {
	c.Accuracy = &a
	return c
}

// ScoringStrategy computes points for a submission.
type ScoringStrategy interface {
	Name() string
	Score(sub Submission, ctx ScoreContext) int
}

const (
	unknownTime       = 999
	timeBudget        = 100
	pointsPerDiffStep = 10
)

// TimeBased rewards fast correct answers: 100 minus seconds taken, floored at 0.
type TimeBased struct{}

func (TimeBased) Name() string { return "time_based" }

func (TimeBased) Score(_ Submission, ctx ScoreContext) int {
	if !ctx.Correct {
		return 0
	}
	t := unknownTime
	if ctx.Time != nil {
		t = *ctx.Time
	}
	return max(0, timeBudget-t)
}

// DifficultyBased awards 10 points per difficulty step for a correct answer.
type DifficultyBased struct{}

func (DifficultyBased) Name() string { return "difficulty_based" }

func (DifficultyBased) Score(_ Submission, ctx ScoreContext) int {
	if !ctx.Correct {
		return 0
	}
	d := 1
	if ctx.Difficulty != nil {
		d = *ctx.Difficulty
	}
	return max(0, pointsPerDiffStep*d)
}

// AccuracyBased awards the percentage of correct answers.
type AccuracyBased struct{}

func (AccuracyBased) Name() string { return "accuracy_based" }

func (AccuracyBased) Score(_ Submission, ctx ScoreContext) int {
	if ctx.Accuracy == nil {
		return 0
	}
	return max(0, int(*ctx.Accuracy*100))
}

// StrategyByName resolves a strategy name used in configuration or CLI flags.
func StrategyByName(name string) (ScoringStrategy, bool) {
	switch name {
	case TimeBased{}.Name():
		return TimeBased{}, true
	case DifficultyBased{}.Name():
		return DifficultyBased{}, true
	case AccuracyBased{}.Name():
		return AccuracyBased{}, true
	}
	return nil, false
}

package challenge

// Challenge is a scored activity such as an exercise.
type Challenge struct {
	Title       string
	Description string
	Strategy    ScoringStrategy
}

// New creates a challenge scored by strategy.
func New(title, description string, strategy ScoringStrategy) *Challenge {
	return &Challenge{Title: title, Description: description, Strategy: strategy}
}

// Evaluate scores a submission. A challenge without a strategy scores 0.
func (c *Challenge) Evaluate(sub Submission, ctx ScoreContext) int {
	if c.Strategy == nil {
		return 0
	}
	return c.Strategy.Score(sub, ctx)
}

// Question is a quiz question and its expected answer.
type Question struct {
	Text   string
	Answer string
}

// Quiz is a challenge made of questions.
type Quiz struct {
	*Challenge
	questions []Question
}

// NewQuiz creates an empty quiz.
func NewQuiz(title, description string, strategy ScoringStrategy) *Quiz {
	return &Quiz{Challenge: New(title, description, strategy)}
}

// AddQuestion appends a question.
func (q *Quiz) AddQuestion(text, answer string) {
	q.questions = append(q.questions, Question{Text: text, Answer: answer})
}

// Questions returns a copy of the questions.
func (q *Quiz) Questions() []Question {
	out := make([]Question, len(q.questions))
	copy(out, q.questions)
	return out
}

// CheckAnswer compares a submission with the expected answer.
func (q *Quiz) CheckAnswer(submission, correct string) bool {
	return submission == correct
}

// Accuracy returns the share of answers matching their questions, in question
// order. Missing answers count as wrong. An empty quiz has accuracy 0.
func (q *Quiz) Accuracy(answers []string) float64 {
	if len(q.questions) == 0 {
		return 0
	}
	right := 0
	for i, question := range q.questions {
		if i < len(answers) && q.CheckAnswer(answers[i], question.Answer) {
			right++
		}
	}
	return float64(right) / float64(len(q.questions))
}

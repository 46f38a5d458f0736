package quiz

import (
	"math/rand"

	"vocab-quiz/internal/domain"
)

// Cycle serves questions in order and reshuffles the whole set each time it runs out.
// The last question of one pass may come up again first in the next.
type Cycle struct {
	questions []domain.Question
	index     int
	rnd       *rand.Rand
}

// NewCycle takes ownership of questions. An empty set has nothing to cycle.
func NewCycle(questions []domain.Question, rnd *rand.Rand) (*Cycle, error) {
	if len(questions) == 0 {
		return nil, domain.ErrNoContent
	}
	return &Cycle{questions: questions, index: -1, rnd: rnd}, nil
}

// Advance moves to the next question and returns it.
func (c *Cycle) Advance() domain.Question {
	c.index++
	if c.index >= len(c.questions) {
		c.index = 0
		Shuffle(c.questions, c.rnd)
	}
	return c.questions[c.index]
}

// Current returns the question on display; ok is false before the first Advance.
func (c *Cycle) Current() (domain.Question, bool) {
	if c.index < 0 {
		return domain.Question{}, false
	}
	return c.questions[c.index], true
}

// Index is the position of the current question, -1 before the first Advance.
func (c *Cycle) Index() int { return c.index }

// Len is the number of questions in one pass.
func (c *Cycle) Len() int { return len(c.questions) }

package quiz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vocab-quiz/internal/domain"
)

// Messages shown on the presentation surface when a session ends without navigating.
const (
	MessageNoContent  = "No vocabulary found. Ask Admin to add words."
	MessageLoadFailed = "Could not load vocabulary. Please reload."
	MessageNoRedirect = "Saved, but redirect failed. Please check admin results."
	MessageSaveFailed = "Could not save results. Please try again."
)

const (
	// DefaultSubmitKey triggers the same path as the submit control.
	DefaultSubmitKey     = "Enter"
	defaultTickInterval  = time.Second
	defaultSubmitTimeout = 15 * time.Second
)

// QuestionSource fetches the question set once at session start.
type QuestionSource interface {
	FetchQuestions(ctx context.Context) ([]domain.Question, error)
}

// ResultSink receives the full answer log when time runs out.
type ResultSink interface {
	SubmitResults(ctx context.Context, items []domain.AnswerRecord) (domain.SubmitResult, error)
}

// Presenter is the surface a session draws on.
type Presenter interface {
	ShowMeaning(meaning string)
	ClearInputs()
	ShowTime(remaining string)
	ShowProgress(fraction float64)
	ShowMessage(text string)
	Navigate(target string)
}

// State is the lifecycle phase of a session.
type State int

const (
	StateLoading State = iota
	StateActive
	StateFinalizing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Outcome says how a session ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeNoContent
	OutcomeLoadFailed
	OutcomeRedirected
	OutcomeSavedNoRedirect
	OutcomeSaveFailed
	OutcomeAbandoned
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeNoContent:
		return "no_content"
	case OutcomeLoadFailed:
		return "load_failed"
	case OutcomeRedirected:
		return "redirected"
	case OutcomeSavedNoRedirect:
		return "saved_no_redirect"
	case OutcomeSaveFailed:
		return "save_failed"
	case OutcomeAbandoned:
		return "abandoned"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Option customises a Controller.
type Option func(*Controller)

func WithID(id string) Option { return func(c *Controller) { c.id = id } }

func WithScheduler(s Scheduler) Option { return func(c *Controller) { c.scheduler = s } }

// WithRand fixes the random source used for shuffling.
func WithRand(rnd *rand.Rand) Option { return func(c *Controller) { c.rnd = rnd } }

func WithDuration(d time.Duration) Option { return func(c *Controller) { c.duration = d } }

func WithTickInterval(d time.Duration) Option { return func(c *Controller) { c.tickInterval = d } }

func WithSubmitKey(key string) Option { return func(c *Controller) { c.submitKey = key } }

func WithSubmitTimeout(d time.Duration) Option { return func(c *Controller) { c.submitTimeout = d } }

func WithLogger(l logrus.FieldLogger) Option { return func(c *Controller) { c.log = l } }

// WithStateListener registers fn to be called on every state change. fn runs
// with the session locked and must not call back into the Controller.
func WithStateListener(fn func(id string, state State)) Option {
	return func(c *Controller) { c.onState = fn }
}

// Controller runs one timed quiz session from first fetch to result submission.
// User events, ticks and the fetch/submit completions are serialised on mu;
// no lock is held while waiting on the source or the sink.
type Controller struct {
	id            string
	source        QuestionSource
	sink          ResultSink
	view          Presenter
	scheduler     Scheduler
	rnd           *rand.Rand
	log           logrus.FieldLogger
	duration      time.Duration
	tickInterval  time.Duration
	submitTimeout time.Duration
	submitKey     string
	onState       func(id string, state State)

	mu        sync.Mutex
	started   bool
	state     State
	outcome   Outcome
	cycle     *Cycle
	answers   *AnswerLog
	countdown *Countdown
	done      chan struct{}
}

func NewController(source QuestionSource, sink ResultSink, view Presenter, opts ...Option) *Controller {
	c := &Controller{
		source:        source,
		sink:          sink,
		view:          view,
		scheduler:     TickerScheduler{},
		duration:      DefaultDuration,
		tickInterval:  defaultTickInterval,
		submitTimeout: defaultSubmitTimeout,
		submitKey:     DefaultSubmitKey,
		answers:       NewAnswerLog(),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.id == "" {
		c.id = uuid.NewString()
	}
	if c.rnd == nil {
		c.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if c.log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		c.log = discard
	}
	c.log = c.log.WithField("session", c.id)
	c.countdown = NewCountdown(c.duration)
	return c
}

// Start fetches the question set and, if there is anything to ask, shows the
// first question and starts the countdown. An empty set ends the session with
// a notice and returns domain.ErrNoContent.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return domain.ErrAlreadyStarted
	}
	c.started = true
	c.mu.Unlock()

	questions, err := c.source.FetchQuestions(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateLoading {
		return domain.ErrSessionNotActive
	}
	switch {
	case errors.Is(err, domain.ErrNoContent), err == nil && len(questions) == 0:
		c.log.Warn("no questions available")
		c.endLocked(OutcomeNoContent, MessageNoContent)
		return domain.ErrNoContent
	case err != nil:
		c.log.WithError(err).Error("fetch questions failed")
		c.endLocked(OutcomeLoadFailed, MessageLoadFailed)
		return fmt.Errorf("fetch questions: %w", err)
	}

	working := make([]domain.Question, len(questions))
	copy(working, questions)
	cycle, err := NewCycle(Shuffle(working, c.rnd), c.rnd)
	if err != nil {
		return err
	}
	c.cycle = cycle
	c.setStateLocked(StateActive)
	c.showLocked(c.cycle.Advance())
	c.paintLocked()
	c.countdown.Start(c.scheduler, c.tickInterval, c.OnTick)
	c.log.WithField("questions", len(working)).Info("quiz session started")
	return nil
}

// OnSubmit scores the typed answer against the current question and moves on.
func (c *Controller) OnSubmit(pos, word string) (domain.AnswerRecord, error) {
	return c.answer(pos, word, false)
}

// OnSkip records the current question as skipped and moves on.
func (c *Controller) OnSkip(pos, word string) (domain.AnswerRecord, error) {
	return c.answer(pos, word, true)
}

// OnKey handles a key press. Only the submit key does anything.
func (c *Controller) OnKey(key, pos, word string) (domain.AnswerRecord, bool, error) {
	if key != c.submitKey {
		return domain.AnswerRecord{}, false, nil
	}
	rec, err := c.OnSubmit(pos, word)
	return rec, true, err
}

func (c *Controller) answer(pos, word string, skipped bool) (domain.AnswerRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive {
		return domain.AnswerRecord{}, domain.ErrSessionNotActive
	}
	q, _ := c.cycle.Current()
	rec := c.answers.Record(q, pos, word, skipped)
	c.showLocked(c.cycle.Advance())
	return rec, nil
}

// OnTick advances the countdown by one second. When time runs out the
// schedule is cancelled before the answers are submitted, so this runs the
// submission at most once.
func (c *Controller) OnTick() {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return
	}
	if !c.countdown.Tick() {
		c.paintLocked()
		c.mu.Unlock()
		return
	}
	c.countdown.Stop()
	c.setStateLocked(StateFinalizing)
	items := c.answers.All()
	c.mu.Unlock()

	c.finalize(items)
}

func (c *Controller) finalize(items []domain.AnswerRecord) {
	summary := domain.Summarize(items)
	c.log.WithFields(logrus.Fields{
		"items":        summary.Total,
		"answered":     summary.Answered,
		"correct_pos":  summary.CorrectPos,
		"correct_word": summary.CorrectWord,
		"score":        summary.Score,
	}).Info("time up, submitting results")

	ctx, cancel := context.WithTimeout(context.Background(), c.submitTimeout)
	defer cancel()
	res, err := c.submit(ctx, items)

	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case err == nil:
		c.log.WithField("redirect", res.Redirect).Info("results saved")
		c.outcome = OutcomeRedirected
		c.view.Navigate(res.Redirect)
	case errors.Is(err, domain.ErrNoRedirect):
		c.log.Warn("results saved without redirect")
		c.outcome = OutcomeSavedNoRedirect
		c.view.ShowMessage(MessageNoRedirect)
	default:
		c.log.WithError(err).Error("results not saved")
		c.outcome = OutcomeSaveFailed
		c.view.ShowMessage(MessageSaveFailed)
	}
	c.setStateLocked(StateDone)
	close(c.done)
}

func (c *Controller) submit(ctx context.Context, items []domain.AnswerRecord) (domain.SubmitResult, error) {
	res, err := c.sink.SubmitResults(ctx, items)
	if err != nil {
		if !errors.Is(err, domain.ErrSubmitTransport) {
			err = fmt.Errorf("%w: %v", domain.ErrSubmitTransport, err)
		}
		return domain.SubmitResult{}, err
	}
	if strings.TrimSpace(res.Redirect) == "" {
		return res, domain.ErrNoRedirect
	}
	return res, nil
}

// Close abandons the session without submitting, as when its client goes away.
// A submission already in flight is left to finish.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateLoading, StateActive:
		c.countdown.Stop()
		c.setStateLocked(StateDone)
		c.outcome = OutcomeAbandoned
		close(c.done)
		c.log.WithField("answers", c.answers.Len()).Info("quiz session abandoned")
	}
}

func (c *Controller) setStateLocked(state State) {
	c.state = state
	if c.onState != nil {
		c.onState(c.id, state)
	}
}

func (c *Controller) endLocked(outcome Outcome, message string) {
	c.setStateLocked(StateDone)
	c.outcome = outcome
	c.view.ShowMessage(message)
	close(c.done)
}

func (c *Controller) showLocked(q domain.Question) {
	c.view.ShowMeaning(q.Meaning)
	c.view.ClearInputs()
}

func (c *Controller) paintLocked() {
	c.view.ShowTime(c.countdown.Clock())
	c.view.ShowProgress(c.countdown.Elapsed())
}

func (c *Controller) ID() string { return c.id }

// Done is closed once the session reaches its terminal state.
func (c *Controller) Done() <-chan struct{} { return c.done }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Outcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// Current returns the question on display, if any.
func (c *Controller) Current() (domain.Question, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cycle == nil {
		return domain.Question{}, false
	}
	return c.cycle.Current()
}

// Answers returns the answer log so far.
func (c *Controller) Answers() []domain.AnswerRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answers.All()
}

func (c *Controller) Summary() domain.Summary {
	return domain.Summarize(c.Answers())
}

// Remaining is the number of whole seconds left on the countdown.
func (c *Controller) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.countdown.Remaining()
}

package quiz

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"vocab-quiz/internal/domain"
)

func TestScenarioSingleQuestionSubmit(t *testing.T) {
	source := &fakeSource{questions: []domain.Question{{ID: "1", Meaning: "a feline", Pos: "n.", Word: "cat"}}}
	ctrl, view, sched := newTestController(source, &fakeSink{})

	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if ctrl.State() != StateActive {
		t.Fatalf("expected active, got %s", ctrl.State())
	}
	if !reflect.DeepEqual(view.meanings, []string{"a feline"}) || view.clears != 1 {
		t.Fatalf("expected first meaning shown once, got %v clears=%d", view.meanings, view.clears)
	}
	// initial paint happens before the first tick
	if !reflect.DeepEqual(view.times, []string{"12:00"}) || !reflect.DeepEqual(view.progress, []float64{0}) {
		t.Fatalf("unexpected initial paint %v %v", view.times, view.progress)
	}
	if sched.starts != 1 || sched.interval != time.Second {
		t.Fatalf("expected one 1s schedule, got %d %s", sched.starts, sched.interval)
	}

	rec, err := ctrl.OnSubmit("n", "cat")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !rec.IsPosCorrect || !rec.IsWordCorrect || rec.Skipped {
		t.Fatalf("expected correct answer, got %+v", rec)
	}

	if len(ctrl.Answers()) != 1 {
		t.Fatalf("expected one answer, got %d", len(ctrl.Answers()))
	}
	if q, ok := ctrl.Current(); !ok || q.ID != "1" {
		t.Fatalf("single question should wrap to itself, got %+v", q)
	}
	if !reflect.DeepEqual(view.meanings, []string{"a feline", "a feline"}) || view.clears != 2 {
		t.Fatalf("expected meaning shown again, got %v clears=%d", view.meanings, view.clears)
	}
}

func TestScenarioEmptyFetch(t *testing.T) {
	sink := &fakeSink{}
	ctrl, view, sched := newTestController(&fakeSource{}, sink)

	if err := ctrl.Start(context.Background()); !errors.Is(err, domain.ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
	if ctrl.State() != StateDone || ctrl.Outcome() != OutcomeNoContent {
		t.Fatalf("expected done/no_content, got %s/%s", ctrl.State(), ctrl.Outcome())
	}
	if !reflect.DeepEqual(view.messages, []string{MessageNoContent}) {
		t.Fatalf("unexpected messages %v", view.messages)
	}
	if sched.starts != 0 || sink.calls != 0 {
		t.Fatalf("empty set must not start a countdown or submit: starts=%d calls=%d", sched.starts, sink.calls)
	}
	assertClosed(t, ctrl.Done())

	if _, err := ctrl.OnSubmit("n", "cat"); !errors.Is(err, domain.ErrSessionNotActive) {
		t.Fatalf("expected ErrSessionNotActive, got %v", err)
	}
}

func TestScenarioTimeUpSubmitsOnce(t *testing.T) {
	sink := &fakeSink{result: domain.SubmitResult{OK: true, Redirect: "/results"}}
	ctrl, view, sched := newTestController(&fakeSource{questions: sampleQuestions(3)}, sink, WithDuration(3*time.Second))
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	var want []domain.AnswerRecord
	for _, in := range [][2]string{{"n", "word-a"}, {"verb", "nope"}, {"", ""}} {
		rec, err := ctrl.OnSubmit(in[0], in[1])
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		want = append(want, rec)
	}

	sched.fire(3)
	if ctrl.State() != StateActive || ctrl.Remaining() != 0 {
		t.Fatalf("expected active at 0s, got %s at %d", ctrl.State(), ctrl.Remaining())
	}
	if !reflect.DeepEqual(view.times, []string{"00:03", "00:02", "00:01", "00:00"}) {
		t.Fatalf("unexpected clock %v", view.times)
	}
	if last := view.progress[len(view.progress)-1]; last != 1 {
		t.Fatalf("expected full progress, got %v", last)
	}

	sched.fire(1)
	if ctrl.State() != StateDone || ctrl.Outcome() != OutcomeRedirected {
		t.Fatalf("expected done/redirected, got %s/%s", ctrl.State(), ctrl.Outcome())
	}
	if sched.stops != 1 {
		t.Fatalf("schedule should be cancelled before submitting, stops=%d", sched.stops)
	}
	if sink.calls != 1 || !reflect.DeepEqual(sink.items[0], want) {
		t.Fatalf("expected one submission of %+v, got %d %+v", want, sink.calls, sink.items)
	}
	if !reflect.DeepEqual(view.navigations, []string{"/results"}) {
		t.Fatalf("unexpected navigations %v", view.navigations)
	}
	assertClosed(t, ctrl.Done())

	sched.fire(2)
	if sink.calls != 1 || len(view.times) != 4 {
		t.Fatalf("late ticks must do nothing: calls=%d times=%v", sink.calls, view.times)
	}
}

func TestScenarioSubmitTransportFailure(t *testing.T) {
	sink := &fakeSink{err: errors.New("connection refused")}
	ctrl, view, sched := newTestController(&fakeSource{questions: sampleQuestions(2)}, sink, WithDuration(time.Second))
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := ctrl.OnSubmit("n", "x"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	before := ctrl.Answers()

	sched.fire(2)
	if ctrl.Outcome() != OutcomeSaveFailed {
		t.Fatalf("expected save_failed, got %s", ctrl.Outcome())
	}
	if !reflect.DeepEqual(view.messages, []string{MessageSaveFailed}) || len(view.navigations) != 0 {
		t.Fatalf("unexpected messages %v navigations %v", view.messages, view.navigations)
	}
	if sink.calls != 1 || !reflect.DeepEqual(before, ctrl.Answers()) {
		t.Fatalf("expected one attempt and an untouched log, calls=%d", sink.calls)
	}

	sched.fire(1)
	if sink.calls != 1 {
		t.Fatalf("failed submission must not be retried, calls=%d", sink.calls)
	}
}

func TestSubmitWithoutRedirect(t *testing.T) {
	sink := &fakeSink{result: domain.SubmitResult{OK: true}}
	ctrl, view, sched := newTestController(&fakeSource{questions: sampleQuestions(1)}, sink, WithDuration(0))
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	sched.fire(1)
	if ctrl.Outcome() != OutcomeSavedNoRedirect {
		t.Fatalf("expected saved_no_redirect, got %s", ctrl.Outcome())
	}
	if !reflect.DeepEqual(view.messages, []string{MessageNoRedirect}) || len(view.navigations) != 0 {
		t.Fatalf("unexpected messages %v navigations %v", view.messages, view.navigations)
	}
	if sink.calls != 1 || sink.items[0] == nil {
		t.Fatalf("an empty log is still sent as a list, calls=%d", sink.calls)
	}
}

func TestFetchFailureEndsSession(t *testing.T) {
	sink := &fakeSink{}
	ctrl, view, sched := newTestController(&fakeSource{err: errors.New("boom")}, sink)

	err := ctrl.Start(context.Background())
	if err == nil || errors.Is(err, domain.ErrNoContent) {
		t.Fatalf("expected load error, got %v", err)
	}
	if ctrl.Outcome() != OutcomeLoadFailed || !reflect.DeepEqual(view.messages, []string{MessageLoadFailed}) {
		t.Fatalf("expected load_failed, got %s %v", ctrl.Outcome(), view.messages)
	}
	if sched.starts != 0 || sink.calls != 0 {
		t.Fatalf("failed load must not start a countdown or submit")
	}
}

func TestSourceReportingNoContent(t *testing.T) {
	ctrl, view, _ := newTestController(&fakeSource{err: domain.ErrNoContent}, &fakeSink{})
	if err := ctrl.Start(context.Background()); !errors.Is(err, domain.ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
	if ctrl.Outcome() != OutcomeNoContent || !reflect.DeepEqual(view.messages, []string{MessageNoContent}) {
		t.Fatalf("expected no_content, got %s %v", ctrl.Outcome(), view.messages)
	}
}

func TestStartTwice(t *testing.T) {
	source := &fakeSource{questions: sampleQuestions(2)}
	ctrl, _, sched := newTestController(source, &fakeSink{})
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := ctrl.Start(context.Background()); !errors.Is(err, domain.ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
	if source.calls != 1 || sched.starts != 1 {
		t.Fatalf("expected one fetch and one schedule, got %d %d", source.calls, sched.starts)
	}
}

func TestStartDoesNotMutateFetchedSet(t *testing.T) {
	fetched := sampleQuestions(5)
	original := append([]domain.Question(nil), fetched...)
	ctrl, _, _ := newTestController(&fakeSource{questions: fetched}, &fakeSink{})
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 12; i++ {
		if _, err := ctrl.OnSkip("", ""); err != nil {
			t.Fatalf("skip: %v", err)
		}
	}
	if !reflect.DeepEqual(original, fetched) {
		t.Fatalf("fetched set was reordered: %v", ids(fetched))
	}
}

func TestSkipRecordsAndAdvances(t *testing.T) {
	ctrl, view, _ := newTestController(&fakeSource{questions: sampleQuestions(3)}, &fakeSink{})
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	shown, _ := ctrl.Current()

	rec, err := ctrl.OnSkip("n", "")
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	if !rec.Skipped || !rec.IsPosCorrect || rec.IsWordCorrect || rec.QuestionID != shown.ID {
		t.Fatalf("unexpected skip record %+v for %s", rec, shown.ID)
	}
	if len(view.meanings) != 2 || view.clears != 2 {
		t.Fatalf("expected next question shown, meanings=%d clears=%d", len(view.meanings), view.clears)
	}
}

func TestSubmitKey(t *testing.T) {
	ctrl, _, _ := newTestController(&fakeSource{questions: sampleQuestions(2)}, &fakeSink{})
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, handled, err := ctrl.OnKey("Tab", "n", "x")
	if err != nil || handled || len(ctrl.Answers()) != 0 {
		t.Fatalf("other keys must be ignored: handled=%v err=%v", handled, err)
	}

	rec, handled, err := ctrl.OnKey(DefaultSubmitKey, "n", "x")
	if err != nil || !handled || rec.Skipped || len(ctrl.Answers()) != 1 {
		t.Fatalf("submit key should submit: %+v handled=%v err=%v", rec, handled, err)
	}
}

func TestCloseAbandonsWithoutSubmitting(t *testing.T) {
	sink := &fakeSink{}
	ctrl, _, sched := newTestController(&fakeSource{questions: sampleQuestions(2)}, sink, WithDuration(time.Second))
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	ctrl.Close()
	ctrl.Close()
	if ctrl.Outcome() != OutcomeAbandoned || sched.stops != 1 {
		t.Fatalf("expected abandoned with one stop, got %s stops=%d", ctrl.Outcome(), sched.stops)
	}
	assertClosed(t, ctrl.Done())

	sched.fire(3)
	if sink.calls != 0 {
		t.Fatalf("abandoned session must not submit")
	}
	if _, err := ctrl.OnSubmit("n", "x"); !errors.Is(err, domain.ErrSessionNotActive) {
		t.Fatalf("expected ErrSessionNotActive, got %v", err)
	}
}

func TestStateListenerSeesEveryTransition(t *testing.T) {
	var seen []State
	listener := func(id string, state State) {
		if id != "test-session" {
			t.Errorf("unexpected session id %q", id)
		}
		seen = append(seen, state)
	}
	sink := &fakeSink{result: domain.SubmitResult{OK: true, Redirect: "/results"}}
	ctrl, _, sched := newTestController(&fakeSource{questions: sampleQuestions(1)}, sink,
		WithDuration(0), WithStateListener(listener))
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	sched.fire(1)

	want := []State{StateActive, StateFinalizing, StateDone}
	if !reflect.DeepEqual(seen, want) {
		t.Fatalf("expected transitions %v, got %v", want, seen)
	}
}

func TestSummaryScoresHalfPoints(t *testing.T) {
	ctrl, _, _ := newTestController(&fakeSource{questions: []domain.Question{{ID: "1", Meaning: "a feline", Pos: "n.", Word: "cat"}}}, &fakeSink{})
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	_, _ = ctrl.OnSubmit("noun", "cat")
	_, _ = ctrl.OnSubmit("verb", "cat")
	_, _ = ctrl.OnSkip("", "")

	s := ctrl.Summary()
	want := domain.Summary{Total: 3, Answered: 2, CorrectPos: 1, CorrectWord: 2, Score: 1.5}
	if s != want {
		t.Fatalf("expected %+v, got %+v", want, s)
	}
}

func newTestController(source QuestionSource, sink ResultSink, opts ...Option) (*Controller, *recordingView, *manualScheduler) {
	view := &recordingView{}
	sched := &manualScheduler{}
	opts = append([]Option{WithScheduler(sched), WithRand(rand.New(rand.NewSource(11))), WithID("test-session")}, opts...)
	return NewController(source, sink, view, opts...), view, sched
}

func assertClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	default:
		t.Fatalf("expected done channel to be closed")
	}
}

type fakeSource struct {
	questions []domain.Question
	err       error
	calls     int
}

func (s *fakeSource) FetchQuestions(context.Context) ([]domain.Question, error) {
	s.calls++
	return s.questions, s.err
}

type fakeSink struct {
	result domain.SubmitResult
	err    error
	calls  int
	items  [][]domain.AnswerRecord
}

func (s *fakeSink) SubmitResults(_ context.Context, items []domain.AnswerRecord) (domain.SubmitResult, error) {
	s.calls++
	s.items = append(s.items, items)
	return s.result, s.err
}

type recordingView struct {
	meanings    []string
	clears      int
	times       []string
	progress    []float64
	messages    []string
	navigations []string
}

func (v *recordingView) ShowMeaning(m string)    { v.meanings = append(v.meanings, m) }
func (v *recordingView) ClearInputs()            { v.clears++ }
func (v *recordingView) ShowTime(r string)       { v.times = append(v.times, r) }
func (v *recordingView) ShowProgress(f float64)  { v.progress = append(v.progress, f) }
func (v *recordingView) ShowMessage(text string) { v.messages = append(v.messages, text) }
func (v *recordingView) Navigate(target string)  { v.navigations = append(v.navigations, target) }

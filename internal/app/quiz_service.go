package app

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vocab-quiz/internal/domain"
	"vocab-quiz/internal/quiz"
)

// SessionRepository abstracts where live quiz sessions are registered (in-memory, Redis, etc).
type SessionRepository interface {
	Add(session *quiz.Controller)
	Get(id string) (*quiz.Controller, bool)
	Remove(id string)
}

// stateRecorder is implemented by registries that publish session state.
type stateRecorder interface {
	MarkState(id string, state quiz.State)
}

// QuizService opens timed quiz sessions and routes client events to them.
type QuizService struct {
	sessions SessionRepository
	source   quiz.QuestionSource
	sink     quiz.ResultSink
	log      logrus.FieldLogger
	opts     []quiz.Option
}

// NewQuizService wires the session registry to the question source and result sink.
// opts are applied to every session (duration, tick interval, submit key...).
func NewQuizService(store SessionRepository, source quiz.QuestionSource, sink quiz.ResultSink, log logrus.FieldLogger, opts ...quiz.Option) *QuizService {
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	return &QuizService{sessions: store, source: source, sink: sink, log: log, opts: opts}
}

// Begin registers a new session drawing on view and starts it. The session is
// returned even when it could not start (empty vocabulary, source down) so the
// caller can keep showing its terminal message.
func (s *QuizService) Begin(ctx context.Context, view quiz.Presenter, name string) (*quiz.Controller, error) {
	opts := make([]quiz.Option, 0, len(s.opts)+3)
	opts = append(opts, quiz.WithID(uuid.NewString()), quiz.WithLogger(s.log.WithField("name", name)))
	if rec, ok := s.sessions.(stateRecorder); ok {
		opts = append(opts, quiz.WithStateListener(rec.MarkState))
	}
	opts = append(opts, s.opts...)

	session := quiz.NewController(s.source, s.sink, view, opts...)
	s.sessions.Add(session)
	return session, session.Start(ctx)
}

// Submit answers the current question of a session.
func (s *QuizService) Submit(sessionID, pos, word string) (domain.AnswerRecord, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.AnswerRecord{}, domain.ErrSessionNotFound
	}
	return session.OnSubmit(pos, word)
}

// Skip moves past the current question of a session, recording it as skipped.
func (s *QuizService) Skip(sessionID, pos, word string) (domain.AnswerRecord, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.AnswerRecord{}, domain.ErrSessionNotFound
	}
	return session.OnSkip(pos, word)
}

// Key forwards a key press; handled reports whether it was the submit key.
func (s *QuizService) Key(sessionID, key, pos, word string) (rec domain.AnswerRecord, handled bool, err error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.AnswerRecord{}, false, domain.ErrSessionNotFound
	}
	return session.OnKey(key, pos, word)
}

// End abandons the session if it is still running and drops it from the registry.
func (s *QuizService) End(sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Remove(sessionID)
}

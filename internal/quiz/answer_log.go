package quiz

import "vocab-quiz/internal/domain"

// AnswerLog is the append-only record of everything answered or skipped in a session.
type AnswerLog struct {
	records []domain.AnswerRecord
}

func NewAnswerLog() *AnswerLog {
	return &AnswerLog{}
}

// Record scores the raw input against q and appends the result. Skips are
// scored too, from whatever was typed at the time.
func (l *AnswerLog) Record(q domain.Question, userPos, userWord string, skipped bool) domain.AnswerRecord {
	rec := domain.AnswerRecord{
		QuestionID:    q.ID,
		Meaning:       q.Meaning,
		CorrectPos:    q.Pos,
		CorrectWord:   q.Word,
		UserPos:       userPos,
		UserWord:      userWord,
		IsPosCorrect:  SamePos(userPos, q.Pos),
		IsWordCorrect: Canon(userWord) == Canon(q.Word),
		Skipped:       skipped,
	}
	l.records = append(l.records, rec)
	return rec
}

// All returns a copy of the records in the order they were made.
func (l *AnswerLog) All() []domain.AnswerRecord {
	out := make([]domain.AnswerRecord, len(l.records))
	copy(out, l.records)
	return out
}

func (l *AnswerLog) Len() int { return len(l.records) }

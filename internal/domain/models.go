package domain

import (
	"strings"

	"github.com/samber/lo"
)

// Question is one vocabulary item: the meaning shown to the learner and the
// two answers expected back.
type Question struct {
	ID      ID     `json:"id"`
	Word    string `json:"word"`
	Pos     string `json:"pos"`
	Meaning string `json:"meaning"`
}

// AnswerRecord is the scored outcome of one submit or skip. Records are
// created once and never changed.
type AnswerRecord struct {
	QuestionID    ID     `json:"vocab_id"`
	Meaning       string `json:"meaning"`
	CorrectPos    string `json:"correct_pos"`
	CorrectWord   string `json:"correct_word"`
	UserPos       string `json:"user_pos"`
	UserWord      string `json:"user_word"`
	IsPosCorrect  bool   `json:"is_pos_correct"`
	IsWordCorrect bool   `json:"is_word_correct"`
	Skipped       bool   `json:"skipped"`
}

// FinishRequest is the payload sent to the result sink.
type FinishRequest struct {
	Items []AnswerRecord `json:"items"`
}

// SubmitResult is what the result sink answered.
type SubmitResult struct {
	OK       bool   `json:"ok"`
	Redirect string `json:"redirect"`
}

// Summary aggregates an attempt the way the results page scores it.
type Summary struct {
	Total       int     `json:"totalQuestions"`
	Answered    int     `json:"answered"`
	CorrectPos  int     `json:"correctPos"`
	CorrectWord int     `json:"correctWord"`
	Score       float64 `json:"score"`
}

// Summarize scores half a point per correct part of speech and half a point per correct word.
func Summarize(records []AnswerRecord) Summary {
	pos := lo.CountBy(records, func(r AnswerRecord) bool { return r.IsPosCorrect })
	word := lo.CountBy(records, func(r AnswerRecord) bool { return r.IsWordCorrect })
	answered := lo.CountBy(records, func(r AnswerRecord) bool {
		return strings.TrimSpace(r.UserPos) != "" || strings.TrimSpace(r.UserWord) != ""
	})
	return Summary{
		Total:       len(records),
		Answered:    answered,
		CorrectPos:  pos,
		CorrectWord: word,
		Score:       float64(pos)*0.5 + float64(word)*0.5,
	}
}

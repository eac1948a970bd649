package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExamAnswer_IsCorrect(t *testing.T) {
	testCases := []struct {
		name    string
		answer  ExamAnswer
		correct bool
	}{
		{"нет ответа", ExamAnswer{CorrectAnswer: ChoiceSecond}, false},
		{"правильный", ExamAnswer{UserAnswer: ChoicePtr(ChoiceSecond), CorrectAnswer: ChoiceSecond}, true},
		{"неправильный", ExamAnswer{UserAnswer: ChoicePtr(ChoiceThird), CorrectAnswer: ChoiceSecond}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.correct, tc.answer.IsCorrect())
		})
	}
}

func TestCountCorrect_IgnoresUnanswered(t *testing.T) {
	answers := []ExamAnswer{
		{UserAnswer: ChoicePtr(ChoiceFirst), CorrectAnswer: ChoiceFirst},
		{UserAnswer: ChoicePtr(ChoiceFourth), CorrectAnswer: ChoiceThird},
		{UserAnswer: nil, CorrectAnswer: ChoiceSecond},
		{UserAnswer: ChoicePtr(ChoiceSecond), CorrectAnswer: ChoiceSecond},
	}

	assert.Equal(t, 2, CountCorrect(answers))
	assert.Equal(t, 0, CountCorrect(nil))
}

func TestNewExamSession_FormatsStart(t *testing.T) {
	startedAt := time.Date(2026, time.October, 18, 9, 5, 7, 0, time.UTC)

	session := NewExamSession(262, "10.0.0.1", startedAt)

	assert.Equal(t, uint(262), session.CandidateID)
	assert.Equal(t, "20261018", session.ExamDate)
	assert.Equal(t, "090507", session.ExamTime)
	assert.False(t, session.Completed)
	assert.Equal(t, 0, session.Score)
	assert.Equal(t, 0, session.TimeElapsed)
	assert.Equal(t, "pending", session.Status())
}

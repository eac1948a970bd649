package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestQuestion_IsCorrect(t *testing.T) {
	// Arrange
	question := &Question{
		ID:            1,
		Text:          "Какой язык используется в Go?",
		Option1:       "Python",
		Option2:       "Go",
		Option3:       "Java",
		Option4:       "Rust",
		CorrectAnswer: ChoiceSecond,
	}

	// Act & Assert
	assert.True(t, question.IsCorrect(ChoiceSecond), "IsCorrect должен вернуть true для правильного ответа")
	assert.False(t, question.IsCorrect(ChoiceFirst))
	assert.False(t, question.IsCorrect(ChoiceThird))
	assert.False(t, question.IsCorrect(ChoiceFourth))
}

func TestQuestion_OptionText(t *testing.T) {
	question := &Question{Option1: "A", Option2: "B", Option3: "C", Option4: "D"}

	testCases := []struct {
		name   string
		choice Choice
		want   string
		ok     bool
	}{
		{"первый вариант", ChoiceFirst, "A", true},
		{"четвёртый вариант", ChoiceFourth, "D", true},
		{"ноль", Choice(0), "", false},
		{"вне диапазона", Choice(5), "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := question.OptionText(tc.choice)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestQuestion_View_HidesCorrectAnswer(t *testing.T) {
	// Arrange
	question := &Question{
		ID:            7,
		CategoryCode:  intPtr(3),
		Text:          "2 + 2 = ?",
		Option1:       "3",
		Option2:       "4",
		Option3:       "5",
		Option4:       "22",
		CorrectAnswer: ChoiceSecond,
	}

	// Act
	view := question.View()
	raw, err := json.Marshal(view)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))

	// Assert: в проекции только текст и варианты
	assert.Equal(t, uint(7), view.ID)
	assert.Equal(t, []string{"3", "4", "5", "22"}, view.Options)
	assert.NotContains(t, fields, "correct_answer", "Правильный ответ не должен попадать в проекцию")
	assert.ElementsMatch(t, []string{"id", "category_code", "question", "options"}, keys(fields))
}

func TestQuestion_TableName(t *testing.T) {
	question := Question{}
	assert.Equal(t, "questions", question.TableName(), "TableName должен возвращать 'questions'")
}

func TestParseChoice(t *testing.T) {
	for _, v := range []int{1, 2, 3, 4} {
		c, err := ParseChoice(v)
		require.NoError(t, err)
		assert.Equal(t, Choice(v), c)
	}

	for _, v := range []int{-1, 0, 5, 100} {
		_, err := ParseChoice(v)
		assert.Error(t, err, "ParseChoice(%d) должен вернуть ошибку", v)
	}
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

package entity

import "fmt"

// Choice: номер варианта ответа (1..4), как в бланке экзамена
type Choice int

// Допустимые варианты ответа
const (
	ChoiceFirst  Choice = 1
	ChoiceSecond Choice = 2
	ChoiceThird  Choice = 3
	ChoiceFourth Choice = 4
)

// OptionsPerQuestion: количество вариантов у каждого вопроса банка
const OptionsPerQuestion = 4

// Valid проверяет, что номер варианта лежит в диапазоне 1..4
func (c Choice) Valid() bool {
	return c >= ChoiceFirst && c <= ChoiceFourth
}

// ParseChoice превращает число из запроса в Choice
func ParseChoice(v int) (Choice, error) {
	c := Choice(v)
	if !c.Valid() {
		return 0, fmt.Errorf("answer must be one of 1, 2, 3, 4, got %d", v)
	}
	return c, nil
}

// ChoicePtr возвращает указатель на Choice (удобно для необязательных полей)
func ChoicePtr(c Choice) *Choice {
	return &c
}

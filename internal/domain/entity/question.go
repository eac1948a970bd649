package entity

import (
	"time"
)

// Question представляет вопрос банка вопросов
type Question struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CategoryCode  *int      `gorm:"index" json:"category_code"`
	Text          string    `gorm:"size:255;not null" json:"question"`
	Option1       string    `gorm:"column:option1;size:255;not null" json:"option1"`
	Option2       string    `gorm:"column:option2;size:255;not null" json:"option2"`
	Option3       string    `gorm:"column:option3;size:255;not null" json:"option3"`
	Option4       string    `gorm:"column:option4;size:255;not null" json:"option4"`
	CorrectAnswer Choice    `gorm:"not null" json:"correct_answer"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// IsCorrect проверяет, является ли выбранный вариант правильным
func (q *Question) IsCorrect(selected Choice) bool {
	return selected == q.CorrectAnswer
}

// Options возвращает тексты четырёх вариантов по порядку
func (q *Question) Options() []string {
	return []string{q.Option1, q.Option2, q.Option3, q.Option4}
}

// OptionText возвращает текст варианта по его номеру (1..4)
func (q *Question) OptionText(c Choice) (string, bool) {
	if !c.Valid() {
		return "", false
	}
	return q.Options()[c-1], true
}

// QuestionView: проекция вопроса для экзаменуемого.
// Правильного ответа здесь нет намеренно: структура уходит клиенту во время экзамена.
type QuestionView struct {
	ID           uint     `json:"id"`
	CategoryCode *int     `json:"category_code,omitempty"`
	Text         string   `json:"question"`
	Options      []string `json:"options"`
}

// View строит проекцию вопроса без правильного ответа
func (q *Question) View() QuestionView {
	return QuestionView{
		ID:           q.ID,
		CategoryCode: q.CategoryCode,
		Text:         q.Text,
		Options:      q.Options(),
	}
}

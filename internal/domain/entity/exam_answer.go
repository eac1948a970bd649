package entity

// ExamAnswer: строка ответа: один вопрос внутри сессии.
// CorrectAnswer копируется из банка вопросов в момент старта и больше не меняется.
type ExamAnswer struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	SessionID     uint    `gorm:"not null;index" json:"exam_id"`
	QuestionID    uint    `gorm:"not null;index" json:"question_id"`
	CandidateID   uint    `gorm:"not null;index" json:"candidate_id"`
	UserAnswer    *Choice `json:"user_answer"`
	CorrectAnswer Choice  `gorm:"not null" json:"correct_answer"`
}

// TableName определяет имя таблицы для GORM
func (ExamAnswer) TableName() string {
	return "exam_answers"
}

// IsAnswered возвращает true, если кандидат уже выбрал вариант
func (a *ExamAnswer) IsAnswered() bool {
	return a.UserAnswer != nil
}

// IsCorrect: выбранный вариант совпадает со снимком правильного ответа.
// Пустой ответ никогда не считается правильным.
func (a *ExamAnswer) IsCorrect() bool {
	return a.UserAnswer != nil && *a.UserAnswer == a.CorrectAnswer
}

// CountCorrect пересчитывает балл по полному набору строк
func CountCorrect(answers []ExamAnswer) int {
	score := 0
	for i := range answers {
		if answers[i].IsCorrect() {
			score++
		}
	}
	return score
}

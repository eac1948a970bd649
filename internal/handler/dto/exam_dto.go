package dto

// StartExamRequest: тело POST /api/exams/start
type StartExamRequest struct {
	CandidateID   uint `json:"candidate_id" binding:"required"`
	QuestionCount *int `json:"question_count" binding:"omitempty,min=1,max=100"`
	CategoryCode  *int `json:"category_code"`
}

// SubmitExamRequest: тело POST /api/exams/:id/submit.
// Ключи answers: ID строк ответов, значения: выбранный вариант 1..4.
type SubmitExamRequest struct {
	Answers     map[uint]int `json:"answers" binding:"omitempty,dive,min=1,max=4"`
	TimeElapsed *int         `json:"time_elapsed" binding:"omitempty,min=0"`
}

// RecordAnswerRequest: тело PUT /api/exam-details/:id
type RecordAnswerRequest struct {
	UserAnswer *int `json:"user_answer" binding:"required,min=1,max=4"`
}

// ErrorResponse: единый формат ошибки API
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorType string `json:"error_type"`
}

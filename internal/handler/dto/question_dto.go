package dto

// CreateQuestionRequest: тело POST /api/questions
type CreateQuestionRequest struct {
	CategoryCode  *int   `json:"category_code"`
	Question      string `json:"question" binding:"required,max=255"`
	Option1       string `json:"option1" binding:"required,max=255"`
	Option2       string `json:"option2" binding:"required,max=255"`
	Option3       string `json:"option3" binding:"required,max=255"`
	Option4       string `json:"option4" binding:"required,max=255"`
	CorrectAnswer int    `json:"correct_answer" binding:"required,min=1,max=4"`
}

// UpdateQuestionRequest: тело PUT /api/questions/:id; отсутствующие поля не меняются
type UpdateQuestionRequest struct {
	CategoryCode  *int    `json:"category_code"`
	Question      *string `json:"question" binding:"omitempty,max=255"`
	Option1       *string `json:"option1" binding:"omitempty,max=255"`
	Option2       *string `json:"option2" binding:"omitempty,max=255"`
	Option3       *string `json:"option3" binding:"omitempty,max=255"`
	Option4       *string `json:"option4" binding:"omitempty,max=255"`
	CorrectAnswer *int    `json:"correct_answer" binding:"omitempty,min=1,max=4"`
}

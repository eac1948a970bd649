package entity

import (
	"time"
)

// Форматы даты и времени начала экзамена (совместимы с таблицей exammaster старой системы)
const (
	ExamDateLayout = "20060102"
	ExamTimeLayout = "150405"
)

// ExamSession представляет одну попытку кандидата пройти экзамен
type ExamSession struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CandidateID uint      `gorm:"not null;index" json:"candidate_id"`
	IPAddress   string    `gorm:"size:45;not null;default:''" json:"ip_address"`
	ExamDate    string    `gorm:"size:8;not null" json:"exam_date"`
	ExamTime    string    `gorm:"size:6;not null" json:"exam_time"`
	Completed   bool      `gorm:"not null;default:false;index" json:"completed"`
	Score       int       `gorm:"not null;default:0" json:"score"`
	TimeElapsed int       `gorm:"not null;default:0" json:"time_elapsed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (ExamSession) TableName() string {
	return "exam_sessions"
}

// NewExamSession создаёт незавершённую сессию, фиксируя момент начала
func NewExamSession(candidateID uint, ip string, startedAt time.Time) *ExamSession {
	return &ExamSession{
		CandidateID: candidateID,
		IPAddress:   ip,
		ExamDate:    startedAt.Format(ExamDateLayout),
		ExamTime:    startedAt.Format(ExamTimeLayout),
	}
}

// IsPending возвращает true, пока экзамен не сдан
func (s *ExamSession) IsPending() bool {
	return !s.Completed
}

// Status возвращает строковое состояние сессии для API
func (s *ExamSession) Status() string {
	if s.Completed {
		return "completed"
	}
	return "pending"
}

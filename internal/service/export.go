package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/acmeaptix/aptix-api/internal/domain/repository"
)

// ExportRow: строка выгрузки результатов: один сданный экзамен
type ExportRow struct {
	SessionID   uint
	CandidateID uint
	Name        string
	Email       string
	ExamDate    string
	ExamTime    string
	Score       int
	Total       int
	TimeElapsed int
}

var exportHeader = []string{"exam_id", "candidate_id", "name", "email", "exam_date", "exam_time", "score", "total", "time_elapsed"}

func (r ExportRow) record() []string {
	return []string{
		strconv.FormatUint(uint64(r.SessionID), 10),
		strconv.FormatUint(uint64(r.CandidateID), 10),
		sanitizeForExcel(r.Name),
		sanitizeForExcel(r.Email),
		r.ExamDate,
		r.ExamTime,
		strconv.Itoa(r.Score),
		strconv.Itoa(r.Total),
		strconv.Itoa(r.TimeElapsed),
	}
}

// ExportRows собирает строки выгрузки по всем сданным экзаменам
func (s *ExamService) ExportRows(ctx context.Context) ([]ExportRow, error) {
	completed := true
	sessions, err := s.exams.ListSessions(ctx, repository.SessionFilters{Completed: &completed})
	if err != nil {
		return nil, err
	}

	sessionIDs := make([]uint, len(sessions))
	candidateIDs := make([]uint, 0, len(sessions))
	seen := make(map[uint]struct{}, len(sessions))
	for i, session := range sessions {
		sessionIDs[i] = session.ID
		if _, ok := seen[session.CandidateID]; !ok {
			seen[session.CandidateID] = struct{}{}
			candidateIDs = append(candidateIDs, session.CandidateID)
		}
	}

	totals, err := s.exams.CountAnswers(ctx, sessionIDs)
	if err != nil {
		return nil, err
	}
	candidates, err := s.candidateSummaries(ctx, candidateIDs)
	if err != nil {
		return nil, err
	}

	rows := make([]ExportRow, len(sessions))
	for i, session := range sessions {
		row := ExportRow{
			SessionID:   session.ID,
			CandidateID: session.CandidateID,
			ExamDate:    session.ExamDate,
			ExamTime:    session.ExamTime,
			Score:       session.Score,
			Total:       totals[session.ID],
			TimeElapsed: session.TimeElapsed,
		}
		if c, ok := candidates[session.CandidateID]; ok {
			row.Name = c.Name
			row.Email = c.Email
		}
		rows[i] = row
	}
	return rows, nil
}

// utf8BOM нужен, чтобы Excel открыл CSV в UTF-8
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV пишет выгрузку в CSV: BOM, заголовок, по строке на экзамен
func WriteCSV(w io.Writer, rows []ExportRow) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX пишет выгрузку в книгу Excel с одним листом "Results" через StreamWriter
func WriteXLSX(w io.Writer, rows []ExportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Results"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	header := make([]interface{}, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+2) // 1 - заголовки
		values := []interface{}{
			row.SessionID, row.CandidateID, sanitizeForExcel(row.Name), sanitizeForExcel(row.Email),
			row.ExamDate, row.ExamTime, row.Score, row.Total, row.TimeElapsed,
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

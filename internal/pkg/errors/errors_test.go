package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want string
	}{
		{"validation", fmt.Errorf("question_count out of range: %w", ErrValidation), KindValidation},
		{"not found", fmt.Errorf("exam session 5: %w", ErrNotFound), KindNotFound},
		{"conflict", fmt.Errorf("exam already completed: %w", ErrConflict), KindConflict},
		{"persistence", fmt.Errorf("insert answers: %w", ErrPersistence), KindPersistence},
		{"двойная обёртка", fmt.Errorf("submit: %w", fmt.Errorf("lock: %w", ErrConflict)), KindConflict},
		{"неизвестная", errors.New("boom"), KindInternal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Kind(tc.err))
		})
	}
}

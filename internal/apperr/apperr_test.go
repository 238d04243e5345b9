package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := NotFound("item %d not found", 7)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "item 7 not found", err.Error())

	// обёрнутая через %w ошибка тоже распознаётся
	wrapped := fmt.Errorf("load: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("UNIQUE constraint failed: users.user_name")
	err := Wrap(KindConstraint, "insert user", cause)

	assert.ErrorIs(t, err, ErrConstraint)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "insert user: UNIQUE constraint failed: users.user_name", err.Error())
}

func TestKindOf_ForeignError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, "validation", ErrValidation.Error())
}

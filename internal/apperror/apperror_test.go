package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("create reservation: %w", ErrSlotUnavailable)

	assert.Equal(t, KindSlotUnavailable, KindOf(wrapped))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestWrapKeepsSentinelIdentity(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := Wrap(KindStorage, ErrStorage.Message, cause)

	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Equal(t, "storage unavailable", MessageOf(err))
}

func TestMessageOfHidesUnknownErrors(t *testing.T) {
	assert.Equal(t, "internal error", MessageOf(errors.New("pq: relation does not exist")))
	assert.Equal(t, "equipment not found", MessageOf(fmt.Errorf("x: %w", ErrEquipmentNotFound)))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "NotFound", KindNotFound.String())
	assert.Equal(t, "StorageError", KindStorage.String())
	assert.Equal(t, "InvalidState", KindInvalidState.String())
}

package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(Conflict("taken")))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("wrapped: %w", NotFound("gone"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.True(t, Is(Forbidden("no"), KindForbidden))
	assert.False(t, Is(nil, KindInternal))
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "end must be after start", PublicMessage(Validation("end must be after start")))
	assert.Equal(t, "internal server error", PublicMessage(Internal("failed to load", errors.New("pq: secret detail"))))
	assert.Equal(t, "internal server error", PublicMessage(errors.New("raw")))
}

func TestInternal_Unwraps(t *testing.T) {
	cause := errors.New("conn reset")
	err := Internal("failed to load booking", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to load booking: conn reset", err.Error())
}

package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(ErrStore, cause, "Error, please try again.")

	assert.Equal(t, "connection refused", err.Error())
	assert.ErrorIs(t, err, ErrStore)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrEmbedding)

	wrapped := fmt.Errorf("ingest: %w", err)
	var target *Error
	assert.ErrorAs(t, wrapped, &target)
	assert.Equal(t, ErrStore, target.Kind)
}

func TestError_Fallback(t *testing.T) {
	assert.Equal(t, "fallback", NewError(ErrStore, errors.New(""), "fallback").Error())
	assert.Equal(t, "fallback", NewError(ErrValidation, nil, "fallback").Error())
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "fallback", Message(nil, "fallback"))
	assert.Equal(t, "fallback", Message(errors.New(""), "fallback"))
	assert.Equal(t, "boom", Message(errors.New("boom"), "fallback"))
}

func TestPassageSource(t *testing.T) {
	assert.Equal(t, "doc-1", Passage{DocumentID: "doc-1"}.Source())
	assert.Equal(t, "a.txt", Passage{DocumentID: "doc-1", Provenance: &Provenance{Name: "a.txt"}}.Source())
}

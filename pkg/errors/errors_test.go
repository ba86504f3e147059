package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("alert not found")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(Exhausted("no ambulance")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Validation("bad")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(stderrors.New("boom")))
}

func TestWrapKeepsCode(t *testing.T) {
	base := Conflict("task already completed")
	wrapped := Wrap(base, "update task")
	assert.Equal(t, CodeConflict, GetCode(wrapped))
	assert.Equal(t, base, Cause(wrapped))

	// 通过 fmt.Errorf 包装仍能识别
	assert.True(t, HasCode(fmt.Errorf("outer: %w", base), CodeConflict))
}

func TestWithContextCopies(t *testing.T) {
	e := NotFound("patient not found")
	withCtx := e.WithContext("patientId", "p-1")
	assert.Empty(t, e.Context)
	assert.Len(t, withCtx.Context, 1)
	assert.Equal(t, "patient not found", withCtx.Error())
}

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errMissing = Sentinel(CodeMissingLocation, "location unknown")

func TestWrapKeepsCode(t *testing.T) {
	err := Wrap(errMissing, "submit report")
	assert.Equal(t, CodeMissingLocation, GetCode(err))
	assert.True(t, Is(err, errMissing))
	assert.Equal(t, "submit report: location unknown", err.Error())
	assert.Same(t, errMissing, Cause(err))
}

func TestIsKeepsSentinelsApart(t *testing.T) {
	errUnknownType := Sentinel(CodeInvalidInput, "unknown report type")
	errBlank := Sentinel(CodeInvalidInput, "description is empty")

	assert.False(t, Is(WithCode(CodeInvalidInput, "unknown report type RUMOR"), errBlank))
	assert.False(t, Is(errUnknownType, errBlank))
	assert.True(t, Is(fmt.Errorf("submit: %w", errBlank), errBlank))
	assert.True(t, Is(WrapCode(stderrors.New("lat out of range"), CodeInvalidInput, "description is empty"), errBlank))
}

func TestGetCodeThroughStdWrap(t *testing.T) {
	err := fmt.Errorf("handler: %w", errMissing)
	assert.Equal(t, CodeMissingLocation, GetCode(err))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
	assert.Equal(t, "location unknown", GetMessage(err))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(WithCode(CodeNotFound, "gone")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(WithCode(CodeDuplicate, "dup")))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(WithCode(CodeUpstream, "model down")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(stderrors.New("plain")))
}

func TestWithContextCopies(t *testing.T) {
	base := WithCode(CodeInvalidInput, "bad")
	withCtx := base.WithContext("field", "description")
	assert.Empty(t, base.Context)
	assert.Equal(t, []KeyValue{{Key: "field", Value: "description"}}, withCtx.Context)
	assert.NotEmpty(t, withCtx.Stack)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "nothing"))
}

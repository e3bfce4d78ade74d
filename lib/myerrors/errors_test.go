package myerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHttpStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, GetHttpStatus(NewInvalidInputErrorf("bad %s", "input")))
	assert.Equal(t, http.StatusInternalServerError, GetHttpStatus(NewInternalError(fmt.Errorf("boom"))))
	assert.Equal(t, http.StatusInternalServerError, GetHttpStatus(fmt.Errorf("plain error")))
	assert.Equal(t, http.StatusInternalServerError, GetHttpStatus(nil))
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NewInternalError(cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "root cause")
}

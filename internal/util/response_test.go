package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestHandleServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err  error
		want int
	}{
		{NewValidationError("points", "must be at least 1"), http.StatusUnprocessableEntity},
		{fmt.Errorf("load: %w", ErrAttemptNotFound), http.StatusNotFound},
		{ErrCertificateNotFound, http.StatusNotFound},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrNotEnrolled, http.StatusForbidden},
		{ErrForbidden, http.StatusForbidden},
		{ErrAttemptLimitExceeded, http.StatusConflict},
		{ErrAlreadyInProgress, http.StatusConflict},
		{ErrAttemptNotActive, http.StatusConflict},
		{ErrCourseLocked, http.StatusConflict},
		{ErrEventFull, http.StatusConflict},
		{fmt.Errorf("%w: timeout", ErrAIUnavailable), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		HandleServiceError(ctx, c.err)
		if w.Code != c.want {
			t.Errorf("%v: status = %d, want %d", c.err, w.Code, c.want)
		}
	}
}

func TestValidationErrorBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	HandleServiceError(ctx, NewValidationError("options", "multiple choice needs at least 2 options"))

	var body struct {
		Code int               `json:"code"`
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != http.StatusUnprocessableEntity || body.Data["options"] == "" {
		t.Errorf("body = %+v", body)
	}
}

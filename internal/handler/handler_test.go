package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/examhall/examhall-backend/internal/response"
	"github.com/examhall/examhall-backend/internal/service"
)

func TestFailFromErr(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err        error
		wantStatus int
		wantCode   response.ErrCode
	}{
		{service.ErrNotFound, http.StatusNotFound, response.ErrNotFound},
		{service.ErrForbidden, http.StatusForbidden, response.ErrForbidden},
		{service.ErrSessionAlreadyActive, http.StatusConflict, response.ErrSessionAlreadyActive},
		{service.ErrSessionNotActive, http.StatusConflict, response.ErrSessionNotActive},
		{service.ErrExamWindow, http.StatusForbidden, response.ErrExamWindowClosed},
		{service.ErrValidation, http.StatusBadRequest, response.ErrValidation},
		{fmt.Errorf("wrapped: %w", service.ErrSessionNotActive), http.StatusConflict, response.ErrSessionNotActive},
		{fmt.Errorf("boom"), http.StatusInternalServerError, response.ErrInternal},
	}

	for _, tc := range cases {
		t.Run(string(tc.wantCode), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			failFromErr(c, tc.err)

			require.Equal(t, tc.wantStatus, w.Code)

			var body response.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.NotNil(t, body.Error)
			require.Equal(t, tc.wantCode, body.Error.Code)
			require.NotEmpty(t, body.Error.Message)
			require.NotEmpty(t, body.Metadata.RequestID)
		})
	}
}

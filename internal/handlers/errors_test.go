package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/uniqdata/backend/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestWriteServiceError_Mapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"not found", services.NotFoundError("missing"), http.StatusNotFound},
		{"conflict", services.ConflictError("already enrolled"), http.StatusConflict},
		{"invalid argument", services.InvalidArgumentError("bad input"), http.StatusBadRequest},
		{"invalid state", services.InvalidStateError("escrow info missing"), http.StatusUnprocessableEntity},
		{"upstream", services.UpstreamError("core unavailable", errors.New("refused")), http.StatusBadGateway},
		{"unknown", errors.New("database exploded"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest("GET", "/test", nil)

			writeServiceError(c, tt.err)

			if w.Code != tt.expected {
				t.Errorf("status = %d, expected %d", w.Code, tt.expected)
			}
		})
	}
}

package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultkeeper/internal/apperr"
	"vaultkeeper/internal/utils/logger"
)

func TestAPIClient_ProblemKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
		detail string
	}{
		{
			name:   "authentication",
			status: http.StatusUnauthorized,
			body:   `{"type":"authentication","status":401,"detail":"authentication failed"}`,
			want:   apperr.ErrAuthentication,
			detail: "authentication failed",
		},
		{
			name:   "integrity",
			status: http.StatusUnprocessableEntity,
			body:   `{"type":"integrity","status":422,"detail":"integrity check failed"}`,
			want:   apperr.ErrIntegrity,
			detail: "integrity check failed",
		},
		{
			name:   "framework validation",
			status: http.StatusUnprocessableEntity,
			body:   `{"title":"Unprocessable Entity","status":422,"detail":"validation failed"}`,
			want:   apperr.ErrValidation,
			detail: "validation failed",
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			body:   `{"type":"forbidden","status":403,"detail":"permission denied"}`,
			want:   apperr.ErrForbidden,
			detail: "permission denied",
		},
		{
			name:   "forbidden without body",
			status: http.StatusForbidden,
			body:   ``,
			want:   apperr.ErrForbidden,
			detail: "server returned 403",
		},
		{
			name:   "teapot without body",
			status: http.StatusTeapot,
			body:   ``,
			want:   apperr.ErrValidation,
			detail: "server returned 418",
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"type":"internal","status":500,"detail":"internal error"}`,
			want:   apperr.ErrInternal,
			detail: "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewAPIClient(srv.URL, time.Second, logger.Discard())
			err := c.Health(context.Background())

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.EqualError(t, err, tt.detail)
		})
	}
}

func TestAPIClient_SendsBearer(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":3,"username":"bob","is_admin":false}`))
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, time.Second, logger.Discard())
	c.SetToken("abc")

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", got)
	assert.Equal(t, "bob", me.Username)
}

func TestAPIClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewAPIClient(url, time.Second, logger.Discard())
	err := c.Health(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "server unreachable")
}

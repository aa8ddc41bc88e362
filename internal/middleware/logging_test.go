package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRequestLogger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := echo.New()
	e.Use(RequestLogger(logger))
	e.GET("/test", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequestLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		handler   echo.HandlerFunc
		wantLevel string
		wantCode  string
	}{
		{
			name:      "ok",
			handler:   func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
			wantLevel: "level=INFO",
			wantCode:  "status=200",
		},
		{
			name:      "unprocessable",
			handler:   func(c echo.Context) error { return c.JSON(http.StatusUnprocessableEntity, map[string]string{}) },
			wantLevel: "level=WARN",
			wantCode:  "status=422",
		},
		{
			name:      "http error",
			handler:   func(echo.Context) error { return echo.ErrStatusRequestEntityTooLarge },
			wantLevel: "level=WARN",
			wantCode:  "status=413",
		},
		{
			name:      "plain error",
			handler:   func(echo.Context) error { return io.ErrUnexpectedEOF },
			wantLevel: "level=ERROR",
			wantCode:  "status=500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))
			e := echo.New()
			e.Use(RequestLogger(logger))
			e.GET("/test", tt.handler)

			req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
			e.ServeHTTP(httptest.NewRecorder(), req)

			out := buf.String()
			if !strings.Contains(out, tt.wantLevel) || !strings.Contains(out, tt.wantCode) {
				t.Errorf("log = %q, want %s and %s", out, tt.wantLevel, tt.wantCode)
			}
		})
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newApp(logger *zap.Logger) *fiber.App {
	app := fiber.New()
	app.Use(RequestIDMiddleware())
	app.Use(RequestLogger(logger))
	app.Use(RecoveryMiddleware(logger))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString(RequestID(c)) })
	app.Get("/panic", func(c *fiber.Ctx) error { panic("boom") })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })
	return app
}

func TestRequestIDGenerated(t *testing.T) {
	app := newApp(zap.NewNop())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	id := resp.Header.Get(HeaderRequestID)
	assert.Len(t, id, 36)
}

func TestRequestIDPropagated(t *testing.T) {
	app := newApp(zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(HeaderRequestID))
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	app := newApp(zap.New(core))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	panics := logs.FilterMessage("panic recovered").All()
	require.Len(t, panics, 1)
	assert.Equal(t, "boom", panics[0].ContextMap()["panic"])

	completed := logs.FilterMessage("request completed").All()
	require.Len(t, completed, 1)
	assert.Equal(t, zapcore.ErrorLevel, completed[0].Level)
}

func TestRequestLoggerStatus(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	app := newApp(zap.New(core))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	completed := logs.FilterMessage("request completed").All()
	require.Len(t, completed, 1)
	assert.Equal(t, zapcore.WarnLevel, completed[0].Level)
	assert.EqualValues(t, fiber.StatusNotFound, completed[0].ContextMap()["status"])
}

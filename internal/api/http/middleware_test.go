package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/commerce-desk/internal/observability"
	apperrors "github.com/spec-kit/commerce-desk/pkg/util"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 5*time.Second)
	return app
}

func decodeErrorEnvelope(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var payload struct {
		Error map[string]any `json:"error"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&payload))
	return payload.Error
}

func TestErrorEnvelopeForDomainError(t *testing.T) {
	app := newTestApp(t)
	app.Get("/boom", func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("ticket", nil)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	envelope := decodeErrorEnvelope(t, resp.Body)
	assert.Equal(t, "NOT_FOUND", envelope["code"])
	assert.Equal(t, "ticket not found", envelope["message"])
}

func TestErrorEnvelopeIncludesDetails(t *testing.T) {
	app := newTestApp(t)
	app.Get("/invalid", func(c *fiber.Ctx) error {
		return apperrors.NewInvalidInput("amount must be positive", map[string]any{"field": "amount_cents"})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/invalid", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	envelope := decodeErrorEnvelope(t, resp.Body)
	assert.Equal(t, "INVALID_INPUT", envelope["code"])
	details, ok := envelope["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "amount_cents", details["field"])
}

func TestPanicRecoveredAsInternalError(t *testing.T) {
	app := newTestApp(t)
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("unreachable state")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/panic", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	envelope := decodeErrorEnvelope(t, resp.Body)
	assert.Equal(t, "INTERNAL_ERROR", envelope["code"])
}

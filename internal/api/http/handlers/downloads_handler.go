package handlers

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/commerce-desk/internal/signedurl"
	apperrors "github.com/spec-kit/commerce-desk/pkg/util"
)

// DownloadsHandler serves deliverable files against signed tokens. The token
// is the sole credential; the route sits outside gateway auth so buyers can
// follow the link from a direct message.
type DownloadsHandler struct {
	signer   *signedurl.Signer
	filesDir string
	logger   *zap.Logger
}

// NewDownloadsHandler constructs handler.
func NewDownloadsHandler(signer *signedurl.Signer, filesDir string, logger *zap.Logger) *DownloadsHandler {
	return &DownloadsHandler{signer: signer, filesDir: filesDir, logger: logger}
}

// Fetch GET /v1/downloads.
func (h *DownloadsHandler) Fetch(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return apperrors.NewInvalidInput("token query parameter required", nil)
	}

	claims, err := h.signer.Verify(token)
	if err != nil {
		return err
	}

	rel := filepath.Clean(claims.FilePath)
	if rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return apperrors.NewInvalidInput("invalid file path", nil)
	}
	full := filepath.Join(h.filesDir, rel)

	if _, err := os.Stat(full); err != nil {
		h.logger.Warn("deliverable missing", zap.String("path", rel), zap.Error(err))
		return apperrors.NewNotFound("file", nil)
	}
	return c.Download(full, filepath.Base(full))
}

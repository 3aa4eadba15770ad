package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"bistro/internal/core/apperror"
	"bistro/internal/domain/audit"
	"bistro/internal/domain/backup"
)

const maxBackupBytes = 256 << 20

// AdminHandler handles backup and audit endpoints.
type AdminHandler struct {
	*BaseHandler
	backup *backup.Service
	audit  audit.Reader
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(base *BaseHandler, b *backup.Service, a audit.Reader) *AdminHandler {
	return &AdminHandler{BaseHandler: base, backup: b, audit: a}
}

// Export handles GET /backup
// The archive is built in memory first so a failure still yields a JSON error.
func (h *AdminHandler) Export(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.backup.Export(c.Request.Context(), &buf); err != nil {
		h.Error(c, err)
		return
	}

	name := fmt.Sprintf("bistro-%s.json.zst", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/zstd", buf.Bytes())
}

// Restore handles POST /backup/restore with the archive as the raw body.
func (h *AdminHandler) Restore(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxBackupBytes)
	if err := h.backup.Restore(c.Request.Context(), body); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"restored": true})
}

// History handles GET /audit/:entity/:id
func (h *AdminHandler) History(c *gin.Context) {
	entityID, ok := h.ParseID(c)
	if !ok {
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.Error(c, apperror.NewInvalidInput("limit must be a positive integer"))
			return
		}
		limit = min(n, 500)
	}

	entries, err := h.audit.History(c.Request.Context(), c.Param("entity"), entityID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	h.OK(c, entries)
}

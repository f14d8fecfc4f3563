package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/priospace/core/internal/application/services"
	"github.com/priospace/core/internal/application/sync"
	"github.com/priospace/core/internal/domain/entities"
	"github.com/priospace/core/internal/infrastructure/logger"
	"github.com/priospace/core/internal/ports"
)

// SyncHandler handles backups, peer snapshot imports and the remote sync
// surface. The coordinator is nil when remote sync is disabled.
type SyncHandler struct {
	shareService *services.ShareService
	coordinator  *sync.Coordinator
	logger       *logger.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(shareService *services.ShareService, coordinator *sync.Coordinator, logger *logger.Logger) *SyncHandler {
	return &SyncHandler{
		shareService: shareService,
		coordinator:  coordinator,
		logger:       logger,
	}
}

// ExportBackup returns a full snapshot of the store.
func (h *SyncHandler) ExportBackup(c echo.Context) error {
	return c.JSON(http.StatusOK, h.shareService.ExportBackup())
}

// ImportBackup replaces the store contents wholesale.
func (h *SyncHandler) ImportBackup(c echo.Context) error {
	var snap entities.Snapshot
	if err := c.Bind(&snap); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid backup format")
	}
	if err := h.shareService.ImportBackup(&snap); err != nil {
		return domainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ImportShare merges a peer snapshot. Settings changes are applied only
// when the request carries confirm_settings=true.
func (h *SyncHandler) ImportShare(c echo.Context) error {
	var payload entities.SharePayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid share format")
	}
	confirm := c.QueryParam("confirm_settings") == "true"

	report := h.shareService.MergeShare(&payload, confirm)
	return c.JSON(http.StatusOK, report)
}

// GetSettings returns display preferences.
func (h *SyncHandler) GetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, h.shareService.Settings())
}

// UpdateSettings patches display preferences.
func (h *SyncHandler) UpdateSettings(c echo.Context) error {
	var req ports.UpdateSettingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.shareService.UpdateSettings(req))
}

// SyncStatus reports the coordinator's state.
func (h *SyncHandler) SyncStatus(c echo.Context) error {
	if h.coordinator == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"enabled": false})
	}
	return c.JSON(http.StatusOK, h.coordinator.Status())
}

// ForcePull schedules an immediate pull cycle.
func (h *SyncHandler) ForcePull(c echo.Context) error {
	if h.coordinator == nil {
		return echo.NewHTTPError(http.StatusConflict, "Remote sync is disabled")
	}
	h.coordinator.ForcePull()
	return c.NoContent(http.StatusAccepted)
}

// SelectDate tells the coordinator which date the client is viewing so the
// first visit pulls that partition from the remote.
func (h *SyncHandler) SelectDate(c echo.Context) error {
	var req struct {
		Date string `json:"date" validate:"required,datetime=2006-01-02"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if h.coordinator != nil {
		h.coordinator.SelectDate(c.Request().Context(), req.Date)
	}
	return c.NoContent(http.StatusNoContent)
}

package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/priospace/core/internal/application/services"
	"github.com/priospace/core/internal/infrastructure/logger"
	"github.com/priospace/core/internal/ports"
)

// TagHandler handles custom tag requests
type TagHandler struct {
	tagService *services.TagService
	logger     *logger.Logger
}

// NewTagHandler creates a new tag handler
func NewTagHandler(tagService *services.TagService, logger *logger.Logger) *TagHandler {
	return &TagHandler{
		tagService: tagService,
		logger:     logger,
	}
}

func (h *TagHandler) ListTags(c echo.Context) error {
	return c.JSON(http.StatusOK, h.tagService.ListTags())
}

func (h *TagHandler) CreateTag(c echo.Context) error {
	var req ports.CreateTagRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tag, err := h.tagService.CreateTag(req)
	if err != nil {
		h.logger.Error("Create tag failed", "error", err)
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, tag)
}

func (h *TagHandler) UpdateTag(c echo.Context) error {
	id := c.Param("id")

	var req ports.UpdateTagRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tag, err := h.tagService.UpdateTag(id, req)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, tag)
}

func (h *TagHandler) DeleteTag(c echo.Context) error {
	if err := h.tagService.DeleteTag(c.Param("id")); err != nil {
		return domainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HabitHandler handles habit template requests
type HabitHandler struct {
	habitService *services.HabitService
	logger       *logger.Logger
}

// NewHabitHandler creates a new habit handler
func NewHabitHandler(habitService *services.HabitService, logger *logger.Logger) *HabitHandler {
	return &HabitHandler{
		habitService: habitService,
		logger:       logger,
	}
}

func (h *HabitHandler) ListHabits(c echo.Context) error {
	return c.JSON(http.StatusOK, h.habitService.ListHabits())
}

func (h *HabitHandler) CreateHabit(c echo.Context) error {
	var req ports.CreateHabitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	habit, err := h.habitService.CreateHabit(req)
	if err != nil {
		h.logger.Error("Create habit failed", "error", err)
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, habit)
}

func (h *HabitHandler) UpdateHabit(c echo.Context) error {
	id := c.Param("id")

	var req ports.UpdateHabitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	habit, err := h.habitService.UpdateHabit(id, req)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, habit)
}

// ToggleHabit flips the habit's completion for the date in the body.
func (h *HabitHandler) ToggleHabit(c echo.Context) error {
	id := c.Param("id")

	var req ports.ToggleHabitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	habit, err := h.habitService.ToggleHabit(id, req)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) DeleteHabit(c echo.Context) error {
	if err := h.habitService.DeleteHabit(c.Param("id")); err != nil {
		return domainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

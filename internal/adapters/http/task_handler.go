package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/priospace/core/internal/application/services"
	"github.com/priospace/core/internal/domain/entities"
	"github.com/priospace/core/internal/infrastructure/logger"
	"github.com/priospace/core/internal/ports"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService *services.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *services.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// ListTasks returns the tasks for one date, habit projections included.
func (h *TaskHandler) ListTasks(c echo.Context) error {
	dateKey := c.Param("date")
	if !entities.IsDateKey(dateKey) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
	}

	tasks, err := h.taskService.TasksForDate(dateKey)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.CreateTask(req)
	if err != nil {
		h.logger.Error("Create task failed", "error", err)
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) CreateSubtask(c echo.Context) error {
	parentID := c.Param("id")

	var req ports.CreateSubtaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	subtask, err := h.taskService.AddSubtask(parentID, req)
	if err != nil {
		h.logger.Error("Add subtask failed", "error", err, "parent_id", parentID)
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, subtask)
}

func (h *TaskHandler) UpdateTask(c echo.Context) error {
	id := c.Param("id")

	var req ports.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.UpdateTask(id, req)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, task)
}

// ToggleTask flips completion. Works for habit projection ids too.
func (h *TaskHandler) ToggleTask(c echo.Context) error {
	task, err := h.taskService.ToggleTask(c.Param("id"))
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) TransferTask(c echo.Context) error {
	id := c.Param("id")

	var req ports.TransferTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.TransferTask(id, req)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c echo.Context) error {
	if err := h.taskService.DeleteTask(c.Param("id")); err != nil {
		return domainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TaskHandler) AddTime(c echo.Context) error {
	return h.addTime(c, false)
}

func (h *TaskHandler) AddFocusTime(c echo.Context) error {
	return h.addTime(c, true)
}

func (h *TaskHandler) addTime(c echo.Context, focus bool) error {
	id := c.Param("id")

	var req ports.AddTimeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var (
		task *entities.Task
		err  error
	)
	if focus {
		task, err = h.taskService.AddFocusTime(id, req)
	} else {
		task, err = h.taskService.AddTime(id, req)
	}
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, task)
}

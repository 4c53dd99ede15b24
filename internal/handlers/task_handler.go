package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/refoapp/backend/internal/middleware"
	"github.com/refoapp/backend/internal/models"
	"github.com/refoapp/backend/internal/services/task"
	"github.com/refoapp/backend/internal/storage"
	"gorm.io/gorm"
)

// TaskHandler handles the task workflow, from starting an offer through
// admin review.
type TaskHandler struct {
	taskService *task.TaskService
	storage     *storage.Storage
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *task.TaskService, store *storage.Storage) *TaskHandler {
	return &TaskHandler{taskService: taskService, storage: store}
}

// StartTaskBody represents the request body for starting a task
type StartTaskBody struct {
	OfferID string `json:"offer_id" binding:"required"`
}

// StartTask starts a task for the authenticated user on an offer
func (h *TaskHandler) StartTask(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body StartTaskBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	offerID, err := uuid.Parse(body.OfferID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offer ID"})
		return
	}

	t, err := h.taskService.Start(userID, offerID)
	if err != nil {
		switch {
		case errors.Is(err, task.ErrDuplicateTask):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, task.ErrOfferUnavailable):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "offer not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start task"})
		}
		return
	}

	c.JSON(http.StatusCreated, t)
}

// SubmitProof attaches an uploaded proof screenshot to the user's task
// and submits it for review.
func (h *TaskHandler) SubmitProof(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task ID"})
		return
	}

	fileHeader, err := c.FormFile("proof")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "proof file is required"})
		return
	}

	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file exceeds the 5MB limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		return
	}
	defer file.Close()

	proofURL, err := h.storage.UploadProof(c.Request.Context(), userID, taskID, file, fileHeader.Size,
		fileHeader.Header.Get("Content-Type"), fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store proof"})
		return
	}

	t, err := h.taskService.SubmitProof(userID, taskID, proofURL)
	if err != nil {
		switch {
		case errors.Is(err, task.ErrNotTaskOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, task.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit proof"})
		}
		return
	}

	c.JSON(http.StatusOK, t)
}

// ListMyTasks lists the authenticated user's tasks
func (h *TaskHandler) ListMyTasks(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	tasks, err := h.taskService.ListUserTasks(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tasks"})
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// ListTasks lists tasks for the admin review queue
func (h *TaskHandler) ListTasks(c *gin.Context) {
	page, pageSize := pagination(c)
	status := models.TaskStatus(c.Query("status"))

	tasks, total, err := h.taskService.ListTasks(status, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tasks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks":     tasks,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// VerifyTask approves a task submission and credits the reward
func (h *TaskHandler) VerifyTask(c *gin.Context) {
	adminID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task ID"})
		return
	}

	t, err := h.taskService.Verify(adminID, taskID)
	if err != nil {
		switch {
		case errors.Is(err, task.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify task"})
		}
		return
	}

	c.JSON(http.StatusOK, t)
}

// RejectTaskBody represents the request body for rejecting a task
type RejectTaskBody struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectTask rejects a task submission with a reason
func (h *TaskHandler) RejectTask(c *gin.Context) {
	adminID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task ID"})
		return
	}

	var body RejectTaskBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.taskService.Reject(adminID, taskID, body.Reason)
	if err != nil {
		switch {
		case errors.Is(err, task.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reject task"})
		}
		return
	}

	c.JSON(http.StatusOK, t)
}

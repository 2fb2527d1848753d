package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/secure-task-manager/internal/apperr"
	"github.com/iliyamo/secure-task-manager/internal/crypto"
	"github.com/iliyamo/secure-task-manager/internal/model"
	"github.com/iliyamo/secure-task-manager/internal/queue"
	"github.com/iliyamo/secure-task-manager/internal/repository"
)

const (
	maxTitleLen       = 120
	maxDescriptionLen = 2000

	defaultPageSize = 10
	maxPageSize     = 50
)

// TaskStore is the slice of the task repository the handlers need.
type TaskStore interface {
	Create(ctx context.Context, t *model.Task) error
	GetByIDAndOwner(ctx context.Context, id, ownerID string) (model.Task, error)
	List(ctx context.Context, ownerID string, q repository.TaskQuery) ([]model.Task, int64, error)
	Update(ctx context.Context, id, ownerID string, p repository.TaskPatch) (model.Task, error)
	Delete(ctx context.Context, id, ownerID string) error
}

// TaskHandler bundles dependencies for the task CRUD endpoints. Publish is
// optional and best-effort: activity events are fired after successful
// mutations and failures are logged, never surfaced to the client.
type TaskHandler struct {
	Tasks   TaskStore
	Cipher  *crypto.FieldCipher
	Publish func(ctx context.Context, ev queue.TaskActivityEvent) error
}

func NewTaskHandler(tasks TaskStore, cipher *crypto.FieldCipher, publish func(ctx context.Context, ev queue.TaskActivityEvent) error) *TaskHandler {
	if tasks == nil || cipher == nil {
		panic("nil dependency passed to NewTaskHandler")
	}
	return &TaskHandler{Tasks: tasks, Cipher: cipher, Publish: publish}
}

// ----- DTOs -----

type createTaskReq struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      *string `json:"status"`
}

type updateTaskReq struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

type taskPart struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type taskResp struct {
	Task taskPart `json:"task"`
}

type taskListResp struct {
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`
	Total    int64      `json:"total"`
	Items    []taskPart `json:"items"`
}

// toTaskPart decrypts the stored description and builds the response shape.
func (h *TaskHandler) toTaskPart(t model.Task) (taskPart, error) {
	plain, err := h.Cipher.Decrypt(t.DescriptionEnc, t.DescriptionIV, t.DescriptionTag)
	if err != nil {
		return taskPart{}, err
	}
	return taskPart{ID: t.ID, Title: t.Title, Description: plain, Status: t.Status, CreatedAt: t.CreatedAt}, nil
}

func (h *TaskHandler) publishActivity(t model.Task, action string) {
	if h.Publish == nil {
		return
	}
	ev := queue.TaskActivityEvent{
		TaskID:     t.ID,
		UserID:     t.UserID,
		Action:     action,
		Title:      t.Title,
		Status:     t.Status,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	// Detached from the request lifetime; the event is best effort.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.Publish(ctx, ev); err != nil {
			log.Printf("task-activity: publish %s failed for task %s: %v", action, t.ID, err)
		}
	}()
}

// Create handles POST /api/tasks. The description is encrypted before it is
// persisted; the response echoes the plaintext the handler already holds, so
// no decrypt round trip is needed.
func (h *TaskHandler) Create(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return apperr.Unauthorized()
	}
	var req createTaskReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body", nil)
	}

	details := map[string]string{}
	if req.Title == "" || len(req.Title) > maxTitleLen {
		details["title"] = "must be between 1 and 120 characters"
	}
	if req.Description == "" || len(req.Description) > maxDescriptionLen {
		details["description"] = "must be between 1 and 2000 characters"
	}
	status := model.StatusTodo
	if req.Status != nil {
		if !model.ValidStatus(*req.Status) {
			details["status"] = "must be one of todo, in_progress, done"
		} else {
			status = *req.Status
		}
	}
	if len(details) > 0 {
		return apperr.Validation("Validation error", details)
	}

	enc, err := h.Cipher.Encrypt(req.Description)
	if err != nil {
		return err
	}

	t := model.Task{
		UserID:         claims.ID,
		Title:          req.Title,
		DescriptionEnc: enc.CipherText,
		DescriptionIV:  enc.IV,
		DescriptionTag: enc.Tag,
		Status:         status,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Tasks.Create(ctx, &t); err != nil {
		return err
	}
	h.publishActivity(t, queue.ActionCreated)

	return c.JSON(http.StatusCreated, taskResp{Task: taskPart{
		ID:          t.ID,
		Title:       t.Title,
		Description: req.Description,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
	}})
}

// List handles GET /api/tasks with pagination, an exact status filter and a
// case-insensitive title substring search. A page past the end returns an
// empty items array with the correct total.
func (h *TaskHandler) List(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return apperr.Unauthorized()
	}

	page := 1
	if raw := c.QueryParam("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 1 {
			page = n
		}
	}
	pageSize := defaultPageSize
	if raw := c.QueryParam("pageSize"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			pageSize = n
		}
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	status := c.QueryParam("status")
	if status != "" && !model.ValidStatus(status) {
		return apperr.Validation("Validation error", map[string]string{
			"status": "must be one of todo, in_progress, done",
		})
	}

	q := repository.TaskQuery{
		Status:   status,
		Search:   c.QueryParam("search"),
		Page:     page,
		PageSize: pageSize,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	tasks, total, err := h.Tasks.List(ctx, claims.ID, q)
	if err != nil {
		return err
	}

	items := make([]taskPart, 0, len(tasks))
	for _, t := range tasks {
		part, err := h.toTaskPart(t)
		if err != nil {
			return err
		}
		items = append(items, part)
	}

	return c.JSON(http.StatusOK, taskListResp{Page: page, PageSize: pageSize, Total: total, Items: items})
}

// Get handles GET /api/tasks/:id. A task owned by another user responds 404
// exactly like a missing one.
func (h *TaskHandler) Get(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return apperr.Unauthorized()
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	t, err := h.Tasks.GetByIDAndOwner(ctx, c.Param("id"), claims.ID)
	if err != nil {
		if err == repository.ErrTaskNotFound {
			return apperr.NotFound("Task not found")
		}
		return err
	}

	part, err := h.toTaskPart(t)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, taskResp{Task: part})
}

// Update handles PATCH /api/tasks/:id. The patch must name at least one
// field; a provided description is re-encrypted whole, never merged with the
// stale ciphertext.
func (h *TaskHandler) Update(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return apperr.Unauthorized()
	}
	var req updateTaskReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body", nil)
	}
	if req.Title == nil && req.Description == nil && req.Status == nil {
		return apperr.Validation("Provide at least one field to update", nil)
	}

	details := map[string]string{}
	if req.Title != nil && (*req.Title == "" || len(*req.Title) > maxTitleLen) {
		details["title"] = "must be between 1 and 120 characters"
	}
	if req.Description != nil && (*req.Description == "" || len(*req.Description) > maxDescriptionLen) {
		details["description"] = "must be between 1 and 2000 characters"
	}
	if req.Status != nil && !model.ValidStatus(*req.Status) {
		details["status"] = "must be one of todo, in_progress, done"
	}
	if len(details) > 0 {
		return apperr.Validation("Validation error", details)
	}

	patch := repository.TaskPatch{Title: req.Title, Status: req.Status}
	if req.Description != nil {
		enc, err := h.Cipher.Encrypt(*req.Description)
		if err != nil {
			return err
		}
		patch.DescriptionEnc = &enc.CipherText
		patch.DescriptionIV = &enc.IV
		patch.DescriptionTag = &enc.Tag
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	t, err := h.Tasks.Update(ctx, c.Param("id"), claims.ID, patch)
	if err != nil {
		if err == repository.ErrTaskNotFound {
			return apperr.NotFound("Task not found")
		}
		return err
	}
	h.publishActivity(t, queue.ActionUpdated)

	part, err := h.toTaskPart(t)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, taskResp{Task: part})
}

// Delete handles DELETE /api/tasks/:id. Missing and foreign ids yield the
// same 404 as the read paths; success is an empty 204.
func (h *TaskHandler) Delete(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return apperr.Unauthorized()
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	id := c.Param("id")
	// Load before delete so the activity event can carry the title/status.
	t, err := h.Tasks.GetByIDAndOwner(ctx, id, claims.ID)
	if err != nil {
		if err == repository.ErrTaskNotFound {
			return apperr.NotFound("Task not found")
		}
		return err
	}
	if err := h.Tasks.Delete(ctx, id, claims.ID); err != nil {
		if err == repository.ErrTaskNotFound {
			return apperr.NotFound("Task not found")
		}
		return err
	}
	h.publishActivity(t, queue.ActionDeleted)

	return c.NoContent(http.StatusNoContent)
}

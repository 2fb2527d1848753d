package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/secure-task-manager/internal/crypto"
	"github.com/iliyamo/secure-task-manager/internal/middleware"
	"github.com/iliyamo/secure-task-manager/internal/model"
	"github.com/iliyamo/secure-task-manager/internal/repository"
)

const testCipherKey = "6368616e676520746869732070617373776f726420746f206120736563726574"

// stubTaskStore is an in-memory TaskStore mirroring the repository's
// behavior: owner scoping via ErrTaskNotFound, created_at DESC ordering and
// the same filter semantics. updateCalls counts writes so tests can assert a
// rejected patch never reached storage.
type stubTaskStore struct {
	tasks       []model.Task
	nextID      int
	updateCalls int
}

func (s *stubTaskStore) Create(_ context.Context, t *model.Task) error {
	s.nextID++
	t.ID = fmt.Sprintf("task-%d", s.nextID)
	// Spread creation times so ordering is deterministic.
	t.CreatedAt = time.Now().UTC().Add(time.Duration(s.nextID) * time.Second)
	if t.Status == "" {
		t.Status = model.StatusTodo
	}
	s.tasks = append(s.tasks, *t)
	return nil
}

func (s *stubTaskStore) find(id, ownerID string) (int, bool) {
	for i, t := range s.tasks {
		if t.ID == id && t.UserID == ownerID {
			return i, true
		}
	}
	return 0, false
}

func (s *stubTaskStore) GetByIDAndOwner(_ context.Context, id, ownerID string) (model.Task, error) {
	if i, ok := s.find(id, ownerID); ok {
		return s.tasks[i], nil
	}
	return model.Task{}, repository.ErrTaskNotFound
}

func (s *stubTaskStore) List(_ context.Context, ownerID string, q repository.TaskQuery) ([]model.Task, int64, error) {
	matched := []model.Task{}
	for _, t := range s.tasks {
		if t.UserID != ownerID {
			continue
		}
		if q.Status != "" && t.Status != q.Status {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(q.Search)) {
			continue
		}
		matched = append(matched, t)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := (q.Page - 1) * q.PageSize
	if start >= len(matched) {
		return []model.Task{}, total, nil
	}
	end := start + q.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *stubTaskStore) Update(_ context.Context, id, ownerID string, p repository.TaskPatch) (model.Task, error) {
	s.updateCalls++
	i, ok := s.find(id, ownerID)
	if !ok {
		return model.Task{}, repository.ErrTaskNotFound
	}
	if p.Title != nil {
		s.tasks[i].Title = *p.Title
	}
	if p.DescriptionEnc != nil {
		s.tasks[i].DescriptionEnc = *p.DescriptionEnc
		s.tasks[i].DescriptionIV = *p.DescriptionIV
		s.tasks[i].DescriptionTag = *p.DescriptionTag
	}
	if p.Status != nil {
		s.tasks[i].Status = *p.Status
	}
	return s.tasks[i], nil
}

func (s *stubTaskStore) Delete(_ context.Context, id, ownerID string) error {
	i, ok := s.find(id, ownerID)
	if !ok {
		return repository.ErrTaskNotFound
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return nil
}

func newTaskHandler(t *testing.T) (*TaskHandler, *stubTaskStore) {
	t.Helper()
	cipher, err := crypto.NewFieldCipher(testCipherKey)
	if err != nil {
		t.Fatalf("NewFieldCipher error: %v", err)
	}
	store := &stubTaskStore{}
	return NewTaskHandler(store, cipher, nil), store
}

func asUser(userID string, params ...string) func(echo.Context) {
	return func(c echo.Context) {
		c.Set(middleware.CtxUserID, userID)
		c.Set(middleware.CtxEmail, userID+"@x.com")
		if len(params) == 2 {
			c.SetParamNames(params[0])
			c.SetParamValues(params[1])
		}
	}
}

// createTask seeds one task through the handler and returns its id.
func createTask(t *testing.T, h *TaskHandler, userID, title, description, status string) string {
	t.Helper()
	body := fmt.Sprintf(`{"title":%q,"description":%q`, title, description)
	if status != "" {
		body += fmt.Sprintf(`,"status":%q`, status)
	}
	body += "}"
	rec := invoke(t, h.Create, http.MethodPost, "/api/tasks", body, asUser(userID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed create failed: %d (%s)", rec.Code, rec.Body.String())
	}
	task, _ := decodeBody(t, rec)["task"].(map[string]any)
	id, _ := task["id"].(string)
	return id
}

func taskField(t *testing.T, rec *httptest.ResponseRecorder, field string) any {
	t.Helper()
	task, ok := decodeBody(t, rec)["task"].(map[string]any)
	if !ok {
		t.Fatalf("missing task in body: %s", rec.Body.String())
	}
	return task[field]
}

func TestCreateTask_EncryptsAndEchoesPlaintext(t *testing.T) {
	t.Parallel()

	h, store := newTaskHandler(t)
	rec := invoke(t, h.Create, http.MethodPost, "/api/tasks",
		`{"title":"write report","description":"quarterly numbers"}`, asUser("alice"))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", rec.Code, rec.Body.String())
	}
	if got := taskField(t, rec, "description"); got != "quarterly numbers" {
		t.Errorf("description = %v, want plaintext echoed back", got)
	}
	if got := taskField(t, rec, "status"); got != "todo" {
		t.Errorf("status = %v, want default todo", got)
	}

	stored := store.tasks[0]
	if stored.DescriptionEnc == "quarterly numbers" || stored.DescriptionEnc == "" {
		t.Error("description was not encrypted before persistence")
	}
	plain, err := h.Cipher.Decrypt(stored.DescriptionEnc, stored.DescriptionIV, stored.DescriptionTag)
	if err != nil || plain != "quarterly numbers" {
		t.Errorf("stored ciphertext does not decrypt: %q err=%v", plain, err)
	}
}

func TestCreateTask_Validation(t *testing.T) {
	t.Parallel()

	h, store := newTaskHandler(t)
	cases := map[string]string{
		"empty title":       `{"title":"","description":"d"}`,
		"long title":        fmt.Sprintf(`{"title":%q,"description":"d"}`, strings.Repeat("x", 121)),
		"empty description": `{"title":"t","description":""}`,
		"long description":  fmt.Sprintf(`{"title":"t","description":%q}`, strings.Repeat("x", 2001)),
		"bad status":        `{"title":"t","description":"d","status":"blocked"}`,
	}
	for name, body := range cases {
		rec := invoke(t, h.Create, http.MethodPost, "/api/tasks", body, asUser("alice"))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, rec.Code)
		}
	}
	if len(store.tasks) != 0 {
		t.Errorf("invalid creates reached storage: %d tasks", len(store.tasks))
	}
}

func TestGetTask_OwnerScoping(t *testing.T) {
	t.Parallel()

	h, _ := newTaskHandler(t)
	id := createTask(t, h, "alice", "mine", "secret text", "")

	rec := invoke(t, h.Get, http.MethodGet, "/api/tasks/"+id, "", asUser("alice", "id", id))
	if rec.Code != http.StatusOK {
		t.Fatalf("owner get: status = %d", rec.Code)
	}
	if got := taskField(t, rec, "description"); got != "secret text" {
		t.Errorf("description = %v, want decrypted plaintext", got)
	}

	// Another user sees 404, not 403; existence must not be revealed.
	rec = invoke(t, h.Get, http.MethodGet, "/api/tasks/"+id, "", asUser("bob", "id", id))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign get: status = %d, want 404", rec.Code)
	}
	if code := errorCode(t, rec); code != "not_found" {
		t.Errorf("code = %s, want not_found", code)
	}
}

func TestListTasks_PaginationAndFilters(t *testing.T) {
	t.Parallel()

	h, _ := newTaskHandler(t)
	createTask(t, h, "alice", "Buy milk", "d", "")
	createTask(t, h, "alice", "Write Go report", "d", "in_progress")
	createTask(t, h, "alice", "buy stamps", "d", "done")
	createTask(t, h, "bob", "bob task", "d", "")

	// Plain list: only alice's tasks, newest first.
	rec := invoke(t, h.List, http.MethodGet, "/api/tasks", "", asUser("alice"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["total"] != float64(3) {
		t.Errorf("total = %v, want 3", body["total"])
	}
	items := body["items"].([]any)
	first := items[0].(map[string]any)
	if first["title"] != "buy stamps" {
		t.Errorf("first item = %v, want newest task", first["title"])
	}

	// Second page of two.
	rec = invoke(t, h.List, http.MethodGet, "/api/tasks?page=2&pageSize=2", "", asUser("alice"))
	body = decodeBody(t, rec)
	if body["page"] != float64(2) || len(body["items"].([]any)) != 1 {
		t.Errorf("page 2 of 2: got page=%v items=%d", body["page"], len(body["items"].([]any)))
	}

	// Page past the end: empty items, correct total.
	rec = invoke(t, h.List, http.MethodGet, "/api/tasks?page=99", "", asUser("alice"))
	body = decodeBody(t, rec)
	if body["total"] != float64(3) || len(body["items"].([]any)) != 0 {
		t.Errorf("past-end page: total=%v items=%d", body["total"], len(body["items"].([]any)))
	}

	// Status filter.
	rec = invoke(t, h.List, http.MethodGet, "/api/tasks?status=done", "", asUser("alice"))
	body = decodeBody(t, rec)
	if body["total"] != float64(1) {
		t.Errorf("status filter: total = %v, want 1", body["total"])
	}

	// Case-insensitive title search.
	rec = invoke(t, h.List, http.MethodGet, "/api/tasks?search=BUY", "", asUser("alice"))
	body = decodeBody(t, rec)
	if body["total"] != float64(2) {
		t.Errorf("search filter: total = %v, want 2", body["total"])
	}
}

func TestListTasks_ParamClamping(t *testing.T) {
	t.Parallel()

	h, _ := newTaskHandler(t)
	rec := invoke(t, h.List, http.MethodGet, "/api/tasks?page=0&pageSize=500", "", asUser("alice"))
	body := decodeBody(t, rec)
	if body["page"] != float64(1) {
		t.Errorf("page = %v, want clamped to 1", body["page"])
	}
	if body["pageSize"] != float64(50) {
		t.Errorf("pageSize = %v, want clamped to 50", body["pageSize"])
	}
}

func TestListTasks_InvalidStatus(t *testing.T) {
	t.Parallel()

	h, _ := newTaskHandler(t)
	rec := invoke(t, h.List, http.MethodGet, "/api/tasks?status=archived", "", asUser("alice"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateTask_EmptyPatchRejectedBeforeStorage(t *testing.T) {
	t.Parallel()

	h, store := newTaskHandler(t)
	id := createTask(t, h, "alice", "t", "d", "")

	rec := invoke(t, h.Update, http.MethodPatch, "/api/tasks/"+id, `{}`, asUser("alice", "id", id))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if store.updateCalls != 0 {
		t.Errorf("empty patch touched storage %d times", store.updateCalls)
	}
}

func TestUpdateTask_ReencryptsDescription(t *testing.T) {
	t.Parallel()

	h, store := newTaskHandler(t)
	id := createTask(t, h, "alice", "t", "old description", "")
	oldIV := store.tasks[0].DescriptionIV

	rec := invoke(t, h.Update, http.MethodPatch, "/api/tasks/"+id,
		`{"description":"new description"}`, asUser("alice", "id", id))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	if got := taskField(t, rec, "description"); got != "new description" {
		t.Errorf("description = %v, want new plaintext", got)
	}
	if store.tasks[0].DescriptionIV == oldIV {
		t.Error("description was not re-encrypted with a fresh nonce")
	}
}

func TestUpdateTask_PartialPatchKeepsOtherFields(t *testing.T) {
	t.Parallel()

	h, _ := newTaskHandler(t)
	id := createTask(t, h, "alice", "original title", "keep me", "")

	rec := invoke(t, h.Update, http.MethodPatch, "/api/tasks/"+id,
		`{"status":"done"}`, asUser("alice", "id", id))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	if got := taskField(t, rec, "title"); got != "original title" {
		t.Errorf("title = %v, want unchanged", got)
	}
	if got := taskField(t, rec, "description"); got != "keep me" {
		t.Errorf("description = %v, want unchanged", got)
	}
	if got := taskField(t, rec, "status"); got != "done" {
		t.Errorf("status = %v, want done", got)
	}
}

func TestUpdateTask_ForeignTaskNotFound(t *testing.T) {
	t.Parallel()

	h, _ := newTaskHandler(t)
	id := createTask(t, h, "alice", "t", "d", "")

	rec := invoke(t, h.Update, http.MethodPatch, "/api/tasks/"+id,
		`{"title":"hijacked"}`, asUser("bob", "id", id))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()

	h, _ := newTaskHandler(t)
	id := createTask(t, h, "alice", "t", "d", "")

	// Foreign delete: same 404 as read paths.
	rec := invoke(t, h.Delete, http.MethodDelete, "/api/tasks/"+id, "", asUser("bob", "id", id))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign delete: status = %d, want 404", rec.Code)
	}

	rec = invoke(t, h.Delete, http.MethodDelete, "/api/tasks/"+id, "", asUser("alice", "id", id))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d, want 204", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("delete body = %q, want empty", rec.Body.String())
	}

	// Idempotent at the response level: a second delete is a plain 404.
	rec = invoke(t, h.Delete, http.MethodDelete, "/api/tasks/"+id, "", asUser("alice", "id", id))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("repeat delete: status = %d, want 404", rec.Code)
	}
}

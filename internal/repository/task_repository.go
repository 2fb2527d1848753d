package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/secure-task-manager/internal/model"
)

// TaskQuery defines filters & pagination for listing a user's tasks. Status
// is an exact match, Search a case-insensitive substring match on the title.
// Page and PageSize are assumed already clamped by the handler.
type TaskQuery struct {
	Status   string
	Search   string
	Page     int
	PageSize int
}

// TaskPatch carries a partial update. Nil pointers mean "leave unchanged";
// the description triple is always written together since the field is
// re-encrypted as a whole, never merged with stale ciphertext.
type TaskPatch struct {
	Title          *string
	DescriptionEnc *string
	DescriptionIV  *string
	DescriptionTag *string
	Status         *string
}

type TaskRepo struct{ DB *sql.DB }

func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{DB: db} }

const taskColumns = "id,user_id,title,description_enc,description_iv,description_tag,status,created_at"

// Create inserts a task, assigning a fresh UUID and creation time.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now().UTC()
	if t.Status == "" {
		t.Status = model.StatusTodo
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO tasks ("+taskColumns+") VALUES (?,?,?,?,?,?,?,?)",
		t.ID, t.UserID, t.Title, t.DescriptionEnc, t.DescriptionIV, t.DescriptionTag, t.Status, t.CreatedAt)
	return err
}

// GetByIDAndOwner fetches a task scoped to its owner. A task that exists but
// belongs to someone else yields ErrTaskNotFound, same as a missing one.
func (r *TaskRepo) GetByIDAndOwner(ctx context.Context, id, ownerID string) (model.Task, error) {
	var t model.Task
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id=? AND user_id=? LIMIT 1",
		id, ownerID).Scan(&t.ID, &t.UserID, &t.Title, &t.DescriptionEnc, &t.DescriptionIV, &t.DescriptionTag, &t.Status, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Task{}, ErrTaskNotFound
	}
	return t, err
}

// List returns one page of the owner's tasks ordered by creation time
// descending, along with the total count matching the filters. A page past
// the end simply yields an empty slice with the correct total.
func (r *TaskRepo) List(ctx context.Context, ownerID string, q TaskQuery) ([]model.Task, int64, error) {
	where := []string{"user_id = ?"}
	args := []any{ownerID}

	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, q.Status)
	}
	if q.Search != "" {
		where = append(where, "LOWER(title) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Search)+"%")
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tasks WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE "+cond+" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Task, 0, limit)
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.DescriptionEnc, &t.DescriptionIV, &t.DescriptionTag, &t.Status, &t.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

// Update applies a partial patch to an owned task and returns the fresh row.
// The existence check runs first so an unknown or foreign id surfaces as
// ErrTaskNotFound before any write. Concurrent updates to the same task are
// last-writer-wins; there is no version check.
func (r *TaskRepo) Update(ctx context.Context, id, ownerID string, p TaskPatch) (model.Task, error) {
	if _, err := r.GetByIDAndOwner(ctx, id, ownerID); err != nil {
		return model.Task{}, err
	}

	set := []string{}
	args := []any{}
	if p.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *p.Title)
	}
	if p.DescriptionEnc != nil {
		set = append(set, "description_enc = ?", "description_iv = ?", "description_tag = ?")
		args = append(args, *p.DescriptionEnc, *p.DescriptionIV, *p.DescriptionTag)
	}
	if p.Status != nil {
		set = append(set, "status = ?")
		args = append(args, *p.Status)
	}
	if len(set) > 0 {
		args = append(args, id, ownerID)
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE tasks SET "+strings.Join(set, ", ")+" WHERE id=? AND user_id=?",
			args...); err != nil {
			return model.Task{}, err
		}
	}
	return r.GetByIDAndOwner(ctx, id, ownerID)
}

// Delete removes an owned task. Zero affected rows (missing or foreign id)
// maps to ErrTaskNotFound so delete responds exactly like the read paths.
func (r *TaskRepo) Delete(ctx context.Context, id, ownerID string) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM tasks WHERE id=? AND user_id=?", id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

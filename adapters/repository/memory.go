package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/examportal/backend/core"
	"github.com/examportal/backend/ports"
)

// ExamRepository keeps exams in memory
type ExamRepository struct {
	rows *table[core.Exam]
}

// NewExamRepository creates an empty exam repository
func NewExamRepository() *ExamRepository {
	return &ExamRepository{rows: newTable[core.Exam]()}
}

var _ ports.ExamRepository = (*ExamRepository)(nil)

// Save stores exam, assigning an id when it has none.
func (r *ExamRepository) Save(ctx context.Context, exam *core.Exam) (*core.Exam, error) {
	saved := r.rows.upsert(exam.ID, func(id int64) core.Exam {
		row := *exam
		row.ID = id
		row.Questions = append([]core.Question(nil), exam.Questions...)
		return row
	})
	return &saved, nil
}

// FindByID returns a copy of the stored exam.
func (r *ExamRepository) FindByID(ctx context.Context, id int64) (*core.Exam, error) {
	row, ok := r.rows.get(id)
	if !ok {
		return nil, fmt.Errorf("exam %d: %w", id, core.ErrNotFound)
	}
	row.Questions = append([]core.Question(nil), row.Questions...)
	return &row, nil
}

// Exists reports whether an exam with id is stored.
func (r *ExamRepository) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok := r.rows.get(id)
	return ok, nil
}

// Delete removes the exam with id.
func (r *ExamRepository) Delete(ctx context.Context, id int64) error {
	if !r.rows.remove(id) {
		return fmt.Errorf("exam %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// QuestionRepository keeps questions in memory
type QuestionRepository struct {
	rows *table[core.Question]
}

// NewQuestionRepository creates an empty question repository
func NewQuestionRepository() *QuestionRepository {
	return &QuestionRepository{rows: newTable[core.Question]()}
}

var _ ports.QuestionRepository = (*QuestionRepository)(nil)

// Save stores question, assigning an id when it has none.
func (r *QuestionRepository) Save(ctx context.Context, question *core.Question) (*core.Question, error) {
	saved := r.rows.upsert(question.ID, func(id int64) core.Question {
		row := *question
		row.ID = id
		row.Options = append([]string(nil), question.Options...)
		return row
	})
	return &saved, nil
}

// FindByID returns the stored question.
func (r *QuestionRepository) FindByID(ctx context.Context, id int64) (*core.Question, error) {
	row, ok := r.rows.get(id)
	if !ok {
		return nil, fmt.Errorf("question %d: %w", id, core.ErrNotFound)
	}
	return &row, nil
}

// FindAllByID returns the questions that exist, ordered by id.
func (r *QuestionRepository) FindAllByID(ctx context.Context, ids []int64) ([]core.Question, error) {
	wanted := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	return r.rows.scan(func(q core.Question) bool {
		_, ok := wanted[q.ID]
		return ok
	}), nil
}

// Exists reports whether a question with id is stored.
func (r *QuestionRepository) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok := r.rows.get(id)
	return ok, nil
}

// Delete removes the question with id.
func (r *QuestionRepository) Delete(ctx context.Context, id int64) error {
	if !r.rows.remove(id) {
		return fmt.Errorf("question %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// UserRepository keeps users in memory. Emails are matched case-insensitively.
type UserRepository struct {
	rows *table[core.User]
}

// NewUserRepository creates an empty user repository
func NewUserRepository() *UserRepository {
	return &UserRepository{rows: newTable[core.User]()}
}

var _ ports.UserRepository = (*UserRepository)(nil)

// Save stores user, assigning an id when it has none.
func (r *UserRepository) Save(ctx context.Context, user *core.User) (*core.User, error) {
	saved := r.rows.upsert(user.ID, func(id int64) core.User {
		row := *user
		row.ID = id
		return row
	})
	return &saved, nil
}

// FindByID returns the stored user.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*core.User, error) {
	row, ok := r.rows.get(id)
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, core.ErrNotFound)
	}
	return &row, nil
}

// FindByEmail returns the user with the given email, ignoring case.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*core.User, error) {
	matches := r.rows.scan(func(u core.User) bool {
		return strings.EqualFold(u.Email, email)
	})
	if len(matches) == 0 {
		return nil, fmt.Errorf("user %q: %w", email, core.ErrNotFound)
	}
	return &matches[0], nil
}

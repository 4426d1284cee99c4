package ports

import (
	"context"

	"github.com/examportal/backend/core"
)

// Lookups return core.ErrNotFound when the row does not exist.

// ExamRepository stores exams.
type ExamRepository interface {
	Save(ctx context.Context, exam *core.Exam) (*core.Exam, error)
	FindByID(ctx context.Context, id int64) (*core.Exam, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// QuestionRepository stores questions.
type QuestionRepository interface {
	Save(ctx context.Context, question *core.Question) (*core.Question, error)
	FindByID(ctx context.Context, id int64) (*core.Question, error)
	// FindAllByID silently skips ids that do not exist.
	FindAllByID(ctx context.Context, ids []int64) ([]core.Question, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// UserRepository stores user accounts.
type UserRepository interface {
	Save(ctx context.Context, user *core.User) (*core.User, error)
	FindByID(ctx context.Context, id int64) (*core.User, error)
	FindByEmail(ctx context.Context, email string) (*core.User, error)
}

package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examportal/backend/core"
)

func TestExamRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewExamRepository()

	saved, err := repo.Save(ctx, &core.Exam{Title: "Go basics", TotalMarks: decimal.RequireFromString("10.5")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.ID)

	second, err := repo.Save(ctx, &core.Exam{Title: "Go advanced"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)

	found, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Go basics", found.Title)
	assert.True(t, found.TotalMarks.Equal(decimal.RequireFromString("10.5")))

	found.Title = "Renamed"
	_, err = repo.Save(ctx, found)
	require.NoError(t, err)
	found, err = repo.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", found.Title)

	require.NoError(t, repo.Delete(ctx, 1))
	_, err = repo.FindByID(ctx, 1)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, 1), core.ErrNotFound)

	exists, err := repo.Exists(ctx, 2)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestExamRepositoryCopiesQuestions(t *testing.T) {
	ctx := context.Background()
	repo := NewExamRepository()

	exam := &core.Exam{Title: "t", Questions: []core.Question{{ID: 1, Text: "q1"}}}
	saved, err := repo.Save(ctx, exam)
	require.NoError(t, err)

	exam.Questions[0].Text = "mutated"
	found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "q1", found.Questions[0].Text)
}

func TestQuestionRepositoryFindAllByID(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionRepository()

	for _, text := range []string{"a", "b", "c"} {
		_, err := repo.Save(ctx, &core.Question{Text: text})
		require.NoError(t, err)
	}

	found, err := repo.FindAllByID(ctx, []int64{3, 1, 42})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "a", found[0].Text)
	assert.Equal(t, "c", found[1].Text)
}

func TestUserRepositoryFindByEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	_, err := repo.Save(ctx, &core.User{Name: "Alice", Email: "alice@example.com", Role: core.RoleAdmin})
	require.NoError(t, err)

	user, err := repo.FindByEmail(ctx, "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)

	_, err = repo.FindByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/examportal/backend/core"
	"github.com/examportal/backend/ports"
)

// RolePrefix is prepended to role names assigned through the admin API.
const RolePrefix = "ROLE_"

// AdminService handles exam, question and user administration
type AdminService struct {
	exams     ports.ExamRepository
	questions ports.QuestionRepository
	users     ports.UserRepository
}

// NewAdminService creates a new admin service
func NewAdminService(
	exams ports.ExamRepository,
	questions ports.QuestionRepository,
	users ports.UserRepository,
) *AdminService {
	return &AdminService{
		exams:     exams,
		questions: questions,
		users:     users,
	}
}

// CreateExam stores exam under examinerID with the given questions. Unknown
// question ids are ignored; an unknown examiner is core.ErrNotFound.
func (s *AdminService) CreateExam(ctx context.Context, exam core.Exam, examinerID int64, questionIDs []int64) (*core.Exam, error) {
	examiner, err := s.users.FindByID(ctx, examinerID)
	if err != nil {
		return nil, fmt.Errorf("examiner not found: %w", err)
	}

	questions, err := s.questions.FindAllByID(ctx, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	exam.ID = 0
	exam.ExaminerID = examiner.ID
	exam.Questions = questions

	return s.exams.Save(ctx, &exam)
}

// UpdateExam overwrites the descriptive fields of an existing exam.
func (s *AdminService) UpdateExam(ctx context.Context, id int64, details core.Exam) (*core.Exam, error) {
	exam, err := s.exams.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	exam.Title = details.Title
	exam.Description = details.Description
	exam.Duration = details.Duration
	exam.TotalMarks = details.TotalMarks

	saved, err := s.exams.Save(ctx, exam)
	if err != nil {
		return nil, err
	}
	return s.withCurrentQuestions(ctx, saved)
}

// GetExam returns an exam with its questions as they are stored now.
func (s *AdminService) GetExam(ctx context.Context, id int64) (*core.Exam, error) {
	exam, err := s.exams.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withCurrentQuestions(ctx, exam)
}

// DeleteExam removes an exam; core.ErrNotFound when missing.
func (s *AdminService) DeleteExam(ctx context.Context, id int64) error {
	return s.exams.Delete(ctx, id)
}

// AddQuestionsToExam appends the questions that exist to the exam.
func (s *AdminService) AddQuestionsToExam(ctx context.Context, examID int64, questionIDs []int64) (*core.Exam, error) {
	exam, err := s.exams.FindByID(ctx, examID)
	if err != nil {
		return nil, err
	}

	questions, err := s.questions.FindAllByID(ctx, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	exam.Questions = append(exam.Questions, questions...)

	saved, err := s.exams.Save(ctx, exam)
	if err != nil {
		return nil, err
	}
	return s.withCurrentQuestions(ctx, saved)
}

// withCurrentQuestions replaces the exam's questions with their stored
// versions. An exam only holds question references: edits show through and
// deleted questions drop out.
func (s *AdminService) withCurrentQuestions(ctx context.Context, exam *core.Exam) (*core.Exam, error) {
	ids := make([]int64, 0, len(exam.Questions))
	for _, q := range exam.Questions {
		ids = append(ids, q.ID)
	}

	current, err := s.questions.FindAllByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	byID := make(map[int64]core.Question, len(current))
	for _, q := range current {
		byID[q.ID] = q
	}

	questions := make([]core.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			questions = append(questions, q)
		}
	}
	exam.Questions = questions
	return exam, nil
}

// CreateQuestion stores a new question under a fresh id.
func (s *AdminService) CreateQuestion(ctx context.Context, question core.Question) (*core.Question, error) {
	question.ID = 0
	return s.questions.Save(ctx, &question)
}

// UpdateQuestion overwrites the content of an existing question.
func (s *AdminService) UpdateQuestion(ctx context.Context, id int64, details core.Question) (*core.Question, error) {
	question, err := s.questions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	question.Text = details.Text
	question.Category = details.Category
	question.Difficulty = details.Difficulty
	question.CorrectAnswer = details.CorrectAnswer
	if details.Options != nil {
		question.Options = details.Options
	}
	if !details.Marks.IsZero() {
		question.Marks = details.Marks
	}

	return s.questions.Save(ctx, question)
}

// DeleteQuestion removes a question; core.ErrNotFound when missing.
func (s *AdminService) DeleteQuestion(ctx context.Context, id int64) error {
	return s.questions.Delete(ctx, id)
}

// AssignRole sets the user's role to RolePrefix + upper(role). The new role
// shows up in tokens issued afterwards; live tokens keep their claim.
func (s *AdminService) AssignRole(ctx context.Context, userID int64, role string) (*core.User, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return nil, fmt.Errorf("role must not be empty: %w", core.ErrInvalidArgument)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Role = RolePrefix + strings.ToUpper(role)
	return s.users.Save(ctx, user)
}

// FindUserByEmail returns the stored account for an authenticated subject.
func (s *AdminService) FindUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return s.users.FindByEmail(ctx, email)
}

// EnsureUser stores user unless an account with the same email exists.
func (s *AdminService) EnsureUser(ctx context.Context, user core.User) (*core.User, error) {
	existing, err := s.users.FindByEmail(ctx, user.Email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}
	user.ID = 0
	return s.users.Save(ctx, &user)
}

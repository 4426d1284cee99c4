package core

import "github.com/shopspring/decimal"

// User is an account known to the portal. Role holds the authority string
// that ends up in issued tokens, e.g. "ROLE_ADMIN".
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Question is a single exam question.
type Question struct {
	ID            int64           `json:"id"`
	Text          string          `json:"text"`
	Category      string          `json:"category"`
	Difficulty    string          `json:"difficulty"`
	Options       []string        `json:"options,omitempty"`
	CorrectAnswer string          `json:"correctAnswer"`
	Marks         decimal.Decimal `json:"marks"`
}

// Exam groups questions under an examiner. Questions are references: reads
// through the admin service resolve them against the question store.
type Exam struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Duration    int             `json:"duration"` // minutes
	TotalMarks  decimal.Decimal `json:"totalMarks"`
	ExaminerID  int64           `json:"examinerId"`
	Questions   []Question      `json:"questions"`
}

package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mentora-learn/mentora-api/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// Token is the JWT token used for API authorization
	Token string `json:"token"`

	// CreditBalance is the user's credit balance at authentication time
	CreditBalance int64 `json:"credit_balance"`
}

// StoreCredentialRequest defines the payload for storing a provider API key.
// The key is write-only: no endpoint ever returns it.
type StoreCredentialRequest struct {
	APIKey string `json:"api_key" validate:"required,min=8,max=512"`
}

// GenerateRequest defines the payload for the content generation endpoint.
type GenerateRequest struct {
	Kind           string    `json:"kind"            validate:"required,oneof=course quiz mindmap"`
	SubjectID      uuid.UUID `json:"subject_id"      validate:"required"`
	Topic          string    `json:"topic"           validate:"required,min=1,max=500"`
	Difficulty     string    `json:"difficulty"      validate:"omitempty,oneof=easy medium hard"`
	SectionContext string    `json:"section_context" validate:"omitempty,max=100000"`
}

// GenerateResponse defines the successful response for the generation endpoint.
type GenerateResponse struct {
	ResultID         uuid.UUID       `json:"result_id"`
	Kind             string          `json:"kind"`
	Payload          json.RawMessage `json:"payload"`
	ModelUsed        string          `json:"model_used,omitempty"`
	Cached           bool            `json:"cached"`
	CreditsUsed      int64           `json:"credits_used"`
	RemainingBalance int64           `json:"remaining_balance"`
	CreatedAt        time.Time       `json:"created_at"`
}

// SubmitQuizRequest defines the payload for the quiz submission endpoint.
// The quiz ID comes from the URL path.
type SubmitQuizRequest struct {
	Answers []domain.SubmittedAnswer `json:"answers" validate:"required,min=1,dive"`
}

// SubmitQuizResponse defines the successful response for quiz submission.
type SubmitQuizResponse struct {
	Grade    *domain.QuizGrade `json:"grade"`
	Progress *domain.Progress  `json:"progress"`
}

// BalanceResponse defines the response for the credit balance endpoint.
type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

// TransactionListResponse defines the response for the transaction history endpoint.
type TransactionListResponse struct {
	Transactions []*domain.CreditTransaction `json:"transactions"`
}

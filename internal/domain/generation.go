package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Kind identifies what a generation request produces.
type Kind string

const (
	// KindCourse generates full course content for a subject.
	KindCourse Kind = "course"

	// KindQuiz generates a multiple-choice quiz.
	KindQuiz Kind = "quiz"

	// KindMindmap generates a mindmap graph for visualization.
	KindMindmap Kind = "mindmap"
)

// Valid reports whether k is one of the supported generation kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindCourse, KindQuiz, KindMindmap:
		return true
	default:
		return false
	}
}

// Generation validation errors
var (
	// ErrSubjectIDEmpty is returned when a request's subject ID is nil.
	ErrSubjectIDEmpty = errors.New("subject ID cannot be empty")

	// ErrTopicEmpty is returned when a request's topic is empty.
	ErrTopicEmpty = errors.New("topic cannot be empty")

	// ErrInvalidDifficulty is returned for unknown difficulty values.
	ErrInvalidDifficulty = errors.New("invalid difficulty")

	// ErrResultPayloadEmpty is returned when a generation result has no payload.
	ErrResultPayloadEmpty = errors.New("result payload cannot be empty")

	// ErrResultPayloadInvalid is returned when a result payload is not valid JSON.
	ErrResultPayloadInvalid = errors.New("result payload must be valid JSON")
)

// Difficulty levels accepted on generation requests. An empty difficulty is
// allowed and leaves the choice to the model.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// GenerationRequest describes a single content-generation invocation.
// It is immutable once submitted to the gateway.
//
// SubjectID references the course or lesson the generated content belongs
// to; together with Kind it forms the idempotency key that prevents
// duplicate generations (and duplicate charges) for the same subject.
type GenerationRequest struct {
	Kind           Kind      `json:"kind"`
	SubjectID      uuid.UUID `json:"subject_id"`
	Topic          string    `json:"topic"`
	Difficulty     string    `json:"difficulty,omitempty"`
	SectionContext string    `json:"section_context,omitempty"`
}

// Validate checks if the GenerationRequest has valid data.
func (r GenerationRequest) Validate() error {
	if !r.Kind.Valid() {
		return ErrInvalidKind
	}

	if r.SubjectID == uuid.Nil {
		return ErrSubjectIDEmpty
	}

	if r.Topic == "" {
		return ErrTopicEmpty
	}

	switch r.Difficulty {
	case "", DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return ErrInvalidDifficulty
	}

	return nil
}

// GenerationResult is the parsed, validated payload produced for a request.
//
// Results are keyed by (user, subject, kind): at most one row exists per
// key, and a second generation attempt for the same key returns the stored
// payload at zero cost.
type GenerationResult struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	SubjectID uuid.UUID       `json:"subject_id"`
	Kind      Kind            `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	ModelUsed string          `json:"model_used"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewGenerationResult creates a result for the given user, subject and kind.
// Returns an error if validation fails.
func NewGenerationResult(
	userID, subjectID uuid.UUID,
	kind Kind,
	payload json.RawMessage,
	modelUsed string,
) (*GenerationResult, error) {
	result := &GenerationResult{
		ID:        uuid.New(),
		UserID:    userID,
		SubjectID: subjectID,
		Kind:      kind,
		Payload:   payload,
		ModelUsed: modelUsed,
		CreatedAt: time.Now().UTC(),
	}

	if err := result.Validate(); err != nil {
		return nil, err
	}

	return result, nil
}

// Validate checks if the GenerationResult has valid data.
func (g *GenerationResult) Validate() error {
	if g.ID == uuid.Nil {
		return ErrInvalidID
	}

	if g.UserID == uuid.Nil {
		return ErrUserIDEmpty
	}

	if g.SubjectID == uuid.Nil {
		return ErrSubjectIDEmpty
	}

	if !g.Kind.Valid() {
		return ErrInvalidKind
	}

	if len(g.Payload) == 0 {
		return ErrResultPayloadEmpty
	}

	var js json.RawMessage
	if err := json.Unmarshal(g.Payload, &js); err != nil {
		return ErrResultPayloadInvalid
	}

	return nil
}

package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mentora-learn/mentora-api/internal/domain"
)

// ParsePayload sanitizes and parses raw model output into the structured,
// validated payload for the request's kind.
//
// For quiz and course, a parse or validation failure is fatal: the caller
// gets ErrUnparsableResponse, persists nothing and charges nothing —
// fabricated quiz content is worse than no quiz. For mindmap, the same
// failure degrades to a deterministic minimal structure built from the
// request's own topic (never from model output), so the visualization
// feature survives model formatting drift at the cost of detail.
func ParsePayload(raw string, req domain.GenerationRequest) (json.RawMessage, error) {
	cleaned := StripCodeFence(raw)

	switch req.Kind {
	case domain.KindQuiz:
		return parseQuiz(cleaned)
	case domain.KindCourse:
		return parseCourse(cleaned)
	case domain.KindMindmap:
		payload, err := parseMindmap(cleaned)
		if err != nil {
			return FallbackMindmap(req.Topic), nil
		}
		return payload, nil
	default:
		return nil, domain.ErrInvalidKind
	}
}

// StripCodeFence removes a leading/trailing markdown code fence
// (```json ... ``` or plain ``` ... ```) if present, along with
// surrounding whitespace. Models frequently wrap JSON output in fences
// despite instructions not to.
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)

	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// Drop a language hint on the opening fence ("json", "JSON", ...), even
	// when the payload starts on the same line with no newline after it.
	i := 0
	for i < len(s) && isASCIILetter(s[i]) {
		i++
	}
	if isFenceLanguage(s[:i]) {
		s = s[i:]
	}

	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// isFenceLanguage reports whether a fence header is a plausible language
// hint rather than payload content.
func isFenceLanguage(token string) bool {
	switch strings.ToLower(token) {
	case "json", "javascript", "js":
		return true
	default:
		return false
	}
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// parseQuiz parses and validates a quiz payload: at least one question,
// exactly four options each, and an in-range correct-answer index.
// The payload is re-marshalled so the stored form is normalized.
func parseQuiz(cleaned string) (json.RawMessage, error) {
	var payload domain.QuizPayload

	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableResponse, err)
	}

	if len(payload.Questions) == 0 {
		return nil, fmt.Errorf("%w: quiz has no questions", ErrUnparsableResponse)
	}

	for i, q := range payload.Questions {
		if q.ID == "" {
			return nil, fmt.Errorf("%w: question %d missing id", ErrUnparsableResponse, i)
		}
		if q.Question == "" {
			return nil, fmt.Errorf("%w: question %d missing text", ErrUnparsableResponse, i)
		}
		if len(q.Options) != domain.QuizOptionCount {
			return nil, fmt.Errorf("%w: question %d has %d options, want %d",
				ErrUnparsableResponse, i, len(q.Options), domain.QuizOptionCount)
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= domain.QuizOptionCount {
			return nil, fmt.Errorf("%w: question %d correct answer index %d out of range",
				ErrUnparsableResponse, i, q.CorrectAnswer)
		}
	}

	normalized, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableResponse, err)
	}
	return normalized, nil
}

// parseCourse parses and validates a course payload: a title and at least
// one section with both title and content.
func parseCourse(cleaned string) (json.RawMessage, error) {
	var payload domain.CoursePayload

	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableResponse, err)
	}

	if payload.Title == "" {
		return nil, fmt.Errorf("%w: course missing title", ErrUnparsableResponse)
	}
	if len(payload.Sections) == 0 {
		return nil, fmt.Errorf("%w: course has no sections", ErrUnparsableResponse)
	}
	for i, s := range payload.Sections {
		if s.Title == "" || s.Content == "" {
			return nil, fmt.Errorf("%w: course section %d incomplete", ErrUnparsableResponse, i)
		}
	}

	normalized, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableResponse, err)
	}
	return normalized, nil
}

// parseMindmap parses and validates a mindmap payload: a root node with a
// non-empty label.
func parseMindmap(cleaned string) (json.RawMessage, error) {
	var payload domain.MindmapPayload

	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableResponse, err)
	}

	if payload.Root.Label == "" {
		return nil, fmt.Errorf("%w: mindmap missing root label", ErrUnparsableResponse)
	}

	normalized, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableResponse, err)
	}
	return normalized, nil
}

// FallbackMindmap builds the deterministic degraded mindmap used when the
// model output cannot be parsed: a graph containing only the subject as a
// root node. It is constructed from the request's own topic, never from
// model output, so it can't carry hallucinated content.
func FallbackMindmap(topic string) json.RawMessage {
	payload := domain.MindmapPayload{
		Root: domain.MindmapNode{
			Label:    topic,
			Children: []domain.MindmapNode{},
		},
	}

	// Marshal of a plain struct cannot fail.
	raw, _ := json.Marshal(payload)
	return raw
}

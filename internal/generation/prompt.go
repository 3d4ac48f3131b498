package generation

import (
	"fmt"
	"strings"

	"github.com/mentora-learn/mentora-api/internal/domain"
)

// DefaultMaxContextChars bounds how much embedded source content a prompt
// may carry when the caller does not configure a limit. Truncation bounds
// upstream cost and latency.
const DefaultMaxContextChars = 8000

// Output-format contracts embedded in every prompt. Each describes the
// exact machine-parsable shape expected back, to bias the model toward
// output the sanitizer can accept.
const (
	courseFormatContract = `Respond with ONLY a JSON object, no markdown fences and no prose, in exactly this shape:
{
  "title": "course title",
  "sections": [
    {"title": "section title", "content": "section body text"}
  ]
}`

	quizFormatContract = `Respond with ONLY a JSON object, no markdown fences and no prose, in exactly this shape:
{
  "questions": [
    {
      "id": "q1",
      "question": "question text",
      "options": ["option A", "option B", "option C", "option D"],
      "correctAnswer": 0,
      "explanation": "why the answer is correct"
    }
  ]
}
Every question must have exactly 4 options and correctAnswer must be the 0-based index of the right option.`

	mindmapFormatContract = `Respond with ONLY a JSON object, no markdown fences and no prose, in exactly this shape:
{
  "root": {
    "label": "central topic",
    "children": [
      {"label": "branch", "children": []}
    ]
  }
}`
)

// BuildPrompt constructs the model prompt for a generation request. It is
// pure: the same request and limit always produce the same prompt, so
// prompts are reproducible in tests.
//
// Any embedded section context is truncated to a prefix of at most
// maxContextChars characters; pass a non-positive limit to use
// DefaultMaxContextChars.
func BuildPrompt(req domain.GenerationRequest, maxContextChars int) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	if maxContextChars <= 0 {
		maxContextChars = DefaultMaxContextChars
	}

	var b strings.Builder

	switch req.Kind {
	case domain.KindCourse:
		fmt.Fprintf(&b, "Create a complete, well-structured learning course about %q.\n", req.Topic)
		writeDifficulty(&b, req.Difficulty)
		b.WriteString("Organize the material into a logical sequence of sections, each with substantive teaching content.\n\n")
		b.WriteString(courseFormatContract)

	case domain.KindQuiz:
		fmt.Fprintf(&b, "Create a multiple-choice quiz about %q.\n", req.Topic)
		writeDifficulty(&b, req.Difficulty)
		if ctx := Truncate(req.SectionContext, maxContextChars); ctx != "" {
			b.WriteString("Base the questions strictly on the following lesson content:\n---\n")
			b.WriteString(ctx)
			b.WriteString("\n---\n")
		}
		b.WriteString("Write 5 questions that test understanding rather than recall.\n\n")
		b.WriteString(quizFormatContract)

	case domain.KindMindmap:
		fmt.Fprintf(&b, "Create a mindmap that organizes the key concepts of %q.\n", req.Topic)
		if ctx := Truncate(req.SectionContext, maxContextChars); ctx != "" {
			b.WriteString("Cover the concepts that appear in the following content:\n---\n")
			b.WriteString(ctx)
			b.WriteString("\n---\n")
		}
		b.WriteString("Use at most three levels of depth.\n\n")
		b.WriteString(mindmapFormatContract)

	default:
		return "", domain.ErrInvalidKind
	}

	return b.String(), nil
}

// Truncate deterministically caps s to a prefix of at most limit
// characters (runes, so multi-byte text is never split mid-character).
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// writeDifficulty appends a difficulty instruction when one was requested.
func writeDifficulty(b *strings.Builder, difficulty string) {
	if difficulty != "" {
		fmt.Fprintf(b, "Target difficulty level: %s.\n", difficulty)
	}
}

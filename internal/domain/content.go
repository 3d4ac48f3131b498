package domain

// CourseSection is one section of a generated course.
type CourseSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CoursePayload is the structured payload of a course GenerationResult.
type CoursePayload struct {
	Title    string          `json:"title"`
	Sections []CourseSection `json:"sections"`
}

// MindmapNode is a node in a generated mindmap graph. Children may be
// empty for leaf nodes.
type MindmapNode struct {
	Label    string        `json:"label"`
	Children []MindmapNode `json:"children"`
}

// MindmapPayload is the structured payload of a mindmap GenerationResult.
type MindmapPayload struct {
	Root MindmapNode `json:"root"`
}

package video

import "strings"

const TaskTypeGenerate = "video:generate"

// BreakMarker truncates the narrated body for cliffhanger variants: only the
// text before the marker is narrated and captioned.
const BreakMarker = "[BREAK]"

// Nominal clip durations substituted when narration is absent, so overlays
// still have a defined timeline to position against.
const (
	nominalOpeningSeconds = 0.8
	nominalStorySeconds   = 3.0
)

// Request is the immutable input to one job. Title and story are required;
// an unknown voice or category degrades instead of rejecting.
type Request struct {
	Title    string `json:"title"`
	Story    string `json:"story"`
	Category string `json:"category"`
	Voice    string `json:"voice"`
}

// Payload is the task envelope carried through the queue.
type Payload struct {
	JobID   string  `json:"job_id"`
	Request Request `json:"request"`
}

type CreateResponse struct {
	Success   bool   `json:"success"`
	JobID     string `json:"job_id"`
	StatusURL string `json:"status_url"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// narratedBody returns the part of the story that is narrated and captioned.
func narratedBody(story string) string {
	if i := strings.Index(story, BreakMarker); i >= 0 {
		story = story[:i]
	}
	return strings.TrimSpace(story)
}

package pipeline

import "fmt"

// NoteLevel classifies a diagnostic note
type NoteLevel string

const (
	NoteInfo    NoteLevel = "info"
	NoteWarning NoteLevel = "warning"
	NoteError   NoteLevel = "error"
)

// Note is a user-visible diagnostic produced while running the pipeline.
// Fetching code returns notes as data instead of rendering anything itself;
// a presentation layer decides how to show them.
type Note struct {
	Level   NoteLevel `json:"level"`
	Message string    `json:"message"`
}

func Infof(format string, args ...interface{}) Note {
	return Note{Level: NoteInfo, Message: fmt.Sprintf(format, args...)}
}

func Warnf(format string, args ...interface{}) Note {
	return Note{Level: NoteWarning, Message: fmt.Sprintf(format, args...)}
}

func Errorf(format string, args ...interface{}) Note {
	return Note{Level: NoteError, Message: fmt.Sprintf(format, args...)}
}

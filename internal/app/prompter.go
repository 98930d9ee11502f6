package app

import "context"

// Question identifies a prompt so answers can be supplied ahead of time.
type Question int

const (
	QuestionURL = Question(iota)
	QuestionFolder
	QuestionMode
	QuestionQuality
	QuestionOverwrite
)

func (q Question) String() string {
	switch q {
	case QuestionURL:
		return "url"
	case QuestionFolder:
		return "dest"
	case QuestionMode:
		return "mode"
	case QuestionQuality:
		return "quality"
	case QuestionOverwrite:
		return "overwrite"
	}
	return "unknown"
}

type Prompter interface {
	// Ask prints text and returns the user's answer without the line terminator.
	Ask(ctx context.Context, q Question, text string) (string, error)
	// Say prints an informational line.
	Say(text string, args ...interface{})
}

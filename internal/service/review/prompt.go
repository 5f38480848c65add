package review

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the user message for a review request. With target
// languages the model is asked for a short review followed by complete
// translations wrapped in fenced code blocks.
func BuildPrompt(req Request) string {
	if len(req.TranslateTo) == 0 {
		return "Review the following code:\n\n" + req.Code
	}

	targets := strings.Join(req.TranslateTo, ", ")
	return fmt.Sprintf("Review the following code briefly and then focus primarily on translating it to %s.\n\n%s\n\n"+
		"IMPORTANT: After a brief review, please provide a complete translation of this code to the following language(s): %s. "+
		"Make sure to include the complete translated code wrapped in proper code blocks using triple backticks with the language identifier.",
		targets, req.Code, targets)
}

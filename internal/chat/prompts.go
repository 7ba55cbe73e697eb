package chat

import (
	"strings"

	"github.com/memohai/slackrelay/internal/conversation"
)

const closingInstruction = "Respond to the latest user message in a helpful way."

// BuildPrompt renders the conversation history, and the new message when it
// is passed separately, into the text sent to the model.
func BuildPrompt(history []conversation.Turn, message string) string {
	var b strings.Builder
	b.WriteString("Conversation history:\n")
	b.WriteString(conversation.Transcript(history))
	b.WriteString("\n\n")
	if msg := strings.TrimSpace(message); msg != "" {
		b.WriteString("New user message: ")
		b.WriteString(msg)
		b.WriteString(".")
		return b.String()
	}
	b.WriteString(closingInstruction)
	return b.String()
}

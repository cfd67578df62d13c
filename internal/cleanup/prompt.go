package cleanup

// SystemPrompt instructs the model to repair extraction noise without
// changing what the chapter says.
const SystemPrompt = "You are an expert technical editor. Clean OCR/PDF extraction noise, fix typos, " +
	"and lightly polish readability without changing factual meaning. " +
	"Preserve headings and code blocks. Return markdown only."

// Temperature keeps rewrites conservative.
const Temperature = 0.2

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// buildMessages pairs the fixed system instruction with one chapter's text.
func buildMessages(chapterText string) []chatMessage {
	return []chatMessage{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: chapterText},
	}
}

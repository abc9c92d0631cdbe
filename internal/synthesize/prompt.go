package synthesize

// Prompt framing is a versioned constant so a model or prompt change is an
// explicit code change. The transcript is only ever sent as user content;
// nothing from it can alter the system instruction.
const (
	promptVersion = "v1"

	systemPrompt = "You are a writing assistant that turns source material " +
		"into polished, standalone blog articles."

	userPromptPrefix = "Write a detailed, engaging blog article based on the " +
		"following transcript of a video. Structure the content so it flows " +
		"naturally, capture the key points, and keep a professional tone " +
		"suitable for a blog audience. Do not reference the video or reveal " +
		"the source of the material.\n\nTranscript:\n\n"
)

// PromptVersion identifies the instructional framing in logs.
func PromptVersion() string { return promptVersion }

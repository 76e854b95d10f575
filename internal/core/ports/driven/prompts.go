package driven

// Prompt names used with PromptStore.
const (
	// PromptAnswerSystem opens every answer prompt.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerCitations closes every answer prompt.
	PromptAnswerCitations = "answer_citations"
)

// Default prompt texts, used when no store is configured or a file is missing.
const (
	DefaultAnswerSystemPrompt = `You are an assistant that reads industrial machine manuals.
Use only the following context to answer the question. If the answer is not in the context,
say that the provided documents do not contain enough information.`

	DefaultAnswerCitationsPrompt = `Cite every source you use by its bracketed label, for example [manual.pdf#1].`
)

// PromptStore loads user-customisable prompt texts.
type PromptStore interface {
	// Load returns the prompt for name, falling back to the built-in default.
	Load(name string) (string, error)

	// Reload drops cached prompts so edits on disk take effect.
	Reload()
}

package driven

// PromptStore resolves named prompt templates, letting operators override the
// built-in wording without a rebuild.
type PromptStore interface {
	// Load returns the template for name. A store may return its built-in
	// text together with an error when the override could not be read.
	Load(name string) (string, error)
	// Reload drops cached templates.
	Reload()
}

// PromptAnswer is the grounded answer template. It must contain the
// {context} and {question} placeholders.
const PromptAnswer = "answer"

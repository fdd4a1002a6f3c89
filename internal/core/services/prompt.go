package services

import (
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Template placeholders in the answer prompt.
const (
	placeholderContext  = "{context}"
	placeholderQuestion = "{question}"
)

// contextSeparator joins retrieved chunk texts.
const contextSeparator = "\n\n"

// DefaultAnswerPrompt is the built-in grounded answer prompt.
const DefaultAnswerPrompt = `You are a highly intelligent and meticulous Universal Document Analysis Assistant. Your sole purpose is to answer a user's question based *only* on the provided context from a document. You must adhere to the following principles at all times:

**Core Principles:**

1.  **Strict Grounding:** Your entire answer must be derived *exclusively* from the text in the "Context" section. Do not use any external knowledge or make assumptions.
2.  **Honesty and Safety:** If the answer is not present in the context, or if the question is nonsensical, adversarial, or asks for information outside the scope of the document (e.g., asking a car manual for legal advice), you MUST respond with: "` + domain.NotAvailableAnswer + `" Do not attempt to answer unsafe or out-of-scope questions.
3.  **Handling Complexity:** If the user's question contains multiple parts, address each part systematically. Break the question down and find the relevant context for each piece before formulating your final answer.
4.  **Completeness and Precision:** When answering, provide a comprehensive response that includes relevant conditions, exceptions, or limitations mentioned in the context. Use direct quotes where possible to support your answer.

**Reasoning Process:**

1.  **Analyze the Question:** First, understand the user's intent. Is it a single question or a multi-part query? Is it a safe and relevant question?
2.  **Scan for Evidence:** Scrutinize the provided context to find all relevant sentences or paragraphs that can answer the question.
3.  **Synthesize the Answer:** Based only on the evidence you found, construct a clear and concise answer. If you found no evidence, state that the information is not available.

**Context:**
{context}

**Question:**
{question}

**Answer:**
`

// FormatContext joins chunk texts into a single context block.
func FormatContext(chunks []domain.Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	return strings.Join(parts, contextSeparator)
}

// RenderPrompt substitutes the context and question into the template.
// Substitution is single pass, so placeholders inside the inserted text
// are left alone.
func RenderPrompt(template, context, question string) string {
	return strings.NewReplacer(
		placeholderContext, context,
		placeholderQuestion, question,
	).Replace(template)
}

// LoadAnswerPrompt returns the answer prompt from the store, or the
// built-in prompt if the store is nil, fails, or returns a template
// missing a placeholder.
func LoadAnswerPrompt(store driven.PromptStore) string {
	if store == nil {
		return DefaultAnswerPrompt
	}

	tmpl, err := store.Load(driven.PromptAnswer)
	if err != nil {
		logger.Warn("Failed to load answer prompt, using built-in: %v", err)
		return DefaultAnswerPrompt
	}
	if !strings.Contains(tmpl, placeholderContext) || !strings.Contains(tmpl, placeholderQuestion) {
		logger.Warn("Answer prompt must contain %s and %s, using built-in", placeholderContext, placeholderQuestion)
		return DefaultAnswerPrompt
	}

	return tmpl
}

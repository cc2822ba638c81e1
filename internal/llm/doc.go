// Package llm drives the three model calls behind a mailbox analysis:
// metadata cleanup, the main analysis, and the markdown-to-JSON parse.
//
// Provider abstracts an OpenAI-compatible chat-completions backend; the
// concrete clients live in the openai and groq subpackages. Service
// composes an analysis provider with an optional parse provider and owns
// the degradation rules: CleanContent falls back to the original text,
// MarkdownToJSON falls back to the raw markdown, and only Analyze
// propagates its error to the caller.
package llm

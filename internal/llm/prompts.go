package llm

import "fmt"

// cleaningSystemPrompt instructs the cleanup call to strip metadata while
// keeping message content and hyperlinks intact.
const cleaningSystemPrompt = `You are an email cleaning assistant. Your job is to remove email metadata and keep only the actual message content.

Remove the following:
- Email signatures (e.g., "Sent from my iPhone", "Best regards, John Doe")
- Email headers and technical metadata
- Timestamps and date stamps (unless part of message content)
- Threading artifacts and reply indicators
- Automatic footers and disclaimers
- Unsubscribe links and promotional text

Keep the following:
- Actual message content and conversation
- Hyperlinks that are part of the message
- Questions, answers, and discussion points
- Technical details and code snippets

Return ONLY the cleaned message content. If multiple messages, separate them with "---" .`

// parseSystemPrompt instructs the fast parse model to convert a markdown
// analysis into a bare JSON document.
const parseSystemPrompt = `You are a markdown to JSON converter. Convert the provided markdown analysis into a clean, structured JSON format.

CRITICAL RULES:
1. Output ONLY valid JSON - no explanations, no markdown code blocks, no extra text
2. Do NOT wrap the JSON in ` + "```json```" + ` or any markdown formatting
3. Start your response directly with { and end with }
4. Preserve ALL information from the markdown
5. Keep ALL hyperlinks exactly as they appear
6. Maintain hierarchical structure from markdown
7. Use consistent key names across all sections

EXAMPLE OUTPUT FORMAT (adapt structure to match input):
{"sections":[{"title":"SECTION 1","opportunities":[{"name":"...","link":"...","priority":"High"}]}]}`

func cleaningUserPrompt(emailText string) string {
	return fmt.Sprintf("Clean the following email content:\n\n%s", emailText)
}

func parseUserPrompt(markdown string) string {
	return fmt.Sprintf("Convert this markdown to structured JSON (output ONLY the JSON, no markdown formatting):\n\n%s", markdown)
}

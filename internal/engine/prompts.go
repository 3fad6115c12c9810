package engine

import (
	"fmt"
	"unicode/utf8"
)

func buildSummarizePrompt(title, artifactType, text string) string {
	return fmt.Sprintf(`You are producing a spoken-word episode summary for a personal audio queue. The saved item is a %s titled "%s".

Output ONLY valid JSON with this exact structure (no markdown, no explanation):
{"title": "short episode title", "summary": "2-4 sentence summary written to be read aloud"}

Rules:
- The summary must sound natural when spoken by a text-to-speech voice
- No URLs, no markdown, no bullet characters
- Keep the title under 10 words

Content:
%s`, artifactType, title, truncateRunes(text, 12000))
}

func buildFullTextPrompt(title, summary, text string) string {
	return fmt.Sprintf(`You are writing the full audio script for an episode in a personal listening queue. The episode is titled "%s".
Short summary for context: %s

Rewrite the content below as a flowing spoken-word script of 2-5 minutes. Output ONLY the script text, nothing else.

Rules:
- Conversational, as if a narrator is reading to a commuter
- No URLs, no markdown, no headings, no stage directions
- Preserve the key facts and any actionable points

Content:
%s`, title, summary, truncateRunes(text, 12000))
}

func buildScreenshotPrompt() string {
	return `Describe and transcribe this screenshot for someone who cannot see it. Output ONLY plain text: first a one-sentence description of what the screenshot shows, then any readable text it contains, cleaned up into sentences. No markdown.`
}

// truncateRunes truncates s to maxRunes runes (Unicode-safe).
func truncateRunes(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes]) + "\n... [truncated]"
}

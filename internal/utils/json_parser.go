package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseModelJSON extracts and parses a JSON object from LLM output that may
// contain:
// - Pure JSON
// - JSON wrapped in markdown code blocks (```json ... ```)
// - JSON with surrounding prose
// - Trailing commas and similar near-misses
//
// All three extraction call sites (intent, selection, booking) share this
// one recovery path so the brittle scanning lives in a single place.
func ParseModelJSON(input string, target interface{}) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("empty input")
	}

	// Try direct parsing first (most common case)
	if err := json.Unmarshal([]byte(input), target); err == nil {
		return nil
	}

	// Try to extract JSON from markdown code blocks
	if extracted := extractFromMarkdown(input); extracted != "" {
		if err := json.Unmarshal([]byte(extracted), target); err == nil {
			return nil
		}
	}

	// Scan for the first balanced object in surrounding text
	if extracted := extractObjectFromText(input); extracted != "" {
		if err := json.Unmarshal([]byte(extracted), target); err == nil {
			return nil
		}
		// Last resort: strip trailing commas inside the extracted object
		if cleaned := stripTrailingCommas(extracted); cleaned != extracted {
			if err := json.Unmarshal([]byte(cleaned), target); err == nil {
				return nil
			}
		}
	}

	if cleaned := stripTrailingCommas(input); cleaned != input {
		if err := json.Unmarshal([]byte(cleaned), target); err == nil {
			return nil
		}
	}

	return fmt.Errorf("failed to parse JSON from input: %s", truncateString(input, 100))
}

// extractFromMarkdown extracts JSON from ```json ... ``` or ``` ... ``` blocks.
func extractFromMarkdown(input string) string {
	re1 := regexp.MustCompile("(?s)```json\\s*(.+?)\\s*```")
	if matches := re1.FindStringSubmatch(input); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	re2 := regexp.MustCompile("(?s)```\\s*(.+?)\\s*```")
	if matches := re2.FindStringSubmatch(input); len(matches) > 1 {
		content := strings.TrimSpace(matches[1])
		if strings.HasPrefix(content, "{") {
			return content
		}
	}

	return ""
}

// extractObjectFromText finds the first balanced JSON object in free text,
// honoring string literals and escapes.
func extractObjectFromText(input string) string {
	start := strings.Index(input, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escape := false

	for i, ch := range input[start:] {
		if escape {
			escape = false
			continue
		}
		switch {
		case ch == '\\':
			escape = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return input[start : start+i+1]
			}
		}
	}

	return ""
}

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

func stripTrailingCommas(input string) string {
	return trailingCommaRe.ReplaceAllString(input, "$1")
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Package ai provides response cleaning utilities for handling malformed LLM responses.
package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ResponseCleaner handles cleaning and sanitizing LLM responses.
type ResponseCleaner struct{}

// NewResponseCleaner creates a new response cleaner.
func NewResponseCleaner() *ResponseCleaner {
	return &ResponseCleaner{}
}

// CleanJSONResponse cleans and sanitizes a JSON response from LLM models.
func (rc *ResponseCleaner) CleanJSONResponse(response string) string {
	response = rc.removeMarkdownBlocks(response)
	response = rc.extractJSON(response)
	response = rc.validateAndFixJSON(response)
	return response
}

// removeMarkdownBlocks removes markdown code fences from the response.
func (rc *ResponseCleaner) removeMarkdownBlocks(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}

// extractJSON extracts the first balanced JSON object from mixed content.
// Models occasionally prepend commentary before the object they were told
// to return alone.
func (rc *ResponseCleaner) extractJSON(response string) string {
	start := strings.Index(response, "{")
	if start == -1 {
		return response
	}
	braceCount := 0
	end := start
	for i := start; i < len(response); i++ {
		switch response[i] {
		case '{':
			braceCount++
		case '}':
			braceCount--
			if braceCount == 0 {
				end = i
				i = len(response)
			}
		}
	}
	if end > start {
		return response[start : end+1]
	}
	return response
}

// validateAndFixJSON returns the input unchanged when it already parses,
// otherwise applies common fixes (trailing commas).
func (rc *ResponseCleaner) validateAndFixJSON(response string) string {
	var tmp any
	if err := json.Unmarshal([]byte(response), &tmp); err == nil {
		return response
	}
	return trailingCommaRe.ReplaceAllString(response, "$1")
}

var trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)

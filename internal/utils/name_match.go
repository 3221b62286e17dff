package utils

import "strings"

// NameMatch reports whether a project name and a user-supplied name refer to
// each other, using case-insensitive bidirectional substring containment.
// "marina" matches "Marina Heights" and "the Marina Heights project" matches
// "Marina Heights". Known-loose for very short names.
func NameMatch(projectName, mentioned string) bool {
	a := strings.ToLower(strings.TrimSpace(projectName))
	b := strings.ToLower(strings.TrimSpace(mentioned))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

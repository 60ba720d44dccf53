package utils

import "strings"

// FormatInterviewType maps the URL slug onto the display name used in
// prompts and greetings.
func FormatInterviewType(t string) string {
	switch t {
	case "technical":
		return "Technical"
	case "behavioral":
		return "Behavioral"
	case "mixed":
		return "Mixed"
	default:
		return capitalize(t)
	}
}

// FormatRole turns a role slug like "full-stack" into "Full Stack".
func FormatRole(role string) string {
	parts := strings.Split(role, "-")
	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

// HumanizeRole turns a role slug into prompt-friendly lowercase words
// ("full-stack" -> "full stack").
func HumanizeRole(role string) string {
	return strings.ReplaceAll(role, "-", " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

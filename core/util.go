package core

import "strings"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// MarksheetFilename is the attachment name used for a student's marksheet.
func MarksheetFilename(student string) string {
	name := strings.Join(strings.Fields(student), "_")
	if name == "" {
		name = "student"
	}
	return strings.NewReplacer("/", "_", `\`, "_").Replace(name) + "_marksheet.pdf"
}

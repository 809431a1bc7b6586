package localdevice

import "strings"

// parseSection extracts the substring of text between startMarker and
// endMarker, used to scope regex extraction to one device-class section
// of a diagnostic listing that enumerates several device classes in one
// block of text.
func parseSection(text, startMarker, endMarker string) string {
	startIdx := strings.Index(text, startMarker)
	if startIdx < 0 {
		return ""
	}
	section := text[startIdx+len(startMarker):]

	if endIdx := strings.Index(section, endMarker); endIdx >= 0 {
		section = section[:endIdx]
	}
	return section
}

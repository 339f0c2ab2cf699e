package domain

import (
	"regexp"
	"strings"
)

const maxFilenameLen = 200

var (
	illegalChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	multiSpace   = regexp.MustCompile(`\s+`)
)

// MediaFilename derives the output filename for a title deterministically:
// filesystem-illegal characters are stripped, whitespace collapsed, the
// result trimmed and capped, and a standard media extension forced. Two
// distinct titles may sanitize to the same name; that collision is accepted.
func MediaFilename(title string) string {
	name := illegalChars.ReplaceAllString(title, "")
	name = multiSpace.ReplaceAllString(name, " ")
	name = strings.Trim(name, " .")

	if len(name) > maxFilenameLen {
		name = name[:maxFilenameLen]
	}
	if !strings.HasSuffix(name, ".mp4") {
		name += ".mp4"
	}
	return name
}

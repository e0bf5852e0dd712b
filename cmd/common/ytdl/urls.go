package ytdl

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtu\.be/([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`[?&]v=([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`/(?:embed|shorts|live|v)/([0-9A-Za-z_-]{11})`),
}

// ExtractVideoID returns the 11 character YouTube id in url, or "".
func ExtractVideoID(url string) string {
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

// SplitURLs splits user input on commas and whitespace, dropping blanks
// and duplicates.
func SplitURLs(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	return lo.Uniq(fields)
}

package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mroshb/friendgraph/pkg/utils"
)

var htmlPolicy = bluemonday.StrictPolicy()

// SanitizeString removes potentially dangerous characters
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")

	if len(input) > 1000 {
		input = input[:1000]
	}

	return input
}

// SanitizeHTML removes all HTML tags
func SanitizeHTML(input string) string {
	return htmlPolicy.Sanitize(input)
}

// StripTags removes HTML tags and leaves the remaining text unescaped.
func StripTags(input string) string {
	return html.UnescapeString(SanitizeHTML(input))
}

// SanitizeUsername strips markup and surrounding whitespace from a
// user-chosen name and folds look-alike characters. The result may be empty.
func SanitizeUsername(input string) string {
	return strings.TrimSpace(utils.FoldConfusables(StripTags(SanitizeString(input))))
}

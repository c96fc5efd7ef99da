package transform

import (
	"context"
	"regexp"
)

// ReplaceText replaces every match of re. repl may reference groups as in
// regexp.Regexp.ReplaceAllString.
func ReplaceText(re *regexp.Regexp, repl string) Transform {
	return Text("replace-text", func(_ context.Context, text string) (string, error) {
		return re.ReplaceAllString(text, repl), nil
	})
}

var sourceMappingURL = regexp.MustCompile(`//[#@] sourceMappingURL=\S*\.map[ \t]*`)

// StripSourceMappingURL removes sourceMappingURL comments. Line breaks are
// kept so that positions on later lines do not move.
func StripSourceMappingURL() Transform {
	return Text("strip-source-mapping-url", func(_ context.Context, text string) (string, error) {
		return sourceMappingURL.ReplaceAllString(text, ""), nil
	})
}

package plan

import "strings"

// Source is where a manifest comes from: inline Text, or a URL to fetch.
// Text wins when both are set; URL is then only used to resolve relative
// segment references.
type Source struct {
	URL  string
	Text string
	Keys []string
}

// ParseSource interprets s as a URL when it starts with "http" and as inline
// manifest text otherwise.
func ParseSource(s string) Source {
	if strings.HasPrefix(s, "http") {
		return Source{URL: s}
	}

	return Source{Text: s}
}

// SplitKeys splits a comma or whitespace separated key list.
func SplitKeys(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})
}

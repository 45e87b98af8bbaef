// Package sanitize cleans free text before it is stored, exported to
// spreadsheets or rendered into generated HTML.
package sanitize

import "strings"

// formulaTriggers start a formula when a cell is opened in a spreadsheet.
const formulaTriggers = "=+-@"

var angleReplacer = strings.NewReplacer("<", "&lt;", ">", "&gt;")

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// String trims s, neutralises a leading formula trigger with a single quote
// and replaces angle brackets with entities.
func String(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if strings.ContainsRune(formulaTriggers, rune(s[0])) {
		s = "'" + s
	}
	return angleReplacer.Replace(s)
}

// Value applies String to string input. nil becomes the empty string and any
// other type is returned unchanged.
func Value(v any) any {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return String(s)
	case *string:
		if s == nil {
			return ""
		}
		return String(*s)
	default:
		return v
	}
}

// HTML fully escapes s for interpolation into printable documents.
func HTML(s string) string {
	return htmlReplacer.Replace(s)
}

package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"  ThinkPad T14  ", "ThinkPad T14"},
		{"=SUM(A1:A2)", "'=SUM(A1:A2)"},
		{"  +66 81 234 5678", "'+66 81 234 5678"},
		{"-1", "'-1"},
		{"@admin", "'@admin"},
		{"<script>", "&lt;script&gt;"},
		{"=<b>", "'=&lt;b&gt;"},
		{"a & b", "a & b"},
		{"ชำรุด", "ชำรุด"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, String(tt.in), "String(%q)", tt.in)
	}
}

func TestValue(t *testing.T) {
	assert.Equal(t, "", Value(nil))
	assert.Equal(t, "'=1+1", Value(" =1+1 "))
	assert.Equal(t, 42, Value(42))
	assert.Equal(t, true, Value(true))

	var nilStr *string
	assert.Equal(t, "", Value(nilStr))
	s := "<x>"
	assert.Equal(t, "&lt;x&gt;", Value(&s))
}

func TestHTML(t *testing.T) {
	assert.Equal(t, "&lt;a href=&quot;x&quot;&gt;Tom &amp; Jerry&#39;s&lt;/a&gt;", HTML(`<a href="x">Tom & Jerry's</a>`))
	assert.Equal(t, "plain", HTML("plain"))
}

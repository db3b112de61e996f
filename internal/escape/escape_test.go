package escape

import "testing"

func TestEncodeEntities(t *testing.T) {
	got := EncodeEntities(`if a < b && c > d`)
	want := `if a &lt; b &amp;&amp; c &gt; d`
	if got != want {
		t.Errorf("EncodeEntities = %q, want %q", got, want)
	}
}

func TestDecodeEntities(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"basic", "&lt;p&gt; &amp; &quot;x&quot; &#39;y&#39;", `<p> & "x" 'y'`},
		{"nbsp", "a&nbsp;b", "a b"},
		{"curly quotes", "&#8216;a&#8217; &#8220;b&#8221;", "\u2018a\u2019 \u201cb\u201d"},
		{"unknown passes through", "&copy; &hellip; &#169;", "&copy; &hellip; &#169;"},
		{"no double decode", "&amp;lt;", "&lt;"},
		{"dangling ampersand", "AT&T", "AT&T"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeEntities(tt.in); got != tt.want {
				t.Errorf("DecodeEntities(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := `x <y> & "z"`
	if got := DecodeEntities(EncodeEntities(in)); got != in {
		t.Errorf("round trip = %q, want %q", got, in)
	}
}

func TestEscapeQuotes(t *testing.T) {
	if got := EscapeQuotes(`A "Quoted" Title`); got != `A \"Quoted\" Title` {
		t.Errorf("EscapeQuotes = %q", got)
	}
	if got := EscapeQuotes(`C:\dir`); got != `C:\\dir` {
		t.Errorf("EscapeQuotes backslash = %q", got)
	}
}

func TestEscapeAttr(t *testing.T) {
	if got := EscapeAttr(`a"b&c`); got != "a&quot;b&amp;c" {
		t.Errorf("EscapeAttr = %q", got)
	}
}

func TestStripTags(t *testing.T) {
	if got := StripTags(`<span class="k">func</span> main`); got != "func main" {
		t.Errorf("StripTags = %q", got)
	}
}

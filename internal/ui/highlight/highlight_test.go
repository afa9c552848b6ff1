package highlight

import (
	"strings"
	"testing"
)

func TestHighlightDisabled(t *testing.T) {
	h := New(false)
	doc := `{"14:00-19:00": {"history": []}}`
	if got := h.Highlight(doc, "json"); got != doc {
		t.Errorf("disabled highlighter changed input: %q", got)
	}
}

func TestHighlightJSON(t *testing.T) {
	h := New(true)
	doc := `{"offset_mean": 0.05}`
	got := h.Highlight(doc, "json")
	if !strings.Contains(got, "\033[") {
		t.Errorf("expected ANSI escapes, got %q", got)
	}
	if !strings.Contains(got, "offset_mean") || !strings.Contains(got, "0.05") {
		t.Errorf("content lost: %q", got)
	}
}

func TestHighlightUnknownLanguage(t *testing.T) {
	h := New(true)
	if got := h.Highlight("plain text", "no-such-language"); !strings.Contains(got, "plain text") {
		t.Errorf("fallback lexer lost content: %q", got)
	}
}

package render

import (
	"strings"
	"testing"
)

func TestMarkdownBoldAndHardBreak(t *testing.T) {
	out := string(Markdown("**bold**\nline2"))
	if !strings.Contains(out, "<strong>bold</strong>") {
		t.Fatalf("expected bold element, got %q", out)
	}
	if !strings.Contains(out, "<br") {
		t.Fatalf("expected hard line break, got %q", out)
	}
	if !strings.Contains(out, "line2") {
		t.Fatalf("expected second line, got %q", out)
	}
}

func TestMarkdownDropsScript(t *testing.T) {
	inputs := []string{
		"<script>x</script>",
		"hello <script>alert(1)</script> world",
		`<img src="x" onerror="alert(1)">`,
		"[click](javascript:alert(1))",
		`<a href="#" onclick="steal()">link</a>`,
	}
	for _, in := range inputs {
		out := strings.ToLower(string(Markdown(in)))
		for _, bad := range []string{"<script", "onerror", "onclick", "javascript:"} {
			if strings.Contains(out, bad) {
				t.Fatalf("render(%q) kept %q: %q", in, bad, out)
			}
		}
	}
}

func TestMarkdownIsDeterministic(t *testing.T) {
	in := "| Crop | Price |\n|---|---|\n| Tomato | ₹25/kg |\n\n1. Sow\n2. Irrigate"
	first := Markdown(in)
	for i := 0; i < 5; i++ {
		if got := Markdown(in); got != first {
			t.Fatalf("render not deterministic: %q vs %q", got, first)
		}
	}
	if !strings.Contains(string(first), "<table>") {
		t.Fatalf("expected table markup, got %q", first)
	}
	if !strings.Contains(string(first), "<ol>") {
		t.Fatalf("expected ordered list, got %q", first)
	}
}

func TestMarkdownPassesPlainTextVerbatim(t *testing.T) {
	text := "The image is unclear. Please upload a clearer picture of the leaf."
	out := string(Markdown(text))
	if !strings.Contains(out, text) {
		t.Fatalf("expected text verbatim, got %q", out)
	}
}

func TestPlainEscapes(t *testing.T) {
	out := string(Plain("<b>hi</b>\nthere"))
	if strings.Contains(out, "<b>") {
		t.Fatalf("expected escaped tags, got %q", out)
	}
	if !strings.Contains(out, "&lt;b&gt;hi&lt;/b&gt;<br>") {
		t.Fatalf("unexpected output %q", out)
	}
}

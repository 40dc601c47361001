package ingestion

import (
	"strings"
	"testing"
)

func TestExtractTitle(t *testing.T) {
	content := "Some preamble\n\n# LLM Agents\n\nBody text."
	if got := ExtractTitle(content, "fallback"); got != "LLM Agents" {
		t.Fatalf("expected heading title, got %q", got)
	}
}

func TestExtractTitleStripsNestedHeadingMarkers(t *testing.T) {
	if got := ExtractTitle("## Prompt Engineering", "fallback"); got != "Prompt Engineering" {
		t.Fatalf("expected %q, got %q", "Prompt Engineering", got)
	}
}

func TestExtractTitleFallback(t *testing.T) {
	if got := ExtractTitle("no headings here", "agents.md"); got != "agents.md" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestChunkTextSplitsOnParagraphs(t *testing.T) {
	a := strings.Repeat("a", 400)
	b := strings.Repeat("b", 400)
	c := strings.Repeat("c", 400)
	content := a + "\n\n" + b + "\n\n" + c

	chunks := ChunkText(content, 900, 0)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0] != a+"\n\n"+b {
		t.Fatalf("first chunk should hold two paragraphs, got %d bytes", len(chunks[0]))
	}
	if chunks[1] != c {
		t.Fatalf("second chunk should hold last paragraph, got %d bytes", len(chunks[1]))
	}
}

func TestChunkTextOverlapRepeatsLastParagraph(t *testing.T) {
	a := strings.Repeat("a", 400)
	b := strings.Repeat("b", 400)
	c := strings.Repeat("c", 400)
	content := a + "\n\n" + b + "\n\n" + c

	chunks := ChunkText(content, 900, 200)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if !strings.HasPrefix(chunks[1], b) {
		t.Fatal("second chunk should start with the overlapped paragraph")
	}
	if !strings.HasSuffix(chunks[1], c) {
		t.Fatal("second chunk should end with the new paragraph")
	}
}

func TestChunkTextShortContentStaysWhole(t *testing.T) {
	chunks := ChunkText("small paragraph", 1000, 200)
	if len(chunks) != 1 || chunks[0] != "small paragraph" {
		t.Fatalf("expected single unchanged chunk, got %v", chunks)
	}
}

func TestChunkTextEmptyContent(t *testing.T) {
	if chunks := ChunkText("  \n\n  ", 1000, 200); len(chunks) != 0 {
		t.Fatalf("expected no chunks for blank content, got %v", chunks)
	}
}

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		path string
		want DocumentFormat
	}{
		{"docs/agents.md", FormatMarkdown},
		{"docs/Agents.MD", FormatMarkdown},
		{"docs/notes.markdown", FormatMarkdown},
		{"papers/react.pdf", FormatPDF},
		{"data/raw.txt", FormatUnknown},
		{"noext", FormatUnknown},
	}
	for _, tc := range cases {
		if got := DetectFormat(tc.path); got != tc.want {
			t.Errorf("DetectFormat(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestParseMarkdown(t *testing.T) {
	doc := parseMarkdown("docs/agents.md", []byte("# Agents\n\nBody."))
	if doc.Title != "Agents" {
		t.Fatalf("expected heading title, got %q", doc.Title)
	}
	if doc.Content != "# Agents\n\nBody." {
		t.Fatalf("markdown content should pass through, got %q", doc.Content)
	}
}

func TestParseHTMLExtractsReadableText(t *testing.T) {
	page := []byte(`<html><head><title>Adversarial Prompting</title>
<script>var tracked = true;</script></head>
<body>
<nav>Home | About</nav>
<h1>Adversarial Prompting</h1>
<p>Prompt injection hijacks model output.</p>
<ul><li>Jailbreaking</li></ul>
<footer>copyright</footer>
</body></html>`)

	doc, err := ParseHTML("https://example.com/adversarial", page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "Adversarial Prompting" {
		t.Fatalf("expected page title, got %q", doc.Title)
	}
	if !strings.Contains(doc.Content, "Prompt injection hijacks model output.") {
		t.Fatalf("expected paragraph text, got %q", doc.Content)
	}
	if !strings.Contains(doc.Content, "Jailbreaking") {
		t.Fatalf("expected list item text, got %q", doc.Content)
	}
	if strings.Contains(doc.Content, "tracked") {
		t.Fatal("script content should be stripped")
	}
	if strings.Contains(doc.Content, "Home | About") {
		t.Fatal("nav content should be stripped")
	}
	if strings.Contains(doc.Content, "copyright") {
		t.Fatal("footer content should be stripped")
	}
}

func TestParseHTMLFallsBackToSource(t *testing.T) {
	doc, err := ParseHTML("https://example.com/bare", []byte("<html><body><p>text</p></body></html>"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "https://example.com/bare" {
		t.Fatalf("expected source fallback title, got %q", doc.Title)
	}
}

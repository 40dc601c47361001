package workflow

import "strings"

// MetadataSource is the metadata key carrying a document's provenance.
const MetadataSource = "source"

// SourceWebSearch marks documents synthesized from web search results.
const SourceWebSearch = "web_search"

// Document is one retrieved passage plus provenance metadata.
type Document struct {
	Text     string
	Metadata map[string]string
}

// WebSearchDocument wraps concatenated search results as a single document.
func WebSearchDocument(text string) Document {
	return Document{
		Text:     text,
		Metadata: map[string]string{MetadataSource: SourceWebSearch},
	}
}

// Datasource identifies which retrieval source should service a question.
type Datasource string

const (
	DatasourceVectorstore Datasource = "vectorstore"
	DatasourceWebSearch   Datasource = "web_search"
)

// RouteDecision is the router's pick of a datasource. Values outside the two
// known datasources are treated as web_search by the workflow.
type RouteDecision struct {
	Datasource Datasource
}

// RelevanceGrade reports whether one document bears on the question.
type RelevanceGrade struct {
	Relevant bool
}

// GroundednessGrade reports whether a generation is supported by the
// documents it was produced from.
type GroundednessGrade struct {
	Grounded bool
}

// AnswerGrade reports whether a generation actually addresses the question.
type AnswerGrade struct {
	AddressesQuestion bool
}

// State is the record threaded through one workflow invocation. Each step
// derives a new value; a State is never mutated after it is produced, and one
// invocation owns its State for the invocation's whole lifetime.
type State struct {
	// Question is fixed at Invoke time.
	Question string

	// Documents holds the passages currently feeding generation. Retrieval
	// and grading replace it wholesale; web search appends one document.
	Documents []Document

	// Generation is empty until the generator has run at least once.
	Generation string

	// NeedsWebSearch is set by grading when at least one retrieved document
	// was judged irrelevant.
	NeedsWebSearch bool
}

func (s State) withDocuments(docs []Document) State {
	s.Documents = docs
	return s
}

func (s State) withAppended(doc Document) State {
	docs := make([]Document, 0, len(s.Documents)+1)
	docs = append(docs, s.Documents...)
	docs = append(docs, doc)
	s.Documents = docs
	return s
}

func (s State) withGeneration(generation string) State {
	s.Generation = generation
	return s
}

func (s State) withNeedsWebSearch(needed bool) State {
	s.NeedsWebSearch = needed
	return s
}

// ContextText concatenates all document texts with a blank-line separator,
// the form the generator and groundedness grader consume.
func (s State) ContextText() string {
	parts := make([]string, len(s.Documents))
	for i, doc := range s.Documents {
		parts[i] = doc.Text
	}
	return strings.Join(parts, "\n\n")
}

// Result is the caller-facing summary of a finished invocation.
type Result struct {
	Question      string `json:"question"`
	Generation    string `json:"generation"`
	DocumentsUsed int    `json:"documentsUsed"`
}

// Result summarizes the final state.
func (s State) Result() Result {
	return Result{
		Question:      s.Question,
		Generation:    s.Generation,
		DocumentsUsed: len(s.Documents),
	}
}

package domain

// UnknownLanguage is reported when language detection cannot produce an answer.
const UnknownLanguage = "unknown"

// QueryResult is one ranked document returned for a query.
// Score is the fused score used for ranking; the component scores are kept for presentation.
type QueryResult struct {
	DocID         string
	Text          string
	Score         float64
	LexicalScore  float64
	SemanticScore float64
	Language      string
	Highlights    []string
}

// Detection is the outcome of a language detection attempt.
// A non-nil Err means detection failed and Language must not be trusted.
type Detection struct {
	Language   string
	Confidence float64
	Err        error
}

// LanguageOrUnknown returns the detected language, or UnknownLanguage when detection failed.
func (d Detection) LanguageOrUnknown() string {
	if d.Err != nil || d.Language == "" {
		return UnknownLanguage
	}
	return d.Language
}

// LanguageDetector identifies the natural language of a text.
// Implementations report failure through Detection.Err and never panic.
type LanguageDetector interface {
	Detect(text string) Detection
}

// Splitter breaks an ingested file into the passages that get indexed as documents.
type Splitter interface {
	Split(text string) []string
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

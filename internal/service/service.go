// Package service orchestrates ingestion and query enrichment on top of the retrieval engine.
// It is the layer the HTTP API and the TUI talk to.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hybridrag/internal/chunker"
	"hybridrag/internal/domain"
	"hybridrag/internal/engine"
	"hybridrag/internal/ingest"
	"hybridrag/internal/langdetect"
	"hybridrag/internal/metrics"
	"hybridrag/internal/summarizer"
)

// ErrNoContent is returned when ingestion yields no non-blank text.
var ErrNoContent = errors.New("no text content extracted")

// RetrievedDocument is one ranked document as presented to clients.
type RetrievedDocument struct {
	DocID         string   `json:"doc_id"`
	Text          string   `json:"original_text"`
	Score         float64  `json:"score"`
	LexicalScore  float64  `json:"lexical_score"`
	SemanticScore float64  `json:"semantic_score"`
	Confidence    float64  `json:"confidence"`
	Language      string   `json:"language"`
	Highlights    []string `json:"highlights"`
}

// QueryResponse is a ranked result set with request-level statistics.
type QueryResponse struct {
	Query            string              `json:"query"`
	QueryLang        string              `json:"query_lang"`
	RetrievedLangs   []string            `json:"retrieved_langs"`
	Documents        []RetrievedDocument `json:"documents"`
	LatencyMS        float64             `json:"latency_ms"`
	ScoreMean        float64             `json:"score_mean"`
	TokenCount       int                 `json:"token_count"`
	SemanticFallback bool                `json:"semantic_fallback"`
}

// IngestReport summarizes one ingestion request.
type IngestReport struct {
	Files            int    `json:"files"`
	Documents        int    `json:"documents"`
	Total            int    `json:"total"`
	Summary          string `json:"summary,omitempty"`
	SemanticFallback bool   `json:"semantic_fallback"`
}

// Upload is a file received over the API.
type Upload struct {
	Name string
	Data []byte
}

// Feedback is a client's relevance judgement. It is logged and not learned from.
type Feedback struct {
	Query   string `json:"query"`
	DocID   string `json:"doc_id,omitempty"`
	Helpful bool   `json:"helpful"`
	Notes   string `json:"notes,omitempty"`
}

// Stats describes the current corpus.
type Stats struct {
	Documents       int  `json:"documents"`
	Ready           bool `json:"ready"`
	SemanticEnabled bool `json:"semantic_enabled"`
}

// Service wraps an Engine with ingestion, enrichment and metrics.
type Service struct {
	engine      *engine.Engine
	splitter    domain.Splitter
	summarizer  domain.Summarizer
	detector    domain.LanguageDetector
	summaryLen  int
	defaultTopK int
	maxTopK     int
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithSplitter sets how ingested files become documents. Default keeps each file whole.
func WithSplitter(s domain.Splitter) Option {
	return func(svc *Service) {
		if s != nil {
			svc.splitter = s
		}
	}
}

// WithSummarizer sets the summarizer used for file ingestion and the summary length.
func WithSummarizer(s domain.Summarizer, maxSentences int) Option {
	return func(svc *Service) {
		if s != nil {
			svc.summarizer = s
		}
		svc.summaryLen = maxSentences
	}
}

// WithDetector sets the detector used for the query language.
func WithDetector(d domain.LanguageDetector) Option {
	return func(svc *Service) {
		if d != nil {
			svc.detector = d
		}
	}
}

// WithTopK sets the default result count and the upper bound for requested counts.
func WithTopK(defaultTopK, maxTopK int) Option {
	return func(svc *Service) {
		if defaultTopK > 0 {
			svc.defaultTopK = defaultTopK
		}
		if maxTopK > 0 {
			svc.maxTopK = maxTopK
		}
	}
}

// WithMetrics records query and indexing metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(svc *Service) { svc.metrics = m }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(svc *Service) {
		if logger != nil {
			svc.logger = logger
		}
	}
}

// New creates a Service over eng.
func New(eng *engine.Engine, opts ...Option) *Service {
	svc := &Service{
		engine:      eng,
		splitter:    chunker.Passthrough{},
		summarizer:  summarizer.NewFrequencySummarizer(),
		detector:    langdetect.New(),
		summaryLen:  summarizer.DefaultMaxSentences,
		defaultTopK: 5,
		maxTopK:     100,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.logger = svc.logger.With("component", "service")
	return svc
}

// DefaultTopK is the result count used when a caller does not ask for one.
func (s *Service) DefaultTopK() int { return s.defaultTopK }

// IngestFiles loads the files matching patterns, splits them into documents, indexes them
// and returns a summary of their combined text.
func (s *Service) IngestFiles(ctx context.Context, patterns []string) (IngestReport, error) {
	files, err := ingest.LoadFiles(patterns)
	if err != nil {
		return IngestReport{}, err
	}
	var docs []string
	var all strings.Builder
	for _, f := range files {
		docs = append(docs, s.splitter.Split(f.Text)...)
		all.WriteString(f.Text)
		all.WriteString("\n")
	}
	docs = ingest.Clean(docs)
	if len(docs) == 0 {
		return IngestReport{}, ErrNoContent
	}
	report := s.index(ctx, docs)
	report.Files = len(files)

	summary, err := s.summarizer.Summarize(all.String(), s.summaryLen)
	if err != nil {
		return report, fmt.Errorf("summarize: %w", err)
	}
	report.Summary = summary
	s.logger.Info("ingest_complete", "files", report.Files, "documents", report.Documents, "total", report.Total)
	return report, nil
}

// IngestUploads extracts text from uploaded files and indexes the non-blank passages.
// Any unsupported file rejects the whole request before anything is indexed.
func (s *Service) IngestUploads(ctx context.Context, uploads []Upload) (IngestReport, error) {
	if len(uploads) == 0 {
		return IngestReport{}, ingest.ErrNoFiles
	}
	var docs []string
	for _, u := range uploads {
		text, err := ingest.ExtractText(u.Name, u.Data)
		if err != nil {
			s.logger.Warn("upload_rejected", "file", u.Name, "error", err)
			return IngestReport{}, err
		}
		docs = append(docs, s.splitter.Split(text)...)
	}
	docs = ingest.Clean(docs)
	if len(docs) == 0 {
		return IngestReport{}, ErrNoContent
	}
	report := s.index(ctx, docs)
	report.Files = len(uploads)
	s.logger.Info("upload_index_complete", "files", report.Files, "documents", report.Documents)
	return report, nil
}

// IngestTexts indexes documents exactly as given, blank ones included.
func (s *Service) IngestTexts(ctx context.Context, documents []string) IngestReport {
	return s.index(ctx, documents)
}

func (s *Service) index(ctx context.Context, docs []string) IngestReport {
	out := s.engine.Index(ctx, docs)
	if s.metrics != nil {
		s.metrics.DocsIndexedTotal.Add(float64(out.Added))
		s.metrics.CorpusSize.Set(float64(out.Total))
	}
	return IngestReport{
		Documents:        out.Added,
		Total:            out.Total,
		SemanticFallback: out.Semantic.Fallback,
	}
}

// ClampTopK bounds a requested result count by the configured maximum.
func (s *Service) ClampTopK(topK int) int {
	if topK > s.maxTopK {
		return s.maxTopK
	}
	return topK
}

// Query retrieves the topK best documents for text and annotates the result set.
func (s *Service) Query(ctx context.Context, text string, topK int) QueryResponse {
	start := s.now()
	out := s.engine.Query(ctx, text, s.ClampTopK(topK))

	resp := QueryResponse{
		Query:            text,
		QueryLang:        queryLanguage(s.detector.Detect(text).LanguageOrUnknown(), text),
		RetrievedLangs:   make([]string, 0, len(out.Results)),
		Documents:        make([]RetrievedDocument, 0, len(out.Results)),
		TokenCount:       len(strings.Fields(text)),
		SemanticFallback: out.Semantic.Fallback,
	}
	maxScore, sum := 0.0, 0.0
	for i, r := range out.Results {
		if i == 0 || r.Score > maxScore {
			maxScore = r.Score
		}
		sum += r.Score
	}
	for _, r := range out.Results {
		confidence := 0.0
		if maxScore != 0 {
			confidence = r.Score / maxScore
		}
		resp.RetrievedLangs = append(resp.RetrievedLangs, r.Language)
		resp.Documents = append(resp.Documents, RetrievedDocument{
			DocID:         r.DocID,
			Text:          r.Text,
			Score:         r.Score,
			LexicalScore:  r.LexicalScore,
			SemanticScore: r.SemanticScore,
			Confidence:    confidence,
			Language:      r.Language,
			Highlights:    r.Highlights,
		})
	}
	if n := len(out.Results); n > 0 {
		resp.ScoreMean = sum / float64(n)
	}
	elapsed := s.now().Sub(start)
	resp.LatencyMS = float64(elapsed.Microseconds()) / 1000

	if s.metrics != nil {
		s.metrics.QueriesTotal.WithLabelValues(metrics.SemanticLabel(s.engine.SemanticEnabled(), out.Semantic.Fallback)).Inc()
		s.metrics.QueryLatency.Observe(elapsed.Seconds())
		s.metrics.QueryResultsCount.Observe(float64(len(out.Results)))
	}
	s.logger.Info("query_complete",
		"query_lang", resp.QueryLang,
		"retrieved_langs", resp.RetrievedLangs,
		"score_mean", resp.ScoreMean,
		"latency_ms", resp.LatencyMS,
		"semantic_fallback", resp.SemanticFallback,
	)
	return resp
}

// RecordFeedback logs a relevance judgement.
func (s *Service) RecordFeedback(_ context.Context, fb Feedback) {
	s.logger.Info("feedback_received",
		"query", fb.Query,
		"doc_id", fb.DocID,
		"helpful", fb.Helpful,
		"notes", fb.Notes,
	)
}

// Stats reports the corpus size and readiness.
func (s *Service) Stats() Stats {
	return Stats{
		Documents:       s.engine.Len(),
		Ready:           s.engine.Ready(),
		SemanticEnabled: s.engine.SemanticEnabled(),
	}
}

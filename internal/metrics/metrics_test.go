package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistriesAreIndependent(t *testing.T) {
	a := New()
	b := New()

	a.DocsIndexedTotal.Add(3)

	assert.Equal(t, 3.0, testutil.ToFloat64(a.DocsIndexedTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.DocsIndexedTotal))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.QueriesTotal.WithLabelValues(SemanticOK).Inc()
	m.CorpusSize.Set(7)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `retrieval_queries_total{semantic="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "retrieval_corpus_size 7")
}

func TestSemanticLabel(t *testing.T) {
	assert.Equal(t, SemanticDisabled, SemanticLabel(false, true))
	assert.Equal(t, SemanticFallback, SemanticLabel(true, true))
	assert.Equal(t, SemanticOK, SemanticLabel(true, false))
}

package ask

import (
	"math"
	"unicode/utf8"

	"github.com/kailas-cloud/ragcore/internal/domain/answer"
	domchunk "github.com/kailas-cloud/ragcore/internal/domain/chunk"
)

// SnippetBytes caps the citation preview length.
const SnippetBytes = 150

// FormatCitations maps ranked chunks to citations, preserving order.
func FormatCitations(scored []domchunk.Scored) []answer.Citation {
	out := make([]answer.Citation, len(scored))
	for i := range scored {
		c := &scored[i].Chunk
		out[i] = answer.Citation{
			DocumentID:   c.DocumentID(),
			DocumentName: c.DocumentName(),
			ChunkIndex:   c.Index(),
			Similarity:   round(scored[i].Similarity, 3),
			Snippet:      snippet(c.Content()),
		}
	}
	return out
}

// Confidence is the mean similarity as a percentage with one decimal.
func Confidence(scored []domchunk.Scored) float64 {
	if len(scored) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scored {
		sum += s.Similarity
	}
	return round(sum/float64(len(scored))*100, 1)
}

func snippet(s string) string {
	if len(s) <= SnippetBytes {
		return s
	}
	cut := SnippetBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

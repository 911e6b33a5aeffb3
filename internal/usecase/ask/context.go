package ask

import (
	"strconv"
	"strings"

	domchunk "github.com/kailas-cloud/ragcore/internal/domain/chunk"
)

const contextSeparator = "\n\n---\n\n"

// BuildContext renders ranked chunks in order as labelled blocks.
func BuildContext(scored []domchunk.Scored) string {
	if len(scored) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := range scored {
		c := &scored[i].Chunk
		if i > 0 {
			sb.WriteString(contextSeparator)
		}
		sb.WriteString("Document: ")
		sb.WriteString(c.DocumentName())
		sb.WriteString(" (Chunk ")
		sb.WriteString(strconv.Itoa(c.Index()))
		sb.WriteString(")\n")
		sb.WriteString(c.Content())
	}
	return sb.String()
}

// FitContext returns the longest rank-order prefix of scored whose rendered
// context fits in maxTokens. The top chunk is always kept.
func FitContext(scored []domchunk.Scored, counter TokenCounter, maxTokens int) []domchunk.Scored {
	if counter == nil || maxTokens <= 0 {
		return scored
	}
	n := len(scored)
	for n > 1 && counter.Count(BuildContext(scored[:n])) > maxTokens {
		n--
	}
	return scored[:n]
}

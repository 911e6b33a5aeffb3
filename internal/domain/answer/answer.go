package answer

// Outcome classifies how an ask request terminated.
type Outcome string

const (
	// Answered means retrieval and generation both succeeded.
	Answered Outcome = "answered"
	// InsufficientContext means no chunk cleared the relevance threshold.
	InsufficientContext Outcome = "insufficient_context"
	// GenerationFailed means retrieval succeeded but the LLM call failed;
	// Text holds the fallback apology and Citations is empty.
	GenerationFailed Outcome = "generation_failed"
)

// Citation is a minimal pointer back to a source chunk.
type Citation struct {
	DocumentID   string
	DocumentName string
	ChunkIndex   int
	Similarity   float64
	Snippet      string
}

// Answer is the result of an ask request.
type Answer struct {
	Text       string
	Citations  []Citation
	Confidence float64
	Outcome    Outcome
}

// Insufficient builds the insufficient-context result.
func Insufficient(message string) Answer {
	return Answer{Text: message, Citations: []Citation{}, Outcome: InsufficientContext}
}

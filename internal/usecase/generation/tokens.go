package generation

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TiktokenCounter counts tokens with the BPE encoding of a model.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter resolves the encoding for model, falling back to cl100k_base.
func NewTiktokenCounter(model string) (*TiktokenCounter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("load encoding: %w", err)
		}
	}
	return &TiktokenCounter{enc: enc}, nil
}

// Count returns the number of tokens in text.
func (c *TiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

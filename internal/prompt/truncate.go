package prompt

import (
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

const encodingName = "cl100k_base"

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

func encoding() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		if e, err := tiktoken.GetEncoding(encodingName); err == nil {
			enc = e
		}
	})
	return enc
}

// CountTokens estimates the token count of text using tiktoken, falling back
// to a character estimate when the encoding cannot be loaded
func CountTokens(text string) int {
	if e := encoding(); e != nil {
		return len(e.Encode(text, nil, nil))
	}
	return len([]rune(text)) / 4
}

// TruncateTokens bounds text to at most maxTokens tokens.
// maxTokens <= 0 returns text unchanged.
func TruncateTokens(text string, maxTokens int) string {
	if maxTokens <= 0 || text == "" {
		return text
	}

	if e := encoding(); e != nil {
		tokens := e.Encode(text, nil, nil)
		if len(tokens) <= maxTokens {
			return text
		}
		return e.Decode(tokens[:maxTokens])
	}

	// Fallback: roughly four characters per token
	runes := []rune(text)
	if limit := maxTokens * 4; len(runes) > limit {
		return string(runes[:limit])
	}
	return text
}

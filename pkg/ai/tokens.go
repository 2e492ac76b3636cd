package ai

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/deepgraph/backend/pkg/logger"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the tiktoken encoding used for context sizing.
const DefaultEncoding = "o200k_base"

var (
	encodingsMu sync.Mutex
	encodings   = map[string]*tiktoken.Tiktoken{}
)

func encoding(name string) (*tiktoken.Tiktoken, error) {
	encodingsMu.Lock()
	defer encodingsMu.Unlock()

	if enc, ok := encodings[name]; ok {
		return enc, nil
	}
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %q: %w", name, err)
	}
	encodings[name] = enc
	return enc, nil
}

// TokenCounter returns a function counting tokens of text under the named
// encoding. The returned function is safe for concurrent use.
func TokenCounter(name string) (func(string) int, error) {
	if name == "" {
		name = DefaultEncoding
	}
	enc, err := encoding(name)
	if err != nil {
		return nil, err
	}
	var mu sync.Mutex
	return func(text string) int {
		mu.Lock()
		defer mu.Unlock()
		return len(enc.Encode(text, nil, nil))
	}, nil
}

// EstimateTokens approximates a token count from the rune count.
func EstimateTokens(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}

// LazyTokenCounter is TokenCounter with the encoding loaded on first use.
// tiktoken may download the encoding, so construction never touches the
// network. If loading fails the counter falls back to EstimateTokens.
func LazyTokenCounter(name string) func(string) int {
	var (
		once  sync.Once
		count func(string) int
	)
	return func(text string) int {
		once.Do(func() {
			var err error
			count, err = TokenCounter(name)
			if err != nil {
				logger.Warn("[AI] Token encoding unavailable, estimating", "encoding", name, "err", err)
				count = EstimateTokens
			}
		})
		return count(text)
	}
}

package graph

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/deepgraph/backend/internal/util"
	"github.com/deepgraph/backend/pkg/ai"
	"github.com/deepgraph/backend/pkg/common"
	"github.com/deepgraph/backend/pkg/logger"
)

// boundaryExcerpt is how many runes of each side are shown to the oracle.
const boundaryExcerpt = 600

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// SplitParagraphs splits text on blank lines, trimming each paragraph and
// dropping empty ones.
func SplitParagraphs(text string) []string {
	var out []string
	for _, p := range paragraphBreak.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// BoundaryFunc decides whether head starts a new topic after tail.
type BoundaryFunc func(ctx context.Context, tail, head string) (bool, error)

// Segmenter splits a document into chunks of whole paragraphs.
//
// A boundary is placed before a paragraph when it alone exceeds MaxSize, when
// the current chunk already exceeds MinSize and the paragraph would push it
// past MaxSize, or when the paragraph opens with a discourse marker. Otherwise,
// once the current chunk has reached MinSize, Boundary is asked while Budget
// lasts. Each ask consumes one unit whatever the answer; failures count as no
// boundary.
type Segmenter struct {
	MinSize  int
	MaxSize  int
	Budget   int
	Measure  func(string) int
	Policy   *Policy
	Boundary BoundaryFunc
}

// Segment returns chunks forming an ordered partition of the paragraphs of
// text. An empty document yields no chunks.
func (s Segmenter) Segment(ctx context.Context, text string) []common.Chunk {
	paragraphs := SplitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	measure := s.Measure
	if measure == nil {
		measure = utf8.RuneCountInString
	}
	budget := s.Budget

	var (
		chunks  []common.Chunk
		current []string
		curSize int
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, common.Chunk{
			Index:      len(chunks),
			Paragraphs: current,
			Text:       strings.Join(current, "\n\n"),
		})
		current = nil
		curSize = 0
	}

	for _, p := range paragraphs {
		size := measure(p)
		if len(current) == 0 {
			current = append(current, p)
			curSize = size
			continue
		}

		split := false
		switch {
		case size > s.MaxSize || curSize >= s.MaxSize:
			split = true
		case curSize > s.MinSize && curSize+size > s.MaxSize:
			split = true
		case s.Policy != nil && s.Policy.startsWithMarker(p):
			split = true
		case budget > 0 && s.Boundary != nil && ctx.Err() == nil:
			budget--
			tail := util.TailRunes(current[len(current)-1], boundaryExcerpt)
			head := util.TruncateRunes(p, boundaryExcerpt)
			yes, err := s.Boundary(ctx, tail, head)
			if err != nil {
				logger.Warn("[Segment] Boundary check failed, keeping paragraphs together", "chunk", len(chunks), "err", err)
			}
			split = err == nil && yes
		}

		if split {
			flush()
		}
		current = append(current, p)
		curSize += size
	}
	flush()

	return chunks
}

// oracleBoundary asks the oracle whether head starts a new topic.
func oracleBoundary(aiClient ai.GraphAIClient, timeout time.Duration) BoundaryFunc {
	return func(ctx context.Context, tail, head string) (bool, error) {
		prompt := fmt.Sprintf(ai.BoundaryPrompt, tail, head)
		answer, err := util.WithTimeout(ctx, timeout, func(ctx context.Context) (string, error) {
			return aiClient.GenerateCompletion(ctx, prompt, ai.WithTemperature(0))
		})
		if err != nil {
			return false, err
		}
		yes, ok := ai.ParseYesNo(answer)
		if !ok {
			return false, ai.SchemaError(fmt.Errorf("unexpected boundary answer %q", util.TruncateRunes(answer, 40)))
		}
		return yes, nil
	}
}

// Segment splits text into chunks using the client's options. aiClient may
// be nil, in which case no oracle boundary checks are made.
func (g *GraphClient) Segment(ctx context.Context, aiClient ai.GraphAIClient, text string) []common.Chunk {
	s := Segmenter{
		MinSize: g.options.MinChunkSize,
		MaxSize: g.options.MaxChunkSize,
		Budget:  g.options.BoundaryBudget,
		Measure: g.measure,
		Policy:  g.policy,
	}
	if aiClient != nil {
		s.Boundary = oracleBoundary(aiClient, g.options.OracleTimeout)
	}
	return s.Segment(ctx, text)
}

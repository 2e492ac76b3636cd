package graph

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/deepgraph/backend/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatten(chunks []common.Chunk) []string {
	var out []string
	for _, c := range chunks {
		out = append(out, c.Paragraphs...)
	}
	return out
}

func TestSplitParagraphs(t *testing.T) {
	text := "  first\nstill first \n\n\n second \n \t\nthird\n\n"
	assert.Equal(t, []string{"first\nstill first", "second", "third"}, SplitParagraphs(text))
	assert.Empty(t, SplitParagraphs(" \n\n \n"))
}

func TestSegment_EmptyDocument(t *testing.T) {
	s := Segmenter{MinSize: 10, MaxSize: 100}
	assert.Empty(t, s.Segment(context.Background(), ""))
	assert.Empty(t, s.Segment(context.Background(), "\n\n  \n"))
}

func TestSegment_PartitionProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 42))
	words := []string{"reform", "meeting", "the", "council", "次日", "march", "party", "Meanwhile"}

	for doc := 0; doc < 50; doc++ {
		var paragraphs []string
		n := rng.IntN(30)
		for p := 0; p < n; p++ {
			var sentence []string
			for w := 0; w < 1+rng.IntN(40); w++ {
				sentence = append(sentence, words[rng.IntN(len(words))])
			}
			paragraphs = append(paragraphs, strings.Join(sentence, " "))
		}
		text := strings.Join(paragraphs, "\n\n")

		calls := 0
		s := Segmenter{
			MinSize: 40,
			MaxSize: 120,
			Budget:  3,
			Policy:  DefaultPolicy(),
			Boundary: func(ctx context.Context, tail, head string) (bool, error) {
				calls++
				return calls%2 == 0, nil
			},
		}
		chunks := s.Segment(context.Background(), text)

		require.Equal(t, SplitParagraphs(text), flatten(chunks), "doc %d", doc)
		assert.LessOrEqual(t, calls, 3)
		for i, c := range chunks {
			assert.Equal(t, i, c.Index)
			assert.Equal(t, strings.Join(c.Paragraphs, "\n\n"), c.Text)
			assert.NotEmpty(t, c.Paragraphs)
		}
	}
}

func TestSegment_OversizedParagraphIsOwnChunk(t *testing.T) {
	big := strings.Repeat("x", 50)
	s := Segmenter{MinSize: 10, MaxSize: 30}
	chunks := s.Segment(context.Background(), "short one\n\n"+big+"\n\nshort two")

	require.Len(t, chunks, 3)
	assert.Equal(t, []string{big}, chunks[1].Paragraphs)
}

func TestSegment_SizeBoundary(t *testing.T) {
	p := strings.Repeat("a", 20)
	s := Segmenter{MinSize: 30, MaxSize: 50}
	chunks := s.Segment(context.Background(), strings.Join([]string{p, p, p, p}, "\n\n"))

	// 20+20 = 40 > MinSize, and another 20 would exceed MaxSize.
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0].Paragraphs, 2)
	assert.Len(t, chunks[1].Paragraphs, 2)
}

func TestSegment_DiscourseMarker(t *testing.T) {
	s := Segmenter{MinSize: 1000, MaxSize: 5000, Policy: DefaultPolicy()}
	text := "The delegates gathered.\n\nMeanwhile, the army moved.\n\n次日，会议继续。"
	chunks := s.Segment(context.Background(), text)

	require.Len(t, chunks, 3)
	assert.Equal(t, "Meanwhile, the army moved.", chunks[1].Text)
}

func TestSegment_BudgetConsumedPerCall(t *testing.T) {
	calls := 0
	s := Segmenter{
		MinSize: 0,
		MaxSize: 1000,
		Budget:  2,
		Boundary: func(ctx context.Context, tail, head string) (bool, error) {
			calls++
			return false, nil
		},
	}
	var paragraphs []string
	for i := 0; i < 5; i++ {
		paragraphs = append(paragraphs, fmt.Sprintf("paragraph %d", i))
	}
	chunks := s.Segment(context.Background(), strings.Join(paragraphs, "\n\n"))

	assert.Equal(t, 2, calls)
	assert.Len(t, chunks, 1)
}

func TestSegment_OracleAskedBelowMinSize(t *testing.T) {
	calls := 0
	s := Segmenter{
		MinSize: 1000,
		MaxSize: 5000,
		Budget:  5,
		Boundary: func(ctx context.Context, tail, head string) (bool, error) {
			calls++
			return false, nil
		},
	}
	var paragraphs []string
	for i := 0; i < 6; i++ {
		paragraphs = append(paragraphs, fmt.Sprintf("short paragraph %d", i))
	}
	chunks := s.Segment(context.Background(), strings.Join(paragraphs, "\n\n"))

	assert.Equal(t, 5, calls)
	assert.Len(t, chunks, 1)
}

func TestSegment_OracleAnswersSplit(t *testing.T) {
	s := Segmenter{
		MinSize: 0,
		MaxSize: 1000,
		Budget:  10,
		Boundary: func(ctx context.Context, tail, head string) (bool, error) {
			return strings.HasPrefix(head, "new"), nil
		},
	}
	chunks := s.Segment(context.Background(), "old a\n\nold b\n\nnew c\n\nold d")

	require.Len(t, chunks, 2)
	assert.Equal(t, []string{"new c", "old d"}, chunks[1].Paragraphs)
}

func TestSegment_OracleFailureIsNoBoundary(t *testing.T) {
	calls := 0
	s := Segmenter{
		MinSize: 0,
		MaxSize: 1000,
		Budget:  10,
		Boundary: func(ctx context.Context, tail, head string) (bool, error) {
			calls++
			return true, errors.New("oracle down")
		},
	}
	chunks := s.Segment(context.Background(), "a\n\nb\n\nc")

	assert.Equal(t, 2, calls)
	assert.Len(t, chunks, 1)
}

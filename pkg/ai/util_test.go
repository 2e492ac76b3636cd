package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type relationReply struct {
	Source   string `json:"source_id"`
	Target   string `json:"target_id"`
	Relation string `json:"relation"`
}

func TestUnmarshalFlexible_ObjectVariants(t *testing.T) {
	want := relationReply{Source: "PER_X", Target: "EVT_Y", Relation: "organized"}

	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "valid json object",
			input: `{"source_id":"PER_X","target_id":"EVT_Y","relation":"organized"}`,
		},
		{
			name:  "markdown fenced",
			input: "```json\n{\"source_id\":\"PER_X\",\"target_id\":\"EVT_Y\",\"relation\":\"organized\"}\n```",
		},
		{
			name:  "unquoted keys and single quotes",
			input: `{source_id: 'PER_X', target_id: 'EVT_Y', relation: 'organized'}`,
		},
		{
			name:  "trailing comma",
			input: `{"source_id":"PER_X","target_id":"EVT_Y","relation":"organized",}`,
		},
		{
			name:  "stringified object",
			input: `"{\"source_id\":\"PER_X\",\"target_id\":\"EVT_Y\",\"relation\":\"organized\"}"`,
		},
		{
			name:  "duplicate leading brace",
			input: "{\n{\n  \"source_id\": \"PER_X\", \"target_id\": \"EVT_Y\", \"relation\": \"organized\"\n}\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got relationReply
			require.NoError(t, UnmarshalFlexible(tc.input, &got))
			assert.Equal(t, want, got)
		})
	}
}

func TestUnmarshalFlexible_Arrays(t *testing.T) {
	var got []relationReply
	require.NoError(t, UnmarshalFlexible(`[{source_id:'A'},{source_id:'B',}]`, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Source)
	assert.Equal(t, "B", got[1].Source)
}

func TestUnmarshalFlexible_Unrecoverable(t *testing.T) {
	var got relationReply
	assert.Error(t, UnmarshalFlexible("hello", &got))
}

func TestParseYesNo(t *testing.T) {
	tests := []struct {
		answer  string
		yes, ok bool
	}{
		{"YES", true, true},
		{" yes.\n", true, true},
		{"No", false, true},
		{"**NO**", false, true},
		{"是", true, true},
		{"maybe", false, false},
		{"", false, false},
	}
	for _, tc := range tests {
		yes, ok := ParseYesNo(tc.answer)
		assert.Equal(t, tc.yes, yes, tc.answer)
		assert.Equal(t, tc.ok, ok, tc.answer)
	}
}

func TestGenerateSchema_DisallowsAdditionalProperties(t *testing.T) {
	schema := GenerateSchema(&relationReply{})
	require.NotNil(t, schema)
}

func TestMetricsRecorder(t *testing.T) {
	var r MetricsRecorder
	r.Record(ModelMetrics{InputTokens: 10, OutputTokens: 5, TotalTokens: 15, DurationMs: 1000})
	r.Record(ModelMetrics{InputTokens: 1, OutputTokens: 1, TotalTokens: 2, DurationMs: 1000})

	m := r.GetMetrics()
	assert.Equal(t, 2, m.Requests)
	assert.Equal(t, 17, m.TotalTokens)
	assert.InDelta(t, 8.5, m.TokenPerSecond, 0.01)

	r.ResetMetrics()
	assert.Equal(t, ModelMetrics{}, r.GetMetrics())
}

func TestOracleError(t *testing.T) {
	err := SchemaError(assert.AnError)
	assert.ErrorIs(t, err, ErrSchema)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, ErrCall)
}

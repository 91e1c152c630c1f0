package llmjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
}

type report struct {
	Score      float64  `json:"score"`
	WeakTopics []string `json:"weak_topics"`
}

func TestParse_FencedArray(t *testing.T) {
	got, ok := Parse[[]question]("```json\n[{\"Question\":\"Q1\"}]\n```")

	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "Q1", got[0].Question)
}

func TestParse_FenceInsideProse(t *testing.T) {
	raw := "Sure! Here is your report:\n```json\n{\"score\": 72.5, \"weak_topics\": [\"Force\"]}\n```\nGood luck."

	got, ok := Parse[report](raw)

	require.True(t, ok)
	assert.Equal(t, 72.5, got.Score)
	assert.Equal(t, []string{"Force"}, got.WeakTopics)
}

func TestParse_FirstFenceWins(t *testing.T) {
	raw := "```json\n{\"score\":1}\n```\n```json\n{\"score\":2}\n```"

	got, ok := Parse[report](raw)

	require.True(t, ok)
	assert.Equal(t, 1.0, got.Score)
}

func TestParse_BareJSON(t *testing.T) {
	got, ok := Parse[[]question](`  [{"question":"Q","options":["a","b"],"correct_answer":1}]  `)

	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got[0].Options)
	assert.Equal(t, 1, got[0].CorrectAnswer)
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json at all", "not json at all"},
		{"empty", ""},
		{"whitespace", "  \n "},
		{"null literal", "null"},
		{"schema mismatch", `{"question":"Q"}`},
		{"truncated", "```json\n[{\"question\":\"Q\"\n```"},
		{"prose after bare json", `[{"question":"Q"}] hope this helps`},
		{"upper case tag is not a fence", "```JSON\n[{\"question\":\"Q\"}]\n```"},
		{"wrong field type", `[{"question":"Q","correct_answer":"two"}]`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				got, ok := Parse[[]question](tc.raw)
				assert.False(t, ok)
				assert.Nil(t, got)
			})
		})
	}
}

func TestParseOr(t *testing.T) {
	fallback := report{Score: 40, WeakTopics: []string{"unknown"}}

	assert.Equal(t, fallback, ParseOr("garbage", fallback))
	assert.Equal(t, report{Score: 90}, ParseOr(`{"score":90}`, fallback))
}

func TestExtract(t *testing.T) {
	assert.Equal(t, `{"a":1}`, Extract("```json   {\"a\":1}   ```"))
	assert.Equal(t, "plain", Extract("plain"))
	assert.Equal(t, "line1\nline2", Extract("```json\nline1\nline2\n```"))
}

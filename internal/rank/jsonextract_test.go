package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deep-research/internal/faults"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"bare object", `{"analysis": "fine"}`},
		{"prose wrapped", `Sure! Here is the JSON you asked for:
{"analysis": "fine"}
Let me know if you need anything else.`},
		{"code fenced", "```json\n{\"analysis\": \"fine\"}\n```"},
		{"braces in strings", `{"analysis": "uses {curly} braces and a \" quote"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				Analysis string `json:"analysis"`
			}
			require.NoError(t, ExtractJSON(tt.raw, &out))
			assert.NotEmpty(t, out.Analysis)
		})
	}
}

func TestExtractJSONNestedObjects(t *testing.T) {
	raw := `prefix {"rankings": [{"url": "https://a.example", "score": 0.9}], "analysis": "ok"} suffix`

	var out Ranking
	require.NoError(t, ExtractJSON(raw, &out))
	require.Len(t, out.Rankings, 1)
	assert.InDelta(t, 0.9, out.Rankings[0].Score, 1e-9)
	assert.Equal(t, "ok", out.Analysis)
}

func TestExtractJSONSkipsInvalidCandidates(t *testing.T) {
	// The first balanced object is not valid JSON; the scanner moves on.
	raw := `{broken} then {"analysis": "recovered"}`

	var out struct {
		Analysis string `json:"analysis"`
	}
	require.NoError(t, ExtractJSON(raw, &out))
	assert.Equal(t, "recovered", out.Analysis)
}

func TestExtractJSONNoObject(t *testing.T) {
	var out struct{}
	err := ExtractJSON("no json here at all", &out)
	require.Error(t, err)
	assert.Equal(t, faults.Parse, faults.KindOf(err))
}

func TestExtractJSONUnbalanced(t *testing.T) {
	var out struct{}
	err := ExtractJSON(`{"analysis": "never closed`, &out)
	require.Error(t, err)
	assert.Equal(t, faults.Parse, faults.KindOf(err))
}

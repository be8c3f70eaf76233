package meals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterBatch(t *testing.T) {
	tests := []struct {
		name           string
		candidates     []RawInput
		existing       map[string]struct{}
		wantAccepted   []string
		wantDuplicates int
		wantErrors     int
	}{
		{
			name: "duplicate mobile inside batch",
			candidates: []RawInput{
				{Name: "Alice", TeamName: "A", Mobile: "111"},
				{Name: "Alice", TeamName: "A", Mobile: "111"},
				{Name: "Bob", TeamName: "B", Mobile: "222"},
			},
			wantAccepted:   []string{"Alice", "Bob"},
			wantDuplicates: 1,
		},
		{
			name:       "blank name is an error",
			candidates: []RawInput{{Name: "", TeamName: "A", Mobile: "333"}},
			wantErrors: 1,
		},
		{
			name: "mobile already registered, compared case-insensitively",
			candidates: []RawInput{
				{Name: "Carol", TeamName: "C", Mobile: " ABC-1 "},
				{Name: "Dan", TeamName: "D", Mobile: "444"},
			},
			existing:       map[string]struct{}{"abc-1": {}},
			wantAccepted:   []string{"Dan"},
			wantDuplicates: 1,
		},
		{
			name: "whitespace-only fields are missing",
			candidates: []RawInput{
				{Name: "Eve", TeamName: "   ", Mobile: "555"},
				{Name: "Frank", TeamName: "F", Mobile: "\t"},
			},
			wantErrors: 2,
		},
		{
			name: "same name and team with different mobiles are both accepted",
			candidates: []RawInput{
				{Name: "Gus", TeamName: "G", Mobile: "666"},
				{Name: "gus", TeamName: "g", Mobile: "777"},
			},
			wantAccepted: []string{"Gus", "gus"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := FilterBatch(tt.candidates, tt.existing)

			names := make([]string, 0, len(res.Accepted))
			for _, d := range res.Accepted {
				names = append(names, d.Name)
			}
			if tt.wantAccepted == nil {
				tt.wantAccepted = []string{}
			}
			assert.Equal(t, tt.wantAccepted, names)
			assert.Equal(t, tt.wantDuplicates, res.DuplicateCount)
			assert.Len(t, res.Errors, tt.wantErrors)
		})
	}
}

func TestFilterBatch_ErrorMessages(t *testing.T) {
	res := FilterBatch([]RawInput{
		{Name: "Hana", Mobile: "1"},
		{TeamName: "X", Mobile: "2"},
	}, nil)

	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[0], "Hana")
	assert.Contains(t, res.Errors[0], "team")
	assert.Contains(t, res.Errors[1], "row 2")
	assert.Empty(t, res.Accepted)
}

func TestFilterBatch_TrimsAndKeepsEmail(t *testing.T) {
	res := FilterBatch([]RawInput{
		{Name: "  Ivy ", TeamName: " Team I ", Mobile: " 888 ", Email: " ivy@example.com "},
		{Name: "Jay", TeamName: "J", Mobile: "999", Email: "  "},
	}, nil)

	require.Len(t, res.Accepted, 2)
	ivy := res.Accepted[0]
	assert.Equal(t, "Ivy", ivy.Name)
	assert.Equal(t, "Team I", ivy.TeamName)
	assert.Equal(t, "888", ivy.Mobile)
	require.NotNil(t, ivy.Email)
	assert.Equal(t, "ivy@example.com", *ivy.Email)
	assert.Nil(t, res.Accepted[1].Email)
}

func TestFilterBatch_Deterministic(t *testing.T) {
	batch := []RawInput{
		{Name: "A", TeamName: "T", Mobile: "1"},
		{Name: "B", TeamName: "T", Mobile: "1"},
		{Name: "", TeamName: "T", Mobile: "2"},
		{Name: "C", TeamName: "T", Mobile: "3"},
	}
	existing := map[string]struct{}{"3": {}}

	first := FilterBatch(batch, existing)
	second := FilterBatch(batch, existing)

	assert.Equal(t, first, second)
	assert.Len(t, existing, 1, "caller's set must not be modified")
}

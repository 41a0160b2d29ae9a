package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPubMedQueryConditionMatch(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"direct condition", "diabetes", "Diabetes Mellitus"},
		{"longest key wins", "type 2 diabetes management", "Diabetes Mellitus, Type 2"},
		{"condition inside sentence", "latest research on breast cancer", "Breast Neoplasms"},
		{"case insensitive", "COVID-19 vaccines", "COVID-19"},
		{"synonym", "high blood pressure in adults", "Hypertension"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildPubMedQuery(tt.query))
		})
	}
}

func TestBuildPubMedQueryTermMapping(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			"filler and stopwords stripped",
			"what is the treatment for migraines",
			"Therapeutics AND migraines",
		},
		{
			"dictionary terms joined",
			"vaccine trials in children",
			"Vaccines AND Clinical Trials as Topic AND Child",
		},
		{
			"duplicate terms collapsed",
			"drug and drugs",
			"Pharmaceutical Preparations",
		},
		{
			"unmapped words pass through",
			"microbiome diversity",
			"microbiome AND diversity",
		},
		{
			"punctuation trimmed",
			"nutrition, exercise!",
			"Nutritional Sciences AND Exercise",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildPubMedQuery(tt.query))
		})
	}
}

func TestBuildPubMedQueryFallsBackToOriginal(t *testing.T) {
	// Everything strippable: filler plus stopwords leaves nothing.
	assert.Equal(t, "what is the", BuildPubMedQuery("  what is the  "))
	assert.Equal(t, "", BuildPubMedQuery("   "))
}

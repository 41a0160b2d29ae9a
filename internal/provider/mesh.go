// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"sort"
	"strings"
)

// conditionTerms maps known condition keywords to their Medical Subject
// Heading. Matching is by substring against the lowercased query; longer
// keys win so "type 2 diabetes" beats "diabetes".
var conditionTerms = map[string]string{
	"breast cancer":        "Breast Neoplasms",
	"lung cancer":          "Lung Neoplasms",
	"prostate cancer":      "Prostatic Neoplasms",
	"colorectal cancer":    "Colorectal Neoplasms",
	"skin cancer":          "Skin Neoplasms",
	"melanoma":             "Melanoma",
	"leukemia":             "Leukemia",
	"lymphoma":             "Lymphoma",
	"type 1 diabetes":      "Diabetes Mellitus, Type 1",
	"type 2 diabetes":      "Diabetes Mellitus, Type 2",
	"gestational diabetes": "Diabetes, Gestational",
	"diabetes":             "Diabetes Mellitus",
	"covid-19":             "COVID-19",
	"covid":                "COVID-19",
	"influenza":            "Influenza, Human",
	"flu":                  "Influenza, Human",
	"tuberculosis":         "Tuberculosis",
	"malaria":              "Malaria",
	"hiv":                  "HIV Infections",
	"hepatitis b":          "Hepatitis B",
	"hepatitis c":          "Hepatitis C",
	"alzheimer":            "Alzheimer Disease",
	"parkinson":            "Parkinson Disease",
	"hypertension":         "Hypertension",
	"high blood pressure":  "Hypertension",
	"asthma":               "Asthma",
	"stroke":               "Stroke",
	"heart attack":         "Myocardial Infarction",
	"heart failure":        "Heart Failure",
	"obesity":              "Obesity",
	"depression":           "Depressive Disorder",
	"anxiety":              "Anxiety Disorders",
	"schizophrenia":        "Schizophrenia",
	"arthritis":            "Arthritis",
	"osteoporosis":         "Osteoporosis",
}

// fillerPhrases are leading/embedded query scaffolding stripped before
// term mapping.
var fillerPhrases = []string{
	"what is the",
	"what are the",
	"what is",
	"what are",
	"how does",
	"how do",
	"tell me about",
	"research on",
	"research about",
	"studies on",
	"studies about",
	"latest research",
	"recent studies",
	"information on",
	"information about",
	"overview of",
	"effects of",
	"impact of",
}

// stopwords are dropped from the remaining content words.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "about": true,
	"as": true, "at": true, "be": true, "by": true, "for": true,
	"from": true, "in": true, "is": true, "it": true, "of": true,
	"on": true, "or": true, "that": true, "the": true, "to": true,
	"with": true,
}

// termDictionary maps common research words to their controlled term.
// Unmapped content words pass through unchanged.
var termDictionary = map[string]string{
	"treatment":    "Therapeutics",
	"treatments":   "Therapeutics",
	"therapy":      "Therapeutics",
	"therapies":    "Therapeutics",
	"drug":         "Pharmaceutical Preparations",
	"drugs":        "Pharmaceutical Preparations",
	"medication":   "Pharmaceutical Preparations",
	"vaccine":      "Vaccines",
	"vaccines":     "Vaccines",
	"vaccination":  "Vaccination",
	"diagnosis":    "Diagnosis",
	"symptom":      "Signs and Symptoms",
	"symptoms":     "Signs and Symptoms",
	"prevention":   "Primary Prevention",
	"screening":    "Mass Screening",
	"genetics":     "Genetics",
	"genetic":      "Genetics",
	"gene":         "Genes",
	"genes":        "Genes",
	"cancer":       "Neoplasms",
	"tumor":        "Neoplasms",
	"tumors":       "Neoplasms",
	"children":     "Child",
	"child":        "Child",
	"pediatric":    "Pediatrics",
	"elderly":      "Aged",
	"pregnancy":    "Pregnancy",
	"pregnant":     "Pregnancy",
	"nutrition":    "Nutritional Sciences",
	"diet":         "Diet",
	"exercise":     "Exercise",
	"surgery":      "Surgical Procedures, Operative",
	"mortality":    "Mortality",
	"epidemiology": "Epidemiology",
	"outcomes":     "Treatment Outcome",
	"trial":        "Clinical Trials as Topic",
	"trials":       "Clinical Trials as Topic",
}

// conditionKeys holds the condition keywords sorted longest-first so the
// most specific match wins.
var conditionKeys = func() []string {
	keys := make([]string, 0, len(conditionTerms))
	for k := range conditionTerms {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// BuildPubMedQuery lexically reduces a free-text query to a controlled
// vocabulary expression (R4.2): a known condition keyword maps straight to
// its subject heading; otherwise filler phrases and stopwords are stripped
// and the remaining content words are mapped through the term dictionary
// and AND-joined. When nothing survives, the trimmed original query is
// returned unchanged.
func BuildPubMedQuery(query string) string {
	trimmed := strings.TrimSpace(query)
	q := strings.ToLower(trimmed)

	for _, key := range conditionKeys {
		if strings.Contains(q, key) {
			return conditionTerms[key]
		}
	}

	for _, phrase := range fillerPhrases {
		q = strings.ReplaceAll(q, phrase, " ")
	}

	var terms []string
	seen := make(map[string]bool)
	for _, word := range strings.Fields(q) {
		word = strings.Trim(word, ".,;:!?\"'()")
		if word == "" || stopwords[word] {
			continue
		}
		term := word
		if mapped, ok := termDictionary[word]; ok {
			term = mapped
		}
		if !seen[term] {
			seen[term] = true
			terms = append(terms, term)
		}
	}

	if len(terms) == 0 {
		return trimmed
	}
	return strings.Join(terms, " AND ")
}

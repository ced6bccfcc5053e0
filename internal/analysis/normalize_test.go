package analysis

import (
	"errors"
	"reflect"
	"testing"
)

const fourConditionPayload = `{
  "conditions": [
    {"name": "Migraine", "description": "Recurring headache", "confidence": 72, "severity": "moderate",
     "matchedSymptoms": ["Headache", "Nausea"], "additionalSymptoms": ["Aura"], "recommendedActions": ["Rest in a dark room"]},
    {"name": "Tension headache", "description": "Band-like pain", "confidence": 55, "severity": "low",
     "matchedSymptoms": ["Headache"], "additionalSymptoms": [], "recommendedActions": ["Hydrate"]},
    {"name": "Sinusitis", "description": "Sinus inflammation", "confidence": 31, "severity": "low",
     "matchedSymptoms": ["Headache"], "additionalSymptoms": ["Congestion"], "recommendedActions": ["Steam inhalation"]},
    {"name": "Meningitis", "description": "Inflammation of the meninges", "confidence": 8, "severity": "critical",
     "matchedSymptoms": ["Headache", "Fever"], "additionalSymptoms": ["Stiff neck"], "recommendedActions": ["Seek emergency care"]}
  ],
  "urgencyScore": 6,
  "urgencyLevel": "high",
  "generalRecommendations": ["Track your symptoms"],
  "disclaimer": "This is not a substitute for professional medical advice.",
  "whenToSeekHelp": ["Stiff neck", "Confusion"]
}`

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fence without newlines", "```json{\"a\":1}```", `{"a":1}`},
		{"surrounding whitespace", "  \n```json\n{\"a\":1}\n```\n ", `{"a":1}`},
		{"not fenced", "I cannot answer that.", "I cannot answer that."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFences(tt.in); got != tt.want {
				t.Errorf("StripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeAnalysis_FencedAndBareAreIdentical(t *testing.T) {
	bare, err := NormalizeAnalysis(fourConditionPayload)
	if err != nil {
		t.Fatalf("bare payload: %v", err)
	}
	fenced, err := NormalizeAnalysis("```json\n" + fourConditionPayload + "\n```")
	if err != nil {
		t.Fatalf("fenced payload: %v", err)
	}
	if !reflect.DeepEqual(bare, fenced) {
		t.Errorf("fenced result differs from bare result:\nbare   %+v\nfenced %+v", bare, fenced)
	}
}

func TestNormalizeAnalysis_PreservesOrderAndNumbers(t *testing.T) {
	res, err := NormalizeAnalysis(fourConditionPayload)
	if err != nil {
		t.Fatalf("NormalizeAnalysis: %v", err)
	}
	if len(res.Conditions) != 4 {
		t.Fatalf("len(Conditions) = %d, want 4", len(res.Conditions))
	}
	if res.UrgencyScore != 6 {
		t.Errorf("UrgencyScore = %d, want 6", res.UrgencyScore)
	}
	if res.UrgencyLevel != UrgencyHigh {
		t.Errorf("UrgencyLevel = %q, want %q", res.UrgencyLevel, UrgencyHigh)
	}

	wantNames := []string{"Migraine", "Tension headache", "Sinusitis", "Meningitis"}
	wantConfidence := []int{72, 55, 31, 8}
	for i, c := range res.Conditions {
		if c.Name != wantNames[i] {
			t.Errorf("Conditions[%d].Name = %q, want %q", i, c.Name, wantNames[i])
		}
		if c.Confidence != wantConfidence[i] {
			t.Errorf("Conditions[%d].Confidence = %d, want %d", i, c.Confidence, wantConfidence[i])
		}
	}
	if got := res.Conditions[0].MatchedSymptoms; !reflect.DeepEqual(got, []string{"Headache", "Nausea"}) {
		t.Errorf("MatchedSymptoms = %v", got)
	}
	if res.Conditions[3].Severity != SeverityCritical {
		t.Errorf("Severity = %q, want critical", res.Conditions[3].Severity)
	}
}

func TestNormalizeAnalysis_ParseError(t *testing.T) {
	for _, raw := range []string{"I cannot answer that.", "not json", "", "```json\n{\"conditions\": [\n```", `{"conditions": []} trailing`} {
		_, err := NormalizeAnalysis(raw)
		var perr *ResponseParseError
		if !errors.As(err, &perr) {
			t.Errorf("NormalizeAnalysis(%q) error = %v (%T), want *ResponseParseError", raw, err, err)
			continue
		}
		if perr.Raw != raw {
			t.Errorf("Raw = %q, want %q", perr.Raw, raw)
		}
	}
}

func TestNormalizeAnalysis_SchemaErrors(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"top level array", `[1,2]`, "$"},
		{"missing conditions", `{"urgencyScore": 3}`, "conditions"},
		{"conditions not array", `{"conditions": "flu"}`, "conditions"},
		{"empty conditions", `{"conditions": []}`, "conditions"},
		{"condition not object", `{"conditions": ["flu"]}`, "conditions[0]"},
		{"condition missing name", `{"conditions": [{"confidence": 10}]}`, "conditions[0].name"},
		{"confidence not number", `{"conditions": [{"name": "Flu", "confidence": "high"}]}`, "conditions[0].confidence"},
		{"confidence fractional", `{"conditions": [{"name": "Flu", "confidence": 40.5}]}`, "conditions[0].confidence"},
		{"confidence out of range", `{"conditions": [{"name": "Flu", "confidence": 140}]}`, "conditions[0].confidence"},
		{"matched not list", `{"conditions": [{"name": "Flu", "matchedSymptoms": "Fever"}]}`, "conditions[0].matchedSymptoms"},
		{"urgency out of range", `{"conditions": [{"name": "Flu"}], "urgencyScore": 11}`, "urgencyScore"},
		{"disclaimer wrong type", `{"conditions": [{"name": "Flu"}], "disclaimer": 1}`, "disclaimer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeAnalysis(tt.raw)
			var serr *ResponseSchemaError
			if !errors.As(err, &serr) {
				t.Fatalf("error = %v (%T), want *ResponseSchemaError", err, err)
			}
			if serr.Field != tt.field {
				t.Errorf("Field = %q, want %q", serr.Field, tt.field)
			}
		})
	}
}

func TestNormalizeAnalysis_ToleratesMissingOptionalFields(t *testing.T) {
	res, err := NormalizeAnalysis(`{"conditions": [{"name": "Common cold", "confidence": 60.0}]}`)
	if err != nil {
		t.Fatalf("NormalizeAnalysis: %v", err)
	}
	if res.Conditions[0].Confidence != 60 {
		t.Errorf("Confidence = %d, want 60", res.Conditions[0].Confidence)
	}
	if res.UrgencyScore != 0 || res.Disclaimer != "" {
		t.Errorf("unexpected defaults: %+v", res)
	}
	if res.WhenToSeekHelp == nil || res.Conditions[0].MatchedSymptoms == nil {
		t.Error("missing lists should normalize to empty, not nil")
	}
}

func TestNormalizeDiagnosis(t *testing.T) {
	raw := "```json\n{\"potentialDiagnoses\": [\"Influenza\", \"COVID-19\"], \"confidenceLevels\": [0.6, 0.3], \"additionalNotes\": \"Rest and fluids.\"}\n```"
	out, err := NormalizeDiagnosis(raw)
	if err != nil {
		t.Fatalf("NormalizeDiagnosis: %v", err)
	}
	if !reflect.DeepEqual(out.PotentialDiagnoses, []string{"Influenza", "COVID-19"}) {
		t.Errorf("PotentialDiagnoses = %v", out.PotentialDiagnoses)
	}
	if !reflect.DeepEqual(out.ConfidenceLevels, []float64{0.6, 0.3}) {
		t.Errorf("ConfidenceLevels = %v", out.ConfidenceLevels)
	}
	if out.AdditionalNotes != "Rest and fluids." {
		t.Errorf("AdditionalNotes = %q", out.AdditionalNotes)
	}
}

func TestNormalizeDiagnosis_OptionalFieldsAbsent(t *testing.T) {
	out, err := NormalizeDiagnosis(`{"potentialDiagnoses": ["Influenza"]}`)
	if err != nil {
		t.Fatalf("NormalizeDiagnosis: %v", err)
	}
	if out.ConfidenceLevels != nil {
		t.Errorf("ConfidenceLevels = %v, want nil", out.ConfidenceLevels)
	}
}

func TestNormalizeDiagnosis_SchemaErrors(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"missing diagnoses", `{"additionalNotes": "none"}`, "potentialDiagnoses"},
		{"empty diagnoses", `{"potentialDiagnoses": []}`, "potentialDiagnoses"},
		{"diagnosis not string", `{"potentialDiagnoses": [1]}`, "potentialDiagnoses[0]"},
		{"confidence above one", `{"potentialDiagnoses": ["Flu"], "confidenceLevels": [1.5]}`, "confidenceLevels[0]"},
		{"length mismatch", `{"potentialDiagnoses": ["Flu", "Cold"], "confidenceLevels": [0.5]}`, "confidenceLevels"},
		{"notes wrong type", `{"potentialDiagnoses": ["Flu"], "additionalNotes": ["x"]}`, "additionalNotes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeDiagnosis(tt.raw)
			var serr *ResponseSchemaError
			if !errors.As(err, &serr) {
				t.Fatalf("error = %v (%T), want *ResponseSchemaError", err, err)
			}
			if serr.Field != tt.field {
				t.Errorf("Field = %q, want %q", serr.Field, tt.field)
			}
		})
	}
}

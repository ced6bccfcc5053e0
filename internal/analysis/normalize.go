package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

var (
	leadingFence  = regexp.MustCompile("^```[A-Za-z0-9_+-]*")
	trailingFence = regexp.MustCompile("```$")
)

// StripCodeFences removes a leading ``` (optionally followed by a language tag such as
// json) and a trailing ``` from a model reply, then trims surrounding whitespace.
func StripCodeFences(raw string) string {
	s := leadingFence.ReplaceAllString(strings.TrimSpace(raw), "")
	s = trailingFence.ReplaceAllString(strings.TrimSpace(s), "")
	return strings.TrimSpace(s)
}

// NormalizeAnalysis turns a raw tag-based checker reply into a validated AnalysisResult.
func NormalizeAnalysis(raw string) (AnalysisResult, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return AnalysisResult{}, err
	}
	v := validator{raw: raw}

	var res AnalysisResult
	items := v.requiredList(obj, "conditions")
	res.Conditions = make([]Condition, 0, len(items))
	for i, item := range items {
		field := fmt.Sprintf("conditions[%d]", i)
		c, ok := item.(map[string]any)
		if !ok {
			v.fail(field, "must be an object")
			break
		}
		res.Conditions = append(res.Conditions, Condition{
			Name:               v.requiredString(c, field+".name"),
			Description:        v.optionalString(c, field+".description"),
			Confidence:         v.optionalInt(c, field+".confidence", 0, 100),
			Severity:           Severity(strings.ToLower(v.optionalString(c, field+".severity"))),
			MatchedSymptoms:    v.stringList(c, field+".matchedSymptoms"),
			AdditionalSymptoms: v.stringList(c, field+".additionalSymptoms"),
			RecommendedActions: v.stringList(c, field+".recommendedActions"),
		})
	}
	res.UrgencyScore = v.optionalInt(obj, "urgencyScore", 1, 10)
	res.UrgencyLevel = UrgencyLevel(strings.ToLower(v.optionalString(obj, "urgencyLevel")))
	res.GeneralRecommendations = v.stringList(obj, "generalRecommendations")
	res.Disclaimer = v.optionalString(obj, "disclaimer")
	res.WhenToSeekHelp = v.stringList(obj, "whenToSeekHelp")

	if v.err != nil {
		return AnalysisResult{}, v.err
	}
	return res, nil
}

// NormalizeDiagnosis turns a raw free-text assistant reply into a validated
// AnalyzeSymptomsOutput.
func NormalizeDiagnosis(raw string) (AnalyzeSymptomsOutput, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return AnalyzeSymptomsOutput{}, err
	}
	v := validator{raw: raw}

	var out AnalyzeSymptomsOutput
	items := v.requiredList(obj, "potentialDiagnoses")
	out.PotentialDiagnoses = make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			v.fail(fmt.Sprintf("potentialDiagnoses[%d]", i), "must be a string")
			break
		}
		out.PotentialDiagnoses = append(out.PotentialDiagnoses, s)
	}

	if levels, ok := obj["confidenceLevels"]; ok && levels != nil {
		list, isList := levels.([]any)
		if !isList {
			v.fail("confidenceLevels", "must be an array")
		} else {
			out.ConfidenceLevels = make([]float64, 0, len(list))
			for i, item := range list {
				f, ok := number(item)
				if !ok || f < 0 || f > 1 {
					v.fail(fmt.Sprintf("confidenceLevels[%d]", i), "must be a number between 0 and 1")
					break
				}
				out.ConfidenceLevels = append(out.ConfidenceLevels, f)
			}
			if v.err == nil && len(out.ConfidenceLevels) != len(out.PotentialDiagnoses) {
				v.fail("confidenceLevels", fmt.Sprintf("has %d entries for %d diagnoses", len(out.ConfidenceLevels), len(out.PotentialDiagnoses)))
			}
		}
	}
	out.AdditionalNotes = v.optionalString(obj, "additionalNotes")

	if v.err != nil {
		return AnalyzeSymptomsOutput{}, v.err
	}
	return out, nil
}

func decodeObject(raw string) (map[string]any, error) {
	cleaned := StripCodeFences(raw)

	var doc any
	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, &ResponseParseError{Raw: raw, Err: err}
	}
	if !json.Valid([]byte(cleaned)) {
		return nil, &ResponseParseError{Raw: raw, Err: errors.New("unexpected content after JSON value")}
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, &ResponseSchemaError{Raw: raw, Field: "$", Problem: "must be a JSON object"}
	}
	return obj, nil
}

// validator records the first schema problem and turns every later check into a no-op.
type validator struct {
	raw string
	err *ResponseSchemaError
}

func (v *validator) fail(field, problem string) {
	if v.err == nil {
		v.err = &ResponseSchemaError{Raw: v.raw, Field: field, Problem: problem}
	}
}

func (v *validator) requiredList(obj map[string]any, field string) []any {
	val, ok := obj[field]
	if !ok || val == nil {
		v.fail(field, "is required")
		return nil
	}
	list, ok := val.([]any)
	if !ok {
		v.fail(field, "must be an array")
		return nil
	}
	if len(list) == 0 {
		v.fail(field, "must contain at least one entry")
		return nil
	}
	return list
}

func (v *validator) requiredString(obj map[string]any, path string) string {
	key := lastSegment(path)
	val, ok := obj[key]
	if !ok || val == nil {
		v.fail(path, "is required")
		return ""
	}
	s, ok := val.(string)
	if !ok || strings.TrimSpace(s) == "" {
		v.fail(path, "must be a non-empty string")
		return ""
	}
	return s
}

func (v *validator) optionalString(obj map[string]any, path string) string {
	val, ok := obj[lastSegment(path)]
	if !ok || val == nil {
		return ""
	}
	s, ok := val.(string)
	if !ok {
		v.fail(path, "must be a string")
		return ""
	}
	return s
}

func (v *validator) optionalInt(obj map[string]any, path string, min, max int) int {
	val, ok := obj[lastSegment(path)]
	if !ok || val == nil {
		return 0
	}
	f, ok := number(val)
	if !ok || f != math.Trunc(f) {
		v.fail(path, "must be an integer")
		return 0
	}
	if f < float64(min) || f > float64(max) {
		v.fail(path, fmt.Sprintf("must be between %d and %d", min, max))
		return 0
	}
	return int(f)
}

func (v *validator) stringList(obj map[string]any, path string) []string {
	val, ok := obj[lastSegment(path)]
	if !ok || val == nil {
		return []string{}
	}
	list, ok := val.([]any)
	if !ok {
		v.fail(path, "must be an array of strings")
		return []string{}
	}
	out := make([]string, 0, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			v.fail(fmt.Sprintf("%s[%d]", path, i), "must be a string")
			return []string{}
		}
		out = append(out, s)
	}
	return out
}

func number(val any) (float64, bool) {
	n, ok := val.(json.Number)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Package validation checks assembled reports for required fields.
package validation

import (
	"encoding/json"
	"fmt"
	"sort"

	"aura-backend/internal/models"
)

// Required fields per item kind
var (
	RequiredInsightFields    = []string{"id", "domain", "title", "summary", "confidence", "impact"}
	RequiredHypothesisFields = []string{"id", "title", "problem", "domain", "summary"}
)

var sections = []string{"executive_summary", "insights", "hypotheses"}

// Validate scores a report document. Absent keys, nil, "" and empty lists
// all count as missing. Items that are not objects miss every field.
func Validate(doc map[string]any) models.Scorecard {
	sc := models.Scorecard{Checks: []models.Check{}, Passed: true}

	for _, key := range sections {
		sc.Checks = append(sc.Checks, models.Check{Name: "has_" + key, OK: present(doc, key)})
	}
	for i, item := range list(doc["insights"]) {
		sc.Checks = append(sc.Checks, itemCheck(fmt.Sprintf("insight_%d_required", i), item, RequiredInsightFields))
	}
	for i, item := range list(doc["hypotheses"]) {
		sc.Checks = append(sc.Checks, itemCheck(fmt.Sprintf("hypothesis_%d_required", i), item, RequiredHypothesisFields))
	}

	for _, c := range sc.Checks {
		if !c.OK {
			sc.Passed = false
			break
		}
	}
	return sc
}

// ValidateReport validates the JSON form of a report
func ValidateReport(r *models.Report) models.Scorecard {
	doc, err := Document(r)
	if err != nil {
		return Validate(map[string]any{})
	}
	return Validate(doc)
}

// Document converts a value to its generic JSON object form
func Document(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode report document: %w", err)
	}
	return doc, nil
}

func itemCheck(name string, item any, required []string) models.Check {
	obj, _ := item.(map[string]any)
	missing := []string{}
	for _, f := range required {
		if !present(obj, f) {
			missing = append(missing, f)
		}
	}
	sort.Strings(missing)
	return models.Check{Name: name, OK: len(missing) == 0, Missing: missing}
}

func present(obj map[string]any, key string) bool {
	v, ok := obj[key]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	}
	return true
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}

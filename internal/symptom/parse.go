package symptom

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type rawCondition struct {
	Condition  *string  `json:"condition"`
	Confidence *float64 `json:"confidence"`
	Rationale  *string  `json:"rationale"`
}

type rawNextStep struct {
	Type *string `json:"type"`
	Text *string `json:"text"`
}

type rawOutput struct {
	ProbableConditions   *[]rawCondition `json:"probable_conditions"`
	RecommendedNextSteps *[]rawNextStep  `json:"recommended_next_steps"`
}

// ParseModelOutput turns a provider answer into an Analysis. Anything that does not
// match the expected shape yields a *ParseError.
func ParseModelOutput(raw string) (Analysis, error) {
	body, err := extractJSON(raw)
	if err != nil {
		return Analysis{}, err
	}

	var out rawOutput
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&out); err != nil {
		return Analysis{}, &ParseError{Reason: "invalid json: " + err.Error()}
	}

	if out.ProbableConditions == nil {
		return Analysis{}, &ParseError{Field: "probable_conditions", Reason: "missing"}
	}
	if out.RecommendedNextSteps == nil {
		return Analysis{}, &ParseError{Field: "recommended_next_steps", Reason: "missing"}
	}

	conds := make([]Condition, 0, len(*out.ProbableConditions))
	for i, rc := range *out.ProbableConditions {
		field := fmt.Sprintf("probable_conditions[%d]", i)
		if rc.Condition == nil || strings.TrimSpace(*rc.Condition) == "" {
			return Analysis{}, &ParseError{Field: field + ".condition", Reason: "missing or empty"}
		}
		if rc.Confidence == nil {
			return Analysis{}, &ParseError{Field: field + ".confidence", Reason: "missing"}
		}
		if *rc.Confidence < 0 || *rc.Confidence > 1 {
			return Analysis{}, &ParseError{Field: field + ".confidence", Reason: fmt.Sprintf("%v out of range [0,1]", *rc.Confidence)}
		}
		if rc.Rationale == nil {
			return Analysis{}, &ParseError{Field: field + ".rationale", Reason: "missing"}
		}
		conds = append(conds, Condition{
			Condition:  strings.TrimSpace(*rc.Condition),
			Confidence: *rc.Confidence,
			Rationale:  strings.TrimSpace(*rc.Rationale),
		})
	}
	if len(conds) > MaxConditions {
		conds = conds[:MaxConditions]
	}

	steps := make([]NextStep, 0, len(*out.RecommendedNextSteps))
	for i, rs := range *out.RecommendedNextSteps {
		field := fmt.Sprintf("recommended_next_steps[%d]", i)
		if rs.Type == nil {
			return Analysis{}, &ParseError{Field: field + ".type", Reason: "missing"}
		}
		typ := NextStepType(strings.ToLower(strings.TrimSpace(*rs.Type)))
		if !typ.Valid() {
			return Analysis{}, &ParseError{Field: field + ".type", Reason: fmt.Sprintf("unknown type %q", *rs.Type)}
		}
		if rs.Text == nil || strings.TrimSpace(*rs.Text) == "" {
			return Analysis{}, &ParseError{Field: field + ".text", Reason: "missing or empty"}
		}
		steps = append(steps, NextStep{Type: typ, Text: strings.TrimSpace(*rs.Text)})
	}

	return Analysis{ProbableConditions: conds, RecommendedNextSteps: steps}, nil
}

// extractJSON drops code fences and any prose around the outermost object.
func extractJSON(raw string) ([]byte, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, &ParseError{Reason: "empty output"}
	}
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			// language tag such as ```json
			s = s[nl+1:]
		}
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return nil, &ParseError{Reason: "no json object found"}
	}
	return []byte(s[start : end+1]), nil
}

package symptom

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validate checks req and returns a normalised copy (trimmed text, lowercased enums,
// blank context dropped). The first violation is reported as a *ValidationError.
func Validate(req Request) (Request, error) {
	out := req

	out.Symptoms = strings.TrimSpace(req.Symptoms)
	if out.Symptoms == "" {
		return Request{}, &ValidationError{Field: "symptoms", Message: "Symptoms description cannot be empty"}
	}
	if utf8.RuneCountInString(out.Symptoms) > MaxSymptomsLength {
		return Request{}, &ValidationError{Field: "symptoms",
			Message: fmt.Sprintf("Symptoms description must be at most %d characters", MaxSymptomsLength)}
	}

	if req.Age != nil && (*req.Age < 0 || *req.Age > MaxAge) {
		return Request{}, &ValidationError{Field: "age", Message: fmt.Sprintf("Age must be between 0 and %d", MaxAge)}
	}
	if req.DurationDays != nil && (*req.DurationDays < 0 || *req.DurationDays > MaxDurationDays) {
		return Request{}, &ValidationError{Field: "duration_days",
			Message: fmt.Sprintf("Duration must be between 0 and %d days", MaxDurationDays)}
	}

	if req.Sex != nil {
		v := strings.ToLower(strings.TrimSpace(*req.Sex))
		switch v {
		case SexMale, SexFemale, SexOther:
			out.Sex = &v
		default:
			return Request{}, &ValidationError{Field: "sex", Message: "Sex must be one of: male, female, other"}
		}
	}

	if req.Severity != nil {
		v := strings.ToLower(strings.TrimSpace(*req.Severity))
		switch v {
		case SeverityMild, SeverityModerate, SeveritySevere:
			out.Severity = &v
		default:
			return Request{}, &ValidationError{Field: "severity", Message: "Severity must be one of: mild, moderate, severe"}
		}
	}

	if req.Context != nil {
		v := strings.TrimSpace(*req.Context)
		if utf8.RuneCountInString(v) > MaxContextLength {
			return Request{}, &ValidationError{Field: "context",
				Message: fmt.Sprintf("Context must be at most %d characters", MaxContextLength)}
		}
		if v == "" {
			out.Context = nil
		} else {
			out.Context = &v
		}
	}

	return out, nil
}

package symptom

import (
	"errors"
	"strings"
	"testing"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestValidate_TrimsAndNormalises(t *testing.T) {
	got, err := Validate(Request{
		Symptoms: "  headache and fever \n",
		Sex:      strPtr(" Female "),
		Severity: strPtr("MODERATE"),
		Context:  strPtr("   "),
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got.Symptoms != "headache and fever" {
		t.Fatalf("symptoms not trimmed: %q", got.Symptoms)
	}
	if *got.Sex != "female" || *got.Severity != "moderate" {
		t.Fatalf("enums not normalised: %q %q", *got.Sex, *got.Severity)
	}
	if got.Context != nil {
		t.Fatalf("blank context should be dropped")
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name  string
		req   Request
		field string
	}{
		{"empty symptoms", Request{Symptoms: ""}, "symptoms"},
		{"whitespace symptoms", Request{Symptoms: " \t\n "}, "symptoms"},
		{"long symptoms", Request{Symptoms: strings.Repeat("a", MaxSymptomsLength+1)}, "symptoms"},
		{"negative age", Request{Symptoms: "cough", Age: intPtr(-1)}, "age"},
		{"old age", Request{Symptoms: "cough", Age: intPtr(121)}, "age"},
		{"negative duration", Request{Symptoms: "cough", DurationDays: intPtr(-3)}, "duration_days"},
		{"long duration", Request{Symptoms: "cough", DurationDays: intPtr(MaxDurationDays + 1)}, "duration_days"},
		{"unknown sex", Request{Symptoms: "cough", Sex: strPtr("unknown")}, "sex"},
		{"unknown severity", Request{Symptoms: "cough", Severity: strPtr("extreme")}, "severity"},
		{"long context", Request{Symptoms: "cough", Context: strPtr(strings.Repeat("b", MaxContextLength+1))}, "context"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Validate(tc.req)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Fatalf("expected field %s, got %s", tc.field, ve.Field)
			}
		})
	}
}

func TestValidate_Boundaries(t *testing.T) {
	req := Request{
		Symptoms:     strings.Repeat("é", MaxSymptomsLength),
		Age:          intPtr(0),
		DurationDays: intPtr(MaxDurationDays),
	}
	if _, err := Validate(req); err != nil {
		t.Fatalf("boundary values should pass: %v", err)
	}
	req.Age = intPtr(MaxAge)
	req.DurationDays = intPtr(0)
	if _, err := Validate(req); err != nil {
		t.Fatalf("boundary values should pass: %v", err)
	}
}

package symptom

import (
	"reflect"
	"testing"
)

func TestDetectRedFlags(t *testing.T) {
	cases := []struct {
		name     string
		symptoms string
		severity *string
		want     []string
	}{
		{
			name:     "none",
			symptoms: "mild runny nose",
			want:     []string{},
		},
		{
			name:     "case insensitive, catalog order",
			symptoms: "Shortness of breath and CHEST PAIN since morning",
			want: []string{
				"Potential red flag detected: chest pain",
				"Potential red flag detected: shortness of breath",
			},
		},
		{
			name:     "each phrase once",
			symptoms: "chest pain, more chest pain, chest pain again",
			want:     []string{"Potential red flag detected: chest pain"},
		},
		{
			name:     "typographic apostrophe",
			symptoms: "I can’t breathe",
			want:     []string{"Potential red flag detected: can't breathe"},
		},
		{
			name:     "severe with a match",
			symptoms: "severe headache and neck stiffness",
			severity: strPtr("severe"),
			want: []string{
				"Potential red flag detected: severe headache",
				"Potential red flag detected: neck stiffness",
				"Symptoms reported as severe",
			},
		},
		{
			name:     "severe without a match",
			symptoms: "sore throat",
			severity: strPtr("severe"),
			want:     []string{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DetectRedFlags(tc.symptoms, tc.severity)
			if got == nil {
				t.Fatal("red flags must never be nil")
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

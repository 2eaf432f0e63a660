package symptom

import "strings"

const (
	redFlagPrefix   = "Potential red flag detected: "
	severeReportMsg = "Symptoms reported as severe"
)

// catalog order is the output order
var redFlagCatalog = []string{
	"chest pain", "chest pressure", "heart attack",
	"difficulty breathing", "shortness of breath", "can't breathe",
	"stroke", "facial drooping", "arm weakness", "speech difficulties",
	"severe abdominal pain", "severe headache", "neck stiffness",
	"high fever", "rash", "dehydration", "unconscious", "fainting",
	"severe bleeding", "allergic reaction", "anaphylaxis",
	"poisoning", "overdose", "suicidal", "self harm",
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'")

// DetectRedFlags scans free text for urgent-care phrases. It never returns nil.
func DetectRedFlags(symptoms string, severity *string) []string {
	text := apostrophes.Replace(strings.ToLower(symptoms))

	flags := []string{}
	for _, kw := range redFlagCatalog {
		if strings.Contains(text, kw) {
			flags = append(flags, redFlagPrefix+kw)
		}
	}
	if len(flags) > 0 && severity != nil && strings.EqualFold(strings.TrimSpace(*severity), SeveritySevere) {
		flags = append(flags, severeReportMsg)
	}
	return flags
}

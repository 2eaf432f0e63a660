package symptom

import "time"

const (
	defaultPhysicianText = "Consult a healthcare professional to discuss your symptoms."
	defaultUrgentText    = "Seek urgent medical care: your description includes symptoms that may need immediate attention."
)

// Normalize merges an analysis with the locally detected red flags into the wire
// response. It copies its inputs and never fails.
func Normalize(a Analysis, redFlags []string, now time.Time) Response {
	conds := make([]Condition, 0, len(a.ProbableConditions))
	conds = append(conds, a.ProbableConditions...)
	if len(conds) > MaxConditions {
		conds = conds[:MaxConditions]
	}

	steps := make([]NextStep, 0, len(a.RecommendedNextSteps)+2)
	steps = append(steps, a.RecommendedNextSteps...)
	if len(steps) == 0 {
		steps = append(steps, NextStep{Type: SeePhysician, Text: defaultPhysicianText})
	}
	if len(redFlags) > 0 && !hasStep(steps, UrgentCare) {
		steps = append([]NextStep{{Type: UrgentCare, Text: defaultUrgentText}}, steps...)
	}

	flags := make([]string, 0, len(redFlags))
	flags = append(flags, redFlags...)

	return Response{
		ProbableConditions:   conds,
		RecommendedNextSteps: steps,
		RedFlags:             flags,
		Disclaimer:           Disclaimer,
		Timestamp:            FormatTimestamp(now),
	}
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func hasStep(steps []NextStep, typ NextStepType) bool {
	for _, s := range steps {
		if s.Type == typ {
			return true
		}
	}
	return false
}

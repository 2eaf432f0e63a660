package symptom

import (
	"fmt"
	"strings"

	"github.com/suPer8Hu/symptom-checker/internal/ai"
)

const systemPrompt = `You are a medically-aware reasoning assistant for educational purposes only.
Your goal is to help users understand potential causes of their symptoms
and suggest safe next steps. You are NOT a doctor and cannot diagnose, treat,
or prescribe.

SAFETY REQUIREMENTS:
1. Never prescribe medications or give specific treatment doses.
2. Always recommend consulting a healthcare professional for serious symptoms.
3. Be conservative: when unsure, prefer escalation over reassurance.
4. Recommend urgent care for chest pain or pressure, severe difficulty breathing,
   signs of stroke, severe abdominal pain, high fever with rash, severe dehydration,
   severe headache with neck stiffness, loss of consciousness, severe allergic
   reactions, severe bleeding or signs of poisoning.

OUTPUT REQUIREMENTS:
- Return ONLY valid JSON matching the exact schema, with no surrounding text.
- Include at most 5 probable conditions, each with a confidence between 0 and 1
  and a short rationale.
- Tag every next step with one of: self_care, see_physician, urgent_care.`

const outputSchema = `{
  "probable_conditions": [{"condition": "", "confidence": 0.0, "rationale": ""}],
  "recommended_next_steps": [{"type": "self_care|see_physician|urgent_care", "text": ""}]
}`

// BuildMessages renders the system and user prompt for one check.
func BuildMessages(req Request) []ai.Message {
	return []ai.Message{
		{Role: ai.RoleSystem, Content: systemPrompt},
		{Role: ai.RoleUser, Content: userPrompt(req)},
	}
}

func userPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Symptoms: %s", req.Symptoms)
	if req.Age != nil {
		fmt.Fprintf(&b, "\nAge: %d", *req.Age)
	}
	if req.Sex != nil {
		fmt.Fprintf(&b, "\nSex: %s", *req.Sex)
	}
	if req.DurationDays != nil {
		fmt.Fprintf(&b, "\nDuration (days): %d", *req.DurationDays)
	}
	if req.Severity != nil {
		fmt.Fprintf(&b, "\nSeverity: %s", *req.Severity)
	}
	if req.Context != nil {
		fmt.Fprintf(&b, "\nContext: %s", *req.Context)
	}
	b.WriteString("\n\nBased on these inputs, provide probable conditions with confidence and rationale, ")
	b.WriteString("and recommended next steps.\n\nOutput JSON strictly matching this schema:\n")
	b.WriteString(outputSchema)
	return b.String()
}

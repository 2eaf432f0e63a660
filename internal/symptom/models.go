package symptom

// Disclaimer is attached to every response, success or failure.
const Disclaimer = "This is educational information only and not a substitute for professional medical advice, " +
	"diagnosis, or treatment. Always consult a qualified healthcare professional."

// TimestampLayout is the wire format of Response.Timestamp (always UTC).
const TimestampLayout = "2006-01-02T15:04:05.000Z"

const (
	MaxConditions     = 5
	MaxSymptomsLength = 2000
	MaxContextLength  = 1000
	MaxAge            = 120
	MaxDurationDays   = 3650
)

const (
	SexMale   = "male"
	SexFemale = "female"
	SexOther  = "other"
)

const (
	SeverityMild     = "mild"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
)

type NextStepType string

const (
	SelfCare     NextStepType = "self_care"
	SeePhysician NextStepType = "see_physician"
	UrgentCare   NextStepType = "urgent_care"
)

func (t NextStepType) Valid() bool {
	switch t {
	case SelfCare, SeePhysician, UrgentCare:
		return true
	}
	return false
}

type Request struct {
	Symptoms     string  `json:"symptoms"`
	Age          *int    `json:"age,omitempty"`
	Sex          *string `json:"sex,omitempty"`
	DurationDays *int    `json:"duration_days,omitempty"`
	Severity     *string `json:"severity,omitempty"`
	Context      *string `json:"context,omitempty"`
}

type Condition struct {
	Condition  string  `json:"condition"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

type NextStep struct {
	Type NextStepType `json:"type"`
	Text string       `json:"text"`
}

// Analysis is what the gateway extracts from a provider answer.
type Analysis struct {
	ProbableConditions   []Condition
	RecommendedNextSteps []NextStep
}

type Response struct {
	ProbableConditions   []Condition `json:"probable_conditions"`
	RecommendedNextSteps []NextStep  `json:"recommended_next_steps"`
	RedFlags             []string    `json:"red_flags"`
	Disclaimer           string      `json:"disclaimer"`
	Timestamp            string      `json:"timestamp"`
}

package domain

// ScoredCandidate is a segment with its retrieval score for one query.
type ScoredCandidate struct {
	SegmentID string
	Index     int
	Score     float64
	Text      string
}

// Mode reports how an answer was produced.
type Mode string

const (
	ModeExtractive Mode = "extractive"
	ModeGenerative Mode = "generative"
	ModeNone       Mode = "none"
)

// Outcome is the terminal state of one question.
//
//	Received -> Scored -> NoMatch
//	                   -> Ranked -> ExtractiveHit
//	                             -> GenerativeAttempt -> GenerativeHit | DegradedFallback
type Outcome string

const (
	OutcomeNoMatch          Outcome = "no_match"
	OutcomeExtractiveHit    Outcome = "extractive_hit"
	OutcomeGenerativeHit    Outcome = "generative_hit"
	OutcomeDegradedFallback Outcome = "degraded_fallback"
)

// NoRelevantInformation is the answer text for questions with no relevant context.
const NoRelevantInformation = "no relevant information found"

// Answer is a grounded response with ordered segment citations.
type Answer struct {
	Text      string   `json:"text"`
	Citations []string `json:"citations"`
	Mode      Mode     `json:"mode"`
}

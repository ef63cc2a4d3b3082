package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

type QuestionType string

const (
	QuestionTextInput QuestionType = "text_input"
	QuestionRating5   QuestionType = "rating_5"
	QuestionYesNo     QuestionType = "yes_no"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTextInput, QuestionRating5, QuestionYesNo:
		return true
	}
	return false
}

type Question struct {
	Text string       `json:"text"`
	Type QuestionType `json:"type"`
}

// UnmarshalJSON accepts both {"text","type"} objects and bare strings. Bare
// strings are free-text questions.
func (q *Question) UnmarshalJSON(b []byte) error {
	var text string
	if err := json.Unmarshal(b, &text); err == nil {
		*q = Question{Text: text, Type: QuestionTextInput}
		return nil
	}

	var raw struct {
		Text string       `json:"text"`
		Type QuestionType `json:"type"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode question: %w", err)
	}
	if raw.Type == "" {
		raw.Type = QuestionTextInput
	}
	*q = Question{Text: raw.Text, Type: raw.Type}
	return nil
}

type Survey struct {
	ID        int        `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	Published bool       `json:"published,omitempty"`
}

type NewSurvey struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// AnswerKey returns the answer-map key for the question at zero-based index i.
func AnswerKey(i int) string {
	return fmt.Sprintf("q%d", i+1)
}

type Assignment struct {
	SurveyID int      `json:"survey_id"`
	UserIDs  []string `json:"user_ids"`
}

type ResponseSubmission struct {
	SurveyID int               `json:"survey_id"`
	Answers  map[string]string `json:"answers"`
}

type SurveyResponse struct {
	ID          int               `json:"id"`
	UserID      int               `json:"user_id"`
	SurveyID    int               `json:"survey_id"`
	Answers     map[string]string `json:"answers"`
	Sentiment   *string           `json:"sentiment,omitempty"`
	BurnoutRisk *string           `json:"burnout_risk,omitempty"`
}

// SentimentLabel returns the lower-cased sentiment or "unknown" when the
// server did not annotate the response.
func (r SurveyResponse) SentimentLabel() string {
	return annotationLabel(r.Sentiment)
}

func (r SurveyResponse) BurnoutLabel() string {
	return annotationLabel(r.BurnoutRisk)
}

func annotationLabel(v *string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return "unknown"
	}
	return strings.ToLower(strings.TrimSpace(*v))
}

// Ack is the body write endpoints return: {"detail": "..."}.
type Ack struct {
	Detail string `json:"detail"`
}

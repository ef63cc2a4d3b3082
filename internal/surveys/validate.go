package surveys

import (
	"fmt"
	"strconv"
	"strings"

	"employeesurvey/survey-client/internal/apiclient"
	"employeesurvey/survey-client/internal/models"
)

func ValidateSurvey(in models.NewSurvey) error {
	if strings.TrimSpace(in.Title) == "" {
		return apiclient.Invalid("title", "must not be empty")
	}
	if len(in.Questions) == 0 {
		return apiclient.Invalid("questions", "a survey needs at least one question")
	}
	for i, q := range in.Questions {
		field := fmt.Sprintf("questions.%d", i)
		if strings.TrimSpace(q.Text) == "" {
			return apiclient.Invalid(field+".text", "must not be empty")
		}
		if !q.Type.Valid() {
			return apiclient.Invalid(field+".type", "unknown question type %q", q.Type)
		}
	}
	return nil
}

// ValidateAnswers requires an answer for every question keyed q1..qN, checks
// rating and yes/no answers, and returns the trimmed answer map.
func ValidateAnswers(survey models.Survey, answers map[string]string) (map[string]string, error) {
	if len(survey.Questions) == 0 {
		return nil, apiclient.Invalid("questions", "survey has no questions")
	}

	out := make(map[string]string, len(survey.Questions))
	for i, q := range survey.Questions {
		key := models.AnswerKey(i)
		v := strings.TrimSpace(answers[key])
		if v == "" {
			return nil, apiclient.Invalid(key, "please answer all questions")
		}
		switch q.Type {
		case models.QuestionRating5:
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 5 {
				return nil, apiclient.Invalid(key, "rating must be between 1 and 5")
			}
		case models.QuestionYesNo:
			if !strings.EqualFold(v, "yes") && !strings.EqualFold(v, "no") {
				return nil, apiclient.Invalid(key, "answer must be yes or no")
			}
			v = strings.ToLower(v)
		}
		out[key] = v
	}
	for key := range answers {
		if _, ok := out[key]; !ok {
			return nil, apiclient.Invalid(key, "no such question")
		}
	}
	return out, nil
}

// NewAnswerSheet returns an empty answer map with one q-key per question.
func NewAnswerSheet(survey models.Survey) map[string]string {
	sheet := make(map[string]string, len(survey.Questions))
	for i := range survey.Questions {
		sheet[models.AnswerKey(i)] = ""
	}
	return sheet
}

// ParseUserIDs splits a comma-separated list of user ids, dropping blanks and
// repeats.
func ParseUserIDs(raw string) []string {
	return cleanIDs(strings.Split(raw, ","))
}

func cleanIDs(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, id := range in {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

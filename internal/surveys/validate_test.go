package surveys

import (
	"reflect"
	"testing"

	"employeesurvey/survey-client/internal/models"
)

func ptr(s string) *string { return &s }

func TestParseUserIDs(t *testing.T) {
	cases := map[string][]string{
		"":            {},
		" , ,":        {},
		"1,2,3":       {"1", "2", "3"},
		" 4 , 5,, 4 ": {"4", "5"},
		"alice":       {"alice"},
	}
	for in, want := range cases {
		if got := ParseUserIDs(in); !reflect.DeepEqual(got, want) {
			t.Fatalf("ParseUserIDs(%q) = %#v, want %#v", in, got, want)
		}
	}
}

func TestNewAnswerSheet(t *testing.T) {
	sheet := NewAnswerSheet(models.Survey{Questions: []models.Question{{Text: "a"}, {Text: "b"}}})
	want := map[string]string{"q1": "", "q2": ""}
	if !reflect.DeepEqual(sheet, want) {
		t.Fatalf("unexpected sheet %v", sheet)
	}
}

func TestSummarize(t *testing.T) {
	responses := []models.SurveyResponse{
		{ID: 1, Sentiment: ptr("Positive"), BurnoutRisk: ptr("Low")},
		{ID: 2, Sentiment: ptr("positive"), BurnoutRisk: ptr("HIGH")},
		{ID: 3, Sentiment: ptr("Neutral")},
		{ID: 4, Sentiment: ptr(" "), BurnoutRisk: ptr("low")},
	}
	got := Summarize(responses)
	want := models.Distribution{
		SentimentDistribution:   []models.Bucket{{Label: "positive", Value: 2}, {Label: "neutral", Value: 1}, {Label: "unknown", Value: 1}},
		BurnoutRiskDistribution: []models.Bucket{{Label: "low", Value: 2}, {Label: "high", Value: 1}, {Label: "unknown", Value: 1}},
		TotalResponses:          4,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Summarize() = %+v, want %+v", got, want)
	}

	empty := Summarize(nil)
	if empty.TotalResponses != 0 || len(empty.SentimentDistribution) != 0 {
		t.Fatalf("unexpected empty summary %+v", empty)
	}
}

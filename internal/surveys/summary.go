package surveys

import "employeesurvey/survey-client/internal/models"

// Summarize counts sentiment and burnout labels across responses. Buckets keep
// the order in which labels first appear.
func Summarize(responses []models.SurveyResponse) models.Distribution {
	var sentiment, burnout counter
	for _, r := range responses {
		sentiment.add(r.SentimentLabel())
		burnout.add(r.BurnoutLabel())
	}
	return models.Distribution{
		SentimentDistribution:   sentiment.buckets(),
		BurnoutRiskDistribution: burnout.buckets(),
		TotalResponses:          len(responses),
	}
}

type counter struct {
	order  []string
	counts map[string]int
}

func (c *counter) add(label string) {
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	if _, ok := c.counts[label]; !ok {
		c.order = append(c.order, label)
	}
	c.counts[label]++
}

func (c *counter) buckets() []models.Bucket {
	out := make([]models.Bucket, 0, len(c.order))
	for _, label := range c.order {
		out = append(out, models.Bucket{Label: label, Value: c.counts[label]})
	}
	return out
}

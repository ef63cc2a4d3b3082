package models

type Bucket struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

type Distribution struct {
	SentimentDistribution   []Bucket `json:"sentiment_distribution"`
	BurnoutRiskDistribution []Bucket `json:"burnout_risk_distribution"`
	TotalResponses          int      `json:"total_responses"`
}

type TextData struct {
	AllAnswersText string `json:"all_answers_text"`
}

type ReportRow struct {
	ResponseID  int     `json:"response_id"`
	UserID      int     `json:"user_id"`
	Username    string  `json:"username"`
	Sentiment   *string `json:"sentiment,omitempty"`
	BurnoutRisk *string `json:"burnout_risk,omitempty"`
}

type Health struct {
	Status string `json:"status"`
	Time   string `json:"time,omitempty"`
}

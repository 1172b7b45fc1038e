package dto

// RankRequest is the body of POST /rank.
type RankRequest struct {
	UserID int64 `json:"user_id"`
	TopK   int   `json:"top_k,omitempty"`
}

// RankedItem is one ranker-scored job.
type RankedItem struct {
	JobID string  `json:"job_id"`
	Score float64 `json:"score"`
}

// RankResponse lists ranker scores in descending order.
type RankResponse struct {
	UserID int64        `json:"user_id"`
	Items  []RankedItem `json:"items"`
}

// TopCareersRequest is the body of POST /recs/top_careers.
type TopCareersRequest struct {
	UserID    int64  `json:"user_id"`
	TopK      int    `json:"top_k,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// CareerItem is one recommended career.
type CareerItem struct {
	CareerID   string  `json:"career_id"`
	FinalScore float64 `json:"final_score"`
}

// TopCareersResponse is the final recommendation list.
type TopCareersResponse struct {
	Items []CareerItem `json:"items"`
}

// PolicyBody reads and updates the bandit policy.
type PolicyBody struct {
	Name        string  `json:"name"`
	Epsilon     float64 `json:"epsilon,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

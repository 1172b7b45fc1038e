package dto

import "time"

// CareerEventRequest is the body of POST /career-event.
type CareerEventRequest struct {
	UserID     *int64     `json:"user_id,omitempty"`
	SessionID  string     `json:"session_id,omitempty"`
	JobID      string     `json:"job_id"`
	EventType  string     `json:"event_type"`
	RankPos    *int       `json:"rank_pos,omitempty"`
	ScoreShown *float64   `json:"score_shown,omitempty"`
	Timestamp  *time.Time `json:"ts,omitempty"`
}

// CareerEventResponse acknowledges a stored event.
type CareerEventResponse struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse reports service liveness and loaded models.
type HealthResponse struct {
	Status           string   `json:"status"`
	EncoderLanguages []string `json:"encoder_languages"`
	IndexSize        int      `json:"index_size"`
	RankerVersion    string   `json:"ranker_version"`
}

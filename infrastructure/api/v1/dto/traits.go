// Package dto holds the JSON request and response bodies of the HTTP API.
package dto

import "time"

// InferTraitsRequest is the body of POST /ai/infer_user_traits.
type InferTraitsRequest struct {
	EssayText string `json:"essay_text"`
	Lang      string `json:"lang,omitempty"`
}

// InferTraitsResponse is the encoder output for one essay.
type InferTraitsResponse struct {
	DetectedLang  string    `json:"detected_lang"`
	UsedLang      string    `json:"used_lang"`
	EssayOriginal string    `json:"essay_original"`
	EssayUsed     string    `json:"essay_used"`
	RIASEC        []float64 `json:"riasec"`
	BigFive       []float64 `json:"big5"`
	EmbeddingDim  int       `json:"embedding_dim"`
	Embedding     []float64 `json:"embedding"`
}

// TestScoresRequest is the body of POST /users/{id}/traits/test.
type TestScoresRequest struct {
	RIASEC  []float64 `json:"riasec,omitempty"`
	BigFive []float64 `json:"big5,omitempty"`
}

// TraitSnapshotResponse is a stored trait snapshot. Fused entries are null
// where neither source supplied the dimension.
type TraitSnapshotResponse struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	RIASECTest   []float64  `json:"riasec_test,omitempty"`
	BigFiveTest  []float64  `json:"big5_test,omitempty"`
	RIASECEssay  []float64  `json:"riasec_essay,omitempty"`
	BigFiveEssay []float64  `json:"big5_essay,omitempty"`
	RIASECFused  []*float64 `json:"riasec_fused"`
	BigFiveFused []*float64 `json:"big5_fused"`
	HasTest      bool       `json:"has_test"`
	HasEssay     bool       `json:"has_essay"`
	CreatedAt    time.Time  `json:"created_at"`
}

// EssaySnapshotResponse is returned when an essay is stored for a user.
type EssaySnapshotResponse struct {
	Inference InferTraitsResponse   `json:"inference"`
	Snapshot  TraitSnapshotResponse `json:"snapshot"`
}

// TraitHistoryResponse lists a user's snapshots, newest first.
type TraitHistoryResponse struct {
	Data []TraitSnapshotResponse `json:"data"`
}

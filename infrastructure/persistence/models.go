package persistence

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Float64Slice stores a []float64 as a JSON column.
type Float64Slice []float64

// Scan implements sql.Scanner.
func (f *Float64Slice) Scan(value any) error {
	data, err := jsonBytes(value)
	if err != nil || data == nil {
		*f = nil
		return err
	}
	return json.Unmarshal(data, f)
}

// Value implements driver.Valuer.
func (f Float64Slice) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	b, err := json.Marshal(f)
	return string(b), err
}

// NullableFloats stores per-dimension optional values as a JSON array with
// nulls.
type NullableFloats []*float64

// Scan implements sql.Scanner.
func (n *NullableFloats) Scan(value any) error {
	data, err := jsonBytes(value)
	if err != nil || data == nil {
		*n = nil
		return err
	}
	return json.Unmarshal(data, n)
}

// Value implements driver.Valuer.
func (n NullableFloats) Value() (driver.Value, error) {
	if n == nil {
		return nil, nil
	}
	b, err := json.Marshal(n)
	return string(b), err
}

func jsonBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, fmt.Errorf("cannot scan %T into a JSON column", value)
}

// TraitSnapshotModel is a row of trait_snapshots.
type TraitSnapshotModel struct {
	ID           int64          `gorm:"column:id;primaryKey;autoIncrement"`
	UserID       int64          `gorm:"column:user_id;index;not null"`
	RIASECTest   Float64Slice   `gorm:"column:riasec_test;type:json"`
	BigFiveTest  Float64Slice   `gorm:"column:big5_test;type:json"`
	RIASECEssay  Float64Slice   `gorm:"column:riasec_essay;type:json"`
	BigFiveEssay Float64Slice   `gorm:"column:big5_essay;type:json"`
	RIASECFused  NullableFloats `gorm:"column:riasec_fused;type:json"`
	BigFiveFused NullableFloats `gorm:"column:big5_fused;type:json"`
	HasTest      bool           `gorm:"column:has_test"`
	HasEssay     bool           `gorm:"column:has_essay"`
	CreatedAt    time.Time      `gorm:"column:created_at;not null"`
}

// TableName returns the table name.
func (TraitSnapshotModel) TableName() string { return "trait_snapshots" }

// CareerEventModel is a row of career_events.
type CareerEventModel struct {
	ID         string    `gorm:"column:id;primaryKey;size:36"`
	UserID     *int64    `gorm:"column:user_id;index"`
	SessionID  string    `gorm:"column:session_id;size:255"`
	JobID      string    `gorm:"column:job_id;size:255;index;not null"`
	EventType  string    `gorm:"column:event_type;size:32;not null"`
	RankPos    *int      `gorm:"column:rank_pos"`
	ScoreShown *float64  `gorm:"column:score_shown"`
	Timestamp  time.Time `gorm:"column:ts;index;not null"`
}

// TableName returns the table name.
func (CareerEventModel) TableName() string { return "career_events" }

// CareerModel is a row of career_embeddings.
type CareerModel struct {
	CareerID    string       `gorm:"column:career_id;primaryKey;size:255"`
	Title       string       `gorm:"column:title"`
	Description string       `gorm:"column:description"`
	RIASEC      Float64Slice `gorm:"column:riasec;type:json"`
	Embedding   Float64Slice `gorm:"column:embedding;type:json;not null"`
	CreatedAt   time.Time    `gorm:"column:created_at;not null"`
}

// TableName returns the table name.
func (CareerModel) TableName() string { return "career_embeddings" }

// UserEmbeddingModel is a row of user_embeddings.
type UserEmbeddingModel struct {
	UserID    int64        `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	Embedding Float64Slice `gorm:"column:embedding;type:json;not null"`
	Language  string       `gorm:"column:lang;size:8"`
	UpdatedAt time.Time    `gorm:"column:updated_at;not null"`
}

// TableName returns the table name.
func (UserEmbeddingModel) TableName() string { return "user_embeddings" }

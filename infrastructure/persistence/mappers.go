package persistence

import (
	"github.com/helixml/careerpath/domain/career"
	"github.com/helixml/careerpath/domain/interaction"
	"github.com/helixml/careerpath/domain/trait"
)

type snapshotMapper struct{}

func (snapshotMapper) ToDomain(m TraitSnapshotModel) trait.Snapshot {
	return trait.Snapshot{
		ID:           m.ID,
		UserID:       m.UserID,
		Test:         trait.Scores{RIASEC: m.RIASECTest, BigFive: m.BigFiveTest},
		Essay:        trait.Scores{RIASEC: m.RIASECEssay, BigFive: m.BigFiveEssay},
		RIASECFused:  m.RIASECFused,
		BigFiveFused: m.BigFiveFused,
		CreatedAt:    m.CreatedAt,
	}
}

func (snapshotMapper) ToModel(s trait.Snapshot) TraitSnapshotModel {
	return TraitSnapshotModel{
		ID:           s.ID,
		UserID:       s.UserID,
		RIASECTest:   s.Test.RIASEC,
		BigFiveTest:  s.Test.BigFive,
		RIASECEssay:  s.Essay.RIASEC,
		BigFiveEssay: s.Essay.BigFive,
		RIASECFused:  s.RIASECFused,
		BigFiveFused: s.BigFiveFused,
		HasTest:      s.HasTest(),
		HasEssay:     s.HasEssay(),
		CreatedAt:    s.CreatedAt,
	}
}

type eventMapper struct{}

func (eventMapper) ToDomain(m CareerEventModel) interaction.Event {
	return interaction.Event{
		ID:         m.ID,
		UserID:     m.UserID,
		SessionID:  m.SessionID,
		JobID:      m.JobID,
		Type:       interaction.EventType(m.EventType),
		RankPos:    m.RankPos,
		ScoreShown: m.ScoreShown,
		Timestamp:  m.Timestamp.UTC(),
	}
}

func (eventMapper) ToModel(e interaction.Event) CareerEventModel {
	return CareerEventModel{
		ID:         e.ID,
		UserID:     e.UserID,
		SessionID:  e.SessionID,
		JobID:      e.JobID,
		EventType:  string(e.Type),
		RankPos:    e.RankPos,
		ScoreShown: e.ScoreShown,
		Timestamp:  e.Timestamp,
	}
}

type careerMapper struct{}

func (careerMapper) ToDomain(m CareerModel) career.Career {
	return career.Career{
		ID:          m.CareerID,
		Title:       m.Title,
		Description: m.Description,
		RIASEC:      m.RIASEC,
		Embedding:   m.Embedding,
		CreatedAt:   m.CreatedAt,
	}
}

func (careerMapper) ToModel(c career.Career) CareerModel {
	return CareerModel{
		CareerID:    c.ID,
		Title:       c.Title,
		Description: c.Description,
		RIASEC:      c.RIASEC,
		Embedding:   c.Embedding,
		CreatedAt:   c.CreatedAt,
	}
}

type userEmbeddingMapper struct{}

func (userEmbeddingMapper) ToDomain(m UserEmbeddingModel) trait.UserEmbedding {
	return trait.UserEmbedding{
		UserID:    m.UserID,
		Vector:    m.Embedding,
		Language:  m.Language,
		UpdatedAt: m.UpdatedAt,
	}
}

func (userEmbeddingMapper) ToModel(u trait.UserEmbedding) UserEmbeddingModel {
	return UserEmbeddingModel{
		UserID:    u.UserID,
		Embedding: u.Vector,
		Language:  u.Language,
		UpdatedAt: u.UpdatedAt,
	}
}

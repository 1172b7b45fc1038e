package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/careerpath/domain/career"
	"github.com/helixml/careerpath/domain/interaction"
	"github.com/helixml/careerpath/infrastructure/persistence"
	"github.com/helixml/careerpath/internal/testdb"
)

func userPtr(id int64) *int64 { return &id }

func TestTraining_ExportLabelsClicks(t *testing.T) {
	ctx := context.Background()
	events := persistence.NewEventStore(testdb.New(t))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := events.Append(ctx,
		interaction.Event{UserID: userPtr(1), JobID: "jobA", Type: interaction.EventImpression, Timestamp: base},
		interaction.Event{UserID: userPtr(1), JobID: "jobA", Type: interaction.EventClick, Timestamp: base.Add(time.Second)},
		interaction.Event{SessionID: "anon", JobID: "jobB", Type: interaction.EventClick, Timestamp: base},
	)
	require.NoError(t, err)

	svc := NewTraining(events, nil, 0, 42, nil)
	var buf bytes.Buffer
	n, err := svc.Export(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, `{"user_id":1,"job_id":"jobA","label":1}`+"\n", buf.String())
}

func TestTraining_ExportIsReproducible(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	events := persistence.NewEventStore(db)
	catalog := persistence.NewCareerStore(db)

	var all []career.Career
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		all = append(all, career.Career{ID: id, Embedding: []float64{1}})
	}
	require.NoError(t, catalog.Insert(ctx, all...))
	_, err := events.Append(ctx,
		interaction.Event{UserID: userPtr(2), JobID: "a", Type: interaction.EventImpression},
		interaction.Event{UserID: userPtr(3), JobID: "b", Type: interaction.EventSave},
	)
	require.NoError(t, err)

	svc := NewTraining(events, catalog, 2, 7, nil)
	var first, second bytes.Buffer
	n, err := svc.Export(ctx, &first)
	require.NoError(t, err)
	_, err = svc.Export(ctx, &second)
	require.NoError(t, err)

	assert.Equal(t, 6, n)
	assert.Equal(t, first.String(), second.String())
	assert.Len(t, strings.Split(strings.TrimSpace(first.String()), "\n"), 6)
}

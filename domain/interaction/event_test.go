package interaction

import (
	"testing"

	"github.com/helixml/careerpath/domain/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventType(t *testing.T) {
	got, err := ParseEventType(" Click ")
	require.NoError(t, err)
	assert.Equal(t, EventClick, got)

	_, err = ParseEventType("like")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestEventType_Positive(t *testing.T) {
	assert.False(t, EventImpression.Positive())
	assert.True(t, EventClick.Positive())
	assert.True(t, EventSave.Positive())
	assert.True(t, EventApply.Positive())
}

func TestEvent_Validate(t *testing.T) {
	pos := -1
	assert.NoError(t, Event{JobID: "J1", Type: EventSave}.Validate())
	assert.ErrorIs(t, Event{Type: EventSave}.Validate(), errs.ErrValidation)
	assert.ErrorIs(t, Event{JobID: "J1", Type: "view"}.Validate(), errs.ErrValidation)
	assert.ErrorIs(t, Event{JobID: "J1", Type: EventClick, RankPos: &pos}.Validate(), errs.ErrValidation)
}

func TestEvent_Trainable(t *testing.T) {
	assert.False(t, Event{JobID: "J"}.Trainable())
	assert.False(t, Event{UserID: uid(1)}.Trainable())
	assert.True(t, Event{UserID: uid(1), JobID: "J"}.Trainable())
}

package outbox

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketplace-engine/pkg/db/dbtest"
	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	"github.com/angelmondragon/marketplace-engine/pkg/enums"
)

func TestDLQRepositoryInsertAndFind(t *testing.T) {
	ctx := context.Background()
	client := dbtest.Open(t)
	repo := NewDLQRepository(client.DB())

	eventID := uuid.New()
	msg := strings.Repeat("é", maxDLQErrorLen)
	entry := models.OutboxDLQ{
		EventID:       eventID,
		EventType:     enums.EventPaymentFailed,
		AggregateType: enums.AggregatePayment,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"amount":"5.00"}`),
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
		ErrorMessage:  &msg,
		AttemptCount:  5,
	}
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return repo.InsertTx(tx, entry)
	}))

	stored, err := repo.FindByEventID(ctx, eventID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, enums.OutboxDLQReasonMaxAttempts, stored.ErrorReason)
	require.LessOrEqual(t, len(*stored.ErrorMessage), maxDLQErrorLen)
	require.True(t, utf8.ValidString(*stored.ErrorMessage))

	missing, err := repo.FindByEventID(ctx, uuid.New())
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestDLQRepositoryInsertRequiresTxAndReason(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewDLQRepository(client.DB())

	require.Error(t, repo.InsertTx(nil, models.OutboxDLQ{ErrorReason: enums.OutboxDLQReasonNonRetryable}))
	require.Error(t, repo.InsertTx(client.DB(), models.OutboxDLQ{ErrorReason: "gave_up"}))
}

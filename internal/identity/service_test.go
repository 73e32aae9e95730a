package identity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/marketplace-engine/pkg/db/dbtest"
	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	"github.com/angelmondragon/marketplace-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
)

func TestIdentityLookups(t *testing.T) {
	ctx := context.Background()
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()))
	require.NoError(t, err)

	buyer := &models.User{Email: "b@example.com", Name: "Buyer", Role: enums.UserRoleBuyer, IsActive: true}
	require.NoError(t, svc.CreateUser(ctx, buyer))
	other := &models.User{Email: "o@example.com", Name: "Other", Role: enums.UserRoleBuyer, IsActive: true}
	require.NoError(t, svc.CreateUser(ctx, other))
	inactive := &models.User{Email: "i@example.com", Name: "Gone", Role: enums.UserRoleBuyer}
	require.NoError(t, svc.CreateUser(ctx, inactive))

	got, err := svc.GetBuyer(ctx, buyer.ID)
	require.NoError(t, err)
	require.Equal(t, buyer.Email, got.Email)
	_, err = svc.GetBuyer(ctx, inactive.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.GetBuyer(ctx, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	address := &models.Address{UserID: buyer.ID, FullName: "Buyer", Line1: "1 Main", City: "Austin", PostalCode: "78701", Country: "US"}
	require.NoError(t, svc.CreateAddress(ctx, address))
	_, err = svc.OwnedAddress(ctx, buyer.ID, address.ID)
	require.NoError(t, err)
	_, err = svc.OwnedAddress(ctx, other.ID, address.ID)
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonInvalidAddress))

	rate := decimal.RequireFromString("12.5")
	custom := &models.Vendor{UserID: other.ID, BusinessName: "Custom", CommissionRate: &rate, IsActive: true}
	require.NoError(t, svc.CreateVendor(ctx, custom))
	standard := &models.Vendor{UserID: other.ID, BusinessName: "Standard", IsActive: true}
	require.NoError(t, svc.CreateVendor(ctx, standard))

	got1, err := svc.VendorCommissionRate(ctx, custom.ID)
	require.NoError(t, err)
	require.NotNil(t, got1)
	require.True(t, got1.Equal(rate))

	got2, err := svc.VendorCommissionRate(ctx, standard.ID)
	require.NoError(t, err)
	require.Nil(t, got2)

	_, err = svc.VendorCommissionRate(ctx, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

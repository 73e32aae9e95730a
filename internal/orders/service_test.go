package orders

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/marketplace-engine/internal/cart"
	"github.com/angelmondragon/marketplace-engine/internal/catalog"
	"github.com/angelmondragon/marketplace-engine/internal/coupons"
	"github.com/angelmondragon/marketplace-engine/internal/identity"
	"github.com/angelmondragon/marketplace-engine/internal/inventory"
	"github.com/angelmondragon/marketplace-engine/internal/ledger"
	"github.com/angelmondragon/marketplace-engine/pkg/db"
	"github.com/angelmondragon/marketplace-engine/pkg/db/dbtest"
	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	"github.com/angelmondragon/marketplace-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
	"github.com/angelmondragon/marketplace-engine/pkg/outbox/payloads"
	"github.com/angelmondragon/marketplace-engine/pkg/pagination"
)

var orderNumberRe = regexp.MustCompile(`^ORD-\d{8}-\d{6}$`)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

type fixture struct {
	t        *testing.T
	client   *db.Client
	svc      *Service
	carts    cart.Service
	stock    *inventory.Service
	coupons  *coupons.Service
	identity *identity.Service
	ledger   ledger.Service

	buyer    *models.User
	address  *models.Address
	productA *models.Product
	productB *models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	client := dbtest.Open(t)
	conn := client.DB()

	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn))
	require.NoError(t, err)
	identitySvc, err := identity.NewService(identity.NewRepository(conn))
	require.NoError(t, err)
	stockSvc, err := inventory.NewService(inventory.NewRepository(conn), nil)
	require.NoError(t, err)
	couponSvc, err := coupons.NewService(coupons.NewRepository(conn), nil)
	require.NoError(t, err)
	cartSvc, err := cart.NewService(cart.NewRepository(conn), catalogSvc, stockSvc, nil)
	require.NoError(t, err)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), client, nil)
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Repo:      NewRepository(conn),
		Tx:        client,
		Carts:     cartSvc,
		Catalog:   catalogSvc,
		Identity:  identitySvc,
		Coupons:   couponSvc,
		Stock:     stockSvc,
		Ledger:    ledgerSvc,
		Sequencer: NewDaySequencer(conn),
		Pricing: Pricing{
			Currency:              "USD",
			FlatShipping:          dec("10.00"),
			ZoneRates:             map[string]decimal.Decimal{"CA": dec("20.00")},
			TaxRatePercent:        dec("10"),
			DefaultCommissionRate: dec("10"),
		},
	})
	require.NoError(t, err)

	f := &fixture{
		t: t, client: client, svc: svc, carts: cartSvc, stock: stockSvc,
		coupons: couponSvc, identity: identitySvc, ledger: ledgerSvc,
	}

	f.buyer, f.address = f.newBuyer("buyer@example.com", "US")

	vendorUser := &models.User{Email: "vendor@example.com", Name: "Vendor", Role: enums.UserRoleVendor, IsActive: true}
	require.NoError(t, identitySvc.CreateUser(ctx, vendorUser))
	rate := dec("15")
	negotiated := &models.Vendor{UserID: vendorUser.ID, BusinessName: "Mugs Inc", CommissionRate: &rate, IsActive: true}
	require.NoError(t, identitySvc.CreateVendor(ctx, negotiated))
	standard := &models.Vendor{UserID: vendorUser.ID, BusinessName: "Tees Ltd", IsActive: true}
	require.NoError(t, identitySvc.CreateVendor(ctx, standard))

	f.productA = &models.Product{VendorID: negotiated.ID, SKU: "MUG", Name: "Mug", Price: dec("10.00"), IsActive: true}
	require.NoError(t, catalogSvc.CreateProduct(ctx, f.productA))
	f.productB = &models.Product{VendorID: standard.ID, SKU: "TEE", Name: "Tee", Price: dec("25.50"), IsActive: true}
	require.NoError(t, catalogSvc.CreateProduct(ctx, f.productB))

	_, err = stockSvc.SetStock(ctx, f.productA.ID, uuid.Nil, 10)
	require.NoError(t, err)
	_, err = stockSvc.SetStock(ctx, f.productB.ID, uuid.Nil, 5)
	require.NoError(t, err)
	return f
}

func (f *fixture) newBuyer(email, country string) (*models.User, *models.Address) {
	f.t.Helper()
	ctx := context.Background()
	user := &models.User{Email: email, Name: "Buyer", Role: enums.UserRoleBuyer, IsActive: true}
	require.NoError(f.t, f.identity.CreateUser(ctx, user))
	address := &models.Address{UserID: user.ID, FullName: "Buyer", Line1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: country}
	require.NoError(f.t, f.identity.CreateAddress(ctx, address))
	return user, address
}

func (f *fixture) addToCart(buyerID, productID uuid.UUID, qty int) {
	f.t.Helper()
	_, err := f.carts.AddToCart(context.Background(), cart.AddItemInput{BuyerID: buyerID, ProductID: productID, Quantity: qty})
	require.NoError(f.t, err)
}

func (f *fixture) checkoutInput(buyer *models.User, address *models.Address) CreateOrderInput {
	return CreateOrderInput{
		BuyerID:           buyer.ID,
		ShippingAddressID: address.ID,
		BillingAddressID:  address.ID,
		PaymentMethod:     enums.PaymentMethodCard,
	}
}

func (f *fixture) onHand(productID uuid.UUID) int {
	f.t.Helper()
	record, err := f.stock.Get(context.Background(), productID, uuid.Nil)
	require.NoError(f.t, err)
	return record.OnHand
}

func (f *fixture) placeOrder() *models.Order {
	f.t.Helper()
	f.addToCart(f.buyer.ID, f.productA.ID, 1)
	result, err := f.svc.CreateOrder(context.Background(), f.checkoutInput(f.buyer, f.address))
	require.NoError(f.t, err)
	return result.Order
}

func TestCreateOrderAssemblesTotalsLinesAndCommission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addToCart(f.buyer.ID, f.productA.ID, 2)
	f.addToCart(f.buyer.ID, f.productB.ID, 1)

	note := "  leave at the door "
	input := f.checkoutInput(f.buyer, f.address)
	input.CustomerNote = &note
	result, err := f.svc.CreateOrder(ctx, input)
	require.NoError(t, err)

	order := result.Order
	require.Regexp(t, orderNumberRe, order.OrderNumber)
	require.Equal(t, enums.OrderStatusPending, order.Status)
	require.Equal(t, enums.PaymentStatusPending, order.PaymentStatus)
	require.Equal(t, "45.50", order.Subtotal.StringFixed(2))
	require.Equal(t, "10.00", order.ShippingCost.StringFixed(2))
	require.Equal(t, "4.55", order.TaxAmount.StringFixed(2))
	require.Equal(t, "60.05", order.Total.StringFixed(2))
	require.Equal(t, "leave at the door", *order.CustomerNote)

	stored, err := f.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 2)
	byProduct := map[uuid.UUID]models.OrderLine{}
	for _, line := range stored.Lines {
		byProduct[line.ProductID] = line
		require.True(t, line.CommissionAmount.Add(line.VendorPayout).Equal(line.LineTotal))
	}
	mug := byProduct[f.productA.ID]
	require.True(t, mug.CommissionRate.Equal(dec("15")))
	require.Equal(t, "3.00", mug.CommissionAmount.StringFixed(2))
	require.Equal(t, "17.00", mug.VendorPayout.StringFixed(2))
	tee := byProduct[f.productB.ID]
	require.True(t, tee.CommissionRate.Equal(dec("10")), "vendor without rate uses platform default")
	require.Equal(t, "2.55", tee.CommissionAmount.StringFixed(2))

	require.Equal(t, 8, f.onHand(f.productA.ID))
	require.Equal(t, 4, f.onHand(f.productB.ID))

	view, err := f.carts.GetCart(ctx, f.buyer.ID)
	require.NoError(t, err)
	require.True(t, view.IsEmpty())

	history, err := f.svc.History(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, enums.OrderStatusPending, history[0].NewStatus)

	require.Len(t, result.Events, 1)
	require.Equal(t, enums.EventOrderCreated, result.Events[0].EventType)
	payload, ok := result.Events[0].Data.(payloads.OrderCreatedEvent)
	require.True(t, ok)
	require.Equal(t, "60.05", payload.Total)
	require.Len(t, payload.Lines, 2)
}

func TestCreateOrderUsesCurrentCatalogPriceAndZoneShipping(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	buyer, address := f.newBuyer("canada@example.com", "ca")
	f.addToCart(buyer.ID, f.productA.ID, 1)

	require.NoError(t, f.client.DB().Model(&models.Product{}).
		Where("id = ?", f.productA.ID).Update("price", dec("12.00")).Error)

	result, err := f.svc.CreateOrder(ctx, f.checkoutInput(buyer, address))
	require.NoError(t, err)
	require.Equal(t, "12.00", result.Order.Subtotal.StringFixed(2))
	require.Equal(t, "20.00", result.Order.ShippingCost.StringFixed(2))
	require.Equal(t, "12.00", result.Order.Lines[0].UnitPrice.StringFixed(2))
}

func TestCreateOrderOrderNumbersIncrease(t *testing.T) {
	f := newFixture(t)
	first := f.placeOrder()
	second := f.placeOrder()
	require.Less(t, first.OrderNumber, second.OrderNumber)
}

func TestCreateOrderInsufficientStockRollsBackEveryLine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addToCart(f.buyer.ID, f.productA.ID, 2)
	f.addToCart(f.buyer.ID, f.productB.ID, 3)
	_, err := f.stock.SetStock(ctx, f.productB.ID, uuid.Nil, 2)
	require.NoError(t, err)

	_, err = f.svc.CreateOrder(ctx, f.checkoutInput(f.buyer, f.address))
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonInsufficientStock), "got %v", err)
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	require.Equal(t, f.productB.ID.String(), details["product_id"])

	require.Equal(t, 10, f.onHand(f.productA.ID), "earlier debit must roll back")
	require.Equal(t, 2, f.onHand(f.productB.ID))

	view, err := f.carts.GetCart(ctx, f.buyer.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 2, "cart survives a failed checkout")

	var count int64
	require.NoError(t, f.client.DB().Model(&models.Order{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateOrderCouponLastUseRace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	limit := 1
	from := time.Now().Add(-time.Hour)
	_, err := f.coupons.CreateCoupon(ctx, coupons.CreateCouponInput{
		Code: "LAST1", Kind: enums.CouponKindFixed, Value: dec("5.00"), UsageLimit: &limit, ValidFrom: &from,
	})
	require.NoError(t, err)

	other, otherAddress := f.newBuyer("other@example.com", "US")
	f.addToCart(f.buyer.ID, f.productA.ID, 1)
	f.addToCart(other.ID, f.productA.ID, 1)

	code := "last1"
	inputs := []CreateOrderInput{f.checkoutInput(f.buyer, f.address), f.checkoutInput(other, otherAddress)}
	errs := make([]error, len(inputs))
	var wg sync.WaitGroup
	for i := range inputs {
		inputs[i].CouponCode = &code
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.CreateOrder(ctx, inputs[i])
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.True(t, pkgerrors.HasReason(err, coupons.ReasonLimitReached), "got %v", err)
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, 9, f.onHand(f.productA.ID), "the losing checkout releases its debit")

	var coupon models.Coupon
	require.NoError(t, f.client.DB().Where("code = ?", "LAST1").First(&coupon).Error)
	require.Equal(t, 1, coupon.UsedCount)
}

func TestConcurrentCheckoutsDoNotOversell(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	other, otherAddress := f.newBuyer("second@example.com", "US")
	f.addToCart(f.buyer.ID, f.productA.ID, 6)
	f.addToCart(other.ID, f.productA.ID, 6)

	inputs := []CreateOrderInput{f.checkoutInput(f.buyer, f.address), f.checkoutInput(other, otherAddress)}
	errs := make([]error, len(inputs))
	var wg sync.WaitGroup
	for i := range inputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.CreateOrder(ctx, inputs[i])
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonInsufficientStock), "got %v", err)
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, 4, f.onHand(f.productA.ID))
}

func TestCreateOrderAppliesCouponDiscount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	from := time.Now().Add(-time.Hour)
	_, err := f.coupons.CreateCoupon(ctx, coupons.CreateCouponInput{
		Code: "TENOFF", Kind: enums.CouponKindPercentage, Value: dec("10"), ValidFrom: &from,
	})
	require.NoError(t, err)
	f.addToCart(f.buyer.ID, f.productB.ID, 2)

	code := "tenoff"
	input := f.checkoutInput(f.buyer, f.address)
	input.CouponCode = &code
	result, err := f.svc.CreateOrder(ctx, input)
	require.NoError(t, err)
	// subtotal 51.00, shipping 10.00, tax 5.10, discount 5.10
	require.Equal(t, "5.10", result.Order.DiscountAmount.StringFixed(2))
	require.Equal(t, "61.00", result.Order.Total.StringFixed(2))
	require.Equal(t, "TENOFF", *result.Order.CouponCode)
}

func TestCreateOrderRejectsInvalidCouponWithoutSideEffects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addToCart(f.buyer.ID, f.productA.ID, 1)

	code := "NOPE"
	input := f.checkoutInput(f.buyer, f.address)
	input.CouponCode = &code
	_, err := f.svc.CreateOrder(ctx, input)
	require.True(t, pkgerrors.HasReason(err, coupons.ReasonUnknownCode), "got %v", err)
	require.Equal(t, 10, f.onHand(f.productA.ID))
}

func TestCreateOrderValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.CreateOrder(ctx, f.checkoutInput(f.buyer, f.address))
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonEmptyCart), "got %v", err)

	stranger := &models.User{ID: uuid.New()}
	f.addToCart(stranger.ID, f.productA.ID, 1)
	_, err = f.svc.CreateOrder(ctx, f.checkoutInput(stranger, f.address))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	_, otherAddress := f.newBuyer("other@example.com", "US")
	f.addToCart(f.buyer.ID, f.productA.ID, 1)
	_, err = f.svc.CreateOrder(ctx, f.checkoutInput(f.buyer, otherAddress))
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonInvalidAddress), "got %v", err)

	input := f.checkoutInput(f.buyer, f.address)
	input.PaymentMethod = "barter"
	_, err = f.svc.CreateOrder(ctx, input)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	require.NoError(t, f.client.DB().Model(&models.Product{}).
		Where("id = ?", f.productA.ID).Update("is_active", false).Error)
	_, err = f.svc.CreateOrder(ctx, f.checkoutInput(f.buyer, f.address))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
	require.Equal(t, 10, f.onHand(f.productA.ID))
}

func TestCancelOrderReturnsStockAndEmitsEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := f.placeOrder()
	require.Equal(t, 9, f.onHand(f.productA.ID))

	result, err := f.svc.CancelOrder(ctx, CancelOrderInput{OrderID: order.ID, ActorID: f.buyer.ID, Reason: "changed my mind"})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, result.Order.Status)
	require.Equal(t, 10, f.onHand(f.productA.ID))
	require.Len(t, result.Events, 1)
	require.Equal(t, enums.EventOrderStatusChanged, result.Events[0].EventType)
	payload := result.Events[0].Data.(payloads.OrderStatusChangedEvent)
	require.Equal(t, enums.OrderStatusPending, payload.OldStatus)
	require.Equal(t, enums.OrderStatusCancelled, payload.NewStatus)

	stored, err := f.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, stored.Status)
	require.NotNil(t, stored.CancelledAt)
	require.Equal(t, "changed my mind", *stored.CancelReason)

	_, err = f.svc.CancelOrder(ctx, CancelOrderInput{OrderID: order.ID, ActorID: f.buyer.ID})
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonInvalidStateTransition))
	require.Equal(t, 10, f.onHand(f.productA.ID), "second cancel must not credit again")

	history, err := f.svc.History(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
}

func TestCancelOrderOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := f.placeOrder()

	_, err := f.svc.CancelOrder(ctx, CancelOrderInput{OrderID: order.ID, ActorID: uuid.New()})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.CancelOrder(ctx, CancelOrderInput{OrderID: order.ID, ActorID: uuid.New(), IsAdmin: true})
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(ctx, CancelOrderInput{OrderID: uuid.New(), ActorID: f.buyer.ID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCancelPaidOrderMarksRefunded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := f.placeOrder()
	_, err := f.svc.repo.TransitionPayment(ctx, order.ID, enums.PaymentStatusPending, map[string]any{"payment_status": enums.PaymentStatusPaid})
	require.NoError(t, err)
	stored, err := f.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NoError(t, f.ledger.AccrueOrder(ctx, f.client.DB(), stored))

	result, err := f.svc.CancelOrder(ctx, CancelOrderInput{OrderID: order.ID, ActorID: f.buyer.ID})
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusRefunded, result.Order.PaymentStatus)

	balance, err := f.ledger.Balance(ctx, f.productA.VendorID)
	require.NoError(t, err)
	require.True(t, balance.IsZero(), "vendor payout reversed, got %s", balance)
}

func TestUpdateOrderStatusWalksFulfillment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := f.placeOrder()
	admin := uuid.New()

	_, err := f.svc.UpdateOrderStatus(ctx, UpdateStatusInput{OrderID: order.ID, NewStatus: enums.OrderStatusShipped, ActorID: admin})
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonInvalidStateTransition))

	for _, status := range []enums.OrderStatus{enums.OrderStatusConfirmed, enums.OrderStatusProcessing} {
		_, err := f.svc.UpdateOrderStatus(ctx, UpdateStatusInput{OrderID: order.ID, NewStatus: status, ActorID: admin})
		require.NoError(t, err)
	}

	tracking, carrier := "1Z999", "UPS"
	result, err := f.svc.UpdateOrderStatus(ctx, UpdateStatusInput{
		OrderID: order.ID, NewStatus: enums.OrderStatusShipped, TrackingNumber: &tracking, Carrier: &carrier, ActorID: admin,
	})
	require.NoError(t, err)
	payload := result.Events[0].Data.(payloads.OrderStatusChangedEvent)
	require.Equal(t, "1Z999", payload.TrackingNumber)

	again, err := f.svc.UpdateOrderStatus(ctx, UpdateStatusInput{OrderID: order.ID, NewStatus: enums.OrderStatusShipped, ActorID: admin})
	require.NoError(t, err)
	require.Empty(t, again.Events, "re-applying the current status is a no-op")

	_, err = f.svc.UpdateOrderStatus(ctx, UpdateStatusInput{OrderID: order.ID, NewStatus: enums.OrderStatusDelivered, ActorID: admin})
	require.NoError(t, err)

	stored, err := f.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusDelivered, stored.Status)
	require.Equal(t, "UPS", *stored.Carrier)
	require.NotNil(t, stored.ShippedAt)
	require.NotNil(t, stored.DeliveredAt)

	_, err = f.svc.UpdateOrderStatus(ctx, UpdateStatusInput{OrderID: order.ID, NewStatus: enums.OrderStatusCancelled, ActorID: admin})
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonInvalidStateTransition))

	history, err := f.svc.History(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 5)
}

func TestUpdateOrderStatusCancelRoutesThroughCancellation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := f.placeOrder()

	result, err := f.svc.UpdateOrderStatus(ctx, UpdateStatusInput{OrderID: order.ID, NewStatus: enums.OrderStatusCancelled, ActorID: uuid.New()})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, result.Order.Status)
	require.Equal(t, 10, f.onHand(f.productA.ID))
}

func TestListBuyerOrdersPaginates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	placed := []*models.Order{f.placeOrder(), f.placeOrder(), f.placeOrder()}

	first, err := f.svc.ListBuyerOrders(ctx, f.buyer.ID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := f.svc.ListBuyerOrders(ctx, f.buyer.ID, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	require.Empty(t, second.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, o := range append(first.Items, second.Items...) {
		seen[o.ID] = true
	}
	for _, o := range placed {
		require.True(t, seen[o.ID], "order %s missing from pages", o.OrderNumber)
	}

	_, err = f.svc.ListBuyerOrders(ctx, f.buyer.ID, pagination.Params{Cursor: "%%%"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestExpireUnpaidOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := f.placeOrder()

	none, err := f.svc.ExpireUnpaidOrders(ctx, time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Zero(t, none.Cancelled)

	result, err := f.svc.ExpireUnpaidOrders(ctx, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	require.Equal(t, 1, result.Cancelled)
	require.Len(t, result.Events, 1)

	stored, err := f.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, stored.Status)
	require.Equal(t, 10, f.onHand(f.productA.ID))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected error for empty params")
	}
}

package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketplace-engine/internal/catalog"
	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
	"github.com/angelmondragon/marketplace-engine/pkg/logger"
	"github.com/angelmondragon/marketplace-engine/pkg/money"
)

type catalogLookup interface {
	Lookup(ctx context.Context, productID, variantID uuid.UUID) (*catalog.Snapshot, error)
}

type stockChecker interface {
	CheckAvailability(ctx context.Context, productID, variantID uuid.UUID, qty int) (bool, error)
}

// Service manages the buyer's single active cart.
type Service interface {
	GetCart(ctx context.Context, buyerID uuid.UUID) (*View, error)
	AddToCart(ctx context.Context, input AddItemInput) (*View, error)
	UpdateCartItem(ctx context.Context, input UpdateItemInput) (*View, error)
	RemoveCartItem(ctx context.Context, buyerID, productID, variantID uuid.UUID) (*View, error)
	ClearCart(ctx context.Context, buyerID uuid.UUID) error
	RemoveOrderedWithTx(ctx context.Context, tx *gorm.DB, buyerID uuid.UUID, ordered []models.CartItem) error
}

// AddItemInput adds Quantity units of a product to the buyer's cart.
type AddItemInput struct {
	BuyerID   uuid.UUID
	ProductID uuid.UUID
	VariantID uuid.UUID
	Quantity  int
}

// UpdateItemInput replaces the quantity of an existing line.
type UpdateItemInput struct {
	BuyerID   uuid.UUID
	ProductID uuid.UUID
	VariantID uuid.UUID
	Quantity  int
}

// View is a cart with its snapshot subtotal.
type View struct {
	CartID   uuid.UUID
	BuyerID  uuid.UUID
	Items    []models.CartItem
	Subtotal decimal.Decimal
}

type service struct {
	repo    Repository
	catalog catalogLookup
	stock   stockChecker
	logg    *logger.Logger
}

func NewService(repo Repository, catalog catalogLookup, stock stockChecker, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog lookup required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock checker required")
	}
	return &service{repo: repo, catalog: catalog, stock: stock, logg: logg}, nil
}

func (s *service) GetCart(ctx context.Context, buyerID uuid.UUID) (*View, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	cart, err := s.repo.FindByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart == nil {
		return &View{BuyerID: buyerID, Items: []models.CartItem{}, Subtotal: decimal.Zero}, nil
	}
	return newView(cart), nil
}

func (s *service) AddToCart(ctx context.Context, input AddItemInput) (*View, error) {
	if err := validateLine(input.BuyerID, input.ProductID, input.Quantity); err != nil {
		return nil, err
	}
	snap, err := s.catalog.Lookup(ctx, input.ProductID, input.VariantID)
	if err != nil {
		return nil, err
	}
	if !snap.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %s is not available", input.ProductID))
	}

	cart, err := s.repo.GetOrCreate(ctx, input.BuyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	existing, err := s.repo.FindItem(ctx, cart.ID, input.ProductID, input.VariantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	wanted := input.Quantity
	if existing != nil {
		wanted += existing.Quantity
	}
	if err := s.ensureStock(ctx, input.ProductID, input.VariantID, wanted); err != nil {
		return nil, err
	}

	item := &models.CartItem{
		CartID:    cart.ID,
		ProductID: input.ProductID,
		VariantID: input.VariantID,
		Quantity:  input.Quantity,
		UnitPrice: snap.Price,
	}
	if err := s.repo.AddItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}
	return s.GetCart(ctx, input.BuyerID)
}

func (s *service) UpdateCartItem(ctx context.Context, input UpdateItemInput) (*View, error) {
	if err := validateLine(input.BuyerID, input.ProductID, input.Quantity); err != nil {
		return nil, err
	}
	cart, err := s.repo.FindByBuyer(ctx, input.BuyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart == nil {
		return nil, lineNotFound(input.ProductID)
	}
	if err := s.ensureStock(ctx, input.ProductID, input.VariantID, input.Quantity); err != nil {
		return nil, err
	}
	updated, err := s.repo.SetItemQuantity(ctx, cart.ID, input.ProductID, input.VariantID, input.Quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	if !updated {
		return nil, lineNotFound(input.ProductID)
	}
	return s.GetCart(ctx, input.BuyerID)
}

func (s *service) RemoveCartItem(ctx context.Context, buyerID, productID, variantID uuid.UUID) (*View, error) {
	cart, err := s.repo.FindByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart == nil {
		return nil, lineNotFound(productID)
	}
	removed, err := s.repo.DeleteItem(ctx, cart.ID, productID, variantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if !removed {
		return nil, lineNotFound(productID)
	}
	return s.GetCart(ctx, buyerID)
}

// ClearCart empties the buyer's cart. A missing cart is not an error.
func (s *service) ClearCart(ctx context.Context, buyerID uuid.UUID) error {
	cart, err := s.repo.FindByBuyer(ctx, buyerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart == nil {
		return nil
	}
	if err := s.repo.ClearItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// RemoveOrderedWithTx takes the ordered quantities out of the buyer's cart
// inside tx. Lines added after the order snapshot stay, and a line whose
// quantity grew keeps the difference.
func (s *service) RemoveOrderedWithTx(ctx context.Context, tx *gorm.DB, buyerID uuid.UUID, ordered []models.CartItem) error {
	repo := s.repo.WithTx(tx)
	cart, err := repo.FindByBuyer(ctx, buyerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart == nil {
		return nil
	}
	for _, item := range ordered {
		current, err := repo.FindItem(ctx, cart.ID, item.ProductID, item.VariantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}
		if current == nil {
			continue
		}
		if current.Quantity > item.Quantity {
			if _, err := repo.SetItemQuantity(ctx, cart.ID, item.ProductID, item.VariantID, current.Quantity-item.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
			}
			continue
		}
		if _, err := repo.DeleteItem(ctx, cart.ID, item.ProductID, item.VariantID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
		}
	}
	return nil
}

func (s *service) ensureStock(ctx context.Context, productID, variantID uuid.UUID, qty int) error {
	ok, err := s.stock.CheckAvailability(ctx, productID, variantID, qty)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.Reject(pkgerrors.CodeConflict, pkgerrors.ReasonInsufficientStock, fmt.Sprintf("insufficient stock for product %s", productID)).
			WithDetails(map[string]any{
				"reason":     pkgerrors.ReasonInsufficientStock,
				"product_id": productID.String(),
				"variant_id": variantID.String(),
				"requested":  qty,
			})
	}
	return nil
}

func newView(cart *models.Cart) *View {
	items := cart.Items
	if items == nil {
		items = []models.CartItem{}
	}
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return &View{
		CartID:   cart.ID,
		BuyerID:  cart.BuyerID,
		Items:    items,
		Subtotal: money.Round(subtotal),
	}
}

func validateLine(buyerID, productID uuid.UUID, qty int) error {
	if buyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty <= 0 {
		return pkgerrors.Reject(pkgerrors.CodeValidation, pkgerrors.ReasonInvalidQuantity, "quantity must be positive")
	}
	return nil
}

func lineNotFound(productID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("cart line for product %s not found", productID))
}

// IsEmpty reports whether v has no lines.
func (v *View) IsEmpty() bool {
	return v == nil || len(v.Items) == 0
}

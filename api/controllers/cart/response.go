package cart

import (
	"github.com/shopspring/decimal"

	cartdto "github.com/angelmondragon/marketplace-engine/api/controllers/cart/dto"
	cartsvc "github.com/angelmondragon/marketplace-engine/internal/cart"
	"github.com/angelmondragon/marketplace-engine/pkg/money"
)

func newCart(view *cartsvc.View) cartdto.Cart {
	items := make([]cartdto.CartItem, 0, len(view.Items))
	count := 0
	for _, item := range view.Items {
		count += item.Quantity
		items = append(items, cartdto.CartItem{
			ID:        item.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: money.Format(item.UnitPrice),
			LineTotal: money.Format(money.Round(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))),
			UpdatedAt: item.UpdatedAt,
		})
	}
	return cartdto.Cart{
		ID:        view.CartID,
		BuyerID:   view.BuyerID,
		Items:     items,
		ItemCount: count,
		Subtotal:  money.Format(view.Subtotal),
	}
}

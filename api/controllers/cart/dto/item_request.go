package cartdto

// ItemRequest identifies a cart line and the desired quantity.
type ItemRequest struct {
	ProductID string  `json:"product_id" validate:"required,uuid"`
	VariantID *string `json:"variant_id,omitempty" validate:"omitempty,uuid"`
	Quantity  int     `json:"quantity" validate:"required,min=1,max=1000"`
}

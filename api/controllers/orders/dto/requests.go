package orderdto

type CreateOrderRequest struct {
	ShippingAddressID string  `json:"shipping_address_id" validate:"required,uuid"`
	BillingAddressID  string  `json:"billing_address_id" validate:"required,uuid"`
	PaymentMethod     string  `json:"payment_method" validate:"required"`
	CouponCode        *string `json:"coupon_code,omitempty" validate:"omitempty,max=64"`
	CustomerNote      *string `json:"customer_note,omitempty" validate:"omitempty,max=1000"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type ReturnRequest struct {
	OrderLineID string `json:"order_line_id" validate:"required,uuid"`
	Reason      string `json:"reason" validate:"required"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Amount      string `json:"amount" validate:"required"`
	Quantity    int    `json:"quantity" validate:"omitempty,min=1"`
}

type UpdateStatusRequest struct {
	Status         string  `json:"status" validate:"required"`
	TrackingNumber *string `json:"tracking_number,omitempty" validate:"omitempty,max=128"`
	Carrier        *string `json:"carrier,omitempty" validate:"omitempty,max=64"`
	Note           *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

type RecordPaymentRequest struct {
	ExternalRef   string  `json:"external_ref" validate:"required,max=128"`
	Amount        string  `json:"amount" validate:"required"`
	Currency      string  `json:"currency" validate:"omitempty,len=3"`
	Method        string  `json:"method" validate:"required"`
	Outcome       string  `json:"outcome" validate:"required"`
	FailureReason *string `json:"failure_reason,omitempty" validate:"omitempty,max=500"`
}

type RecordRefundRequest struct {
	Amount      string  `json:"amount" validate:"required"`
	Reason      string  `json:"reason" validate:"omitempty,max=500"`
	OrderLineID *string `json:"order_line_id,omitempty" validate:"omitempty,uuid"`
}

type DecideReturnRequest struct {
	Approve   *bool   `json:"approve" validate:"required"`
	AdminNote *string `json:"admin_note,omitempty" validate:"omitempty,max=1000"`
}

package payment

type InitPaymentRequest struct {
	BookingRef  string `json:"booking_ref" binding:"required"`
	Description string `json:"description"`
}

type InitPaymentResponse struct {
	InvID      int64  `json:"inv_id"`
	PaymentURL string `json:"payment_url"`
	Signature  string `json:"signature"`
	Status     string `json:"status"`
}

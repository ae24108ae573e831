package transport

type CreatePaymentIntentRequest struct {
	BookingID string  `json:"bookingId" validate:"required,uuid"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
}

type PaymentIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

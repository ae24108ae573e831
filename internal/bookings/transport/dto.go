package transport

import "time"

type CreateBookingRequest struct {
	VehicleID string `json:"vehicleId" validate:"required,uuid"`
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
}

type BookingResponse struct {
	ID          string    `json:"id"`
	VehicleID   string    `json:"vehicleId"`
	RenterID    string    `json:"renterId"`
	StartDate   string    `json:"startDate"`
	EndDate     string    `json:"endDate"`
	TotalAmount float64   `json:"totalAmount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

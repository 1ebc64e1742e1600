package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/domain/booking"
	"github.com/servicebook/backend/internal/domain/identity"
	"github.com/shopspring/decimal"
)

// dateLayout is the wire format of preferred dates
const dateLayout = "2006-01-02"

// CreateBookingRequest represents a request to create a booking
type CreateBookingRequest struct {
	CustomerID    *uuid.UUID `json:"customer_id"`
	VariantID     uuid.UUID  `json:"variant_id" binding:"required"`
	Quantity      int64      `json:"quantity" binding:"required,min=1"`
	PriceType     string     `json:"price_type" binding:"omitempty,oneof=free_install with_install"`
	PreferredDate string     `json:"preferred_date" binding:"required"`
	PreferredTime string     `json:"preferred_time" binding:"required"`
	Address       string     `json:"address" binding:"required,max=500"`
	Description   string     `json:"description" binding:"max=2000"`
}

// UpdateBookingRequest is a partial update of a booking. Omitted fields are
// unchanged. Quantity is applied before status.
type UpdateBookingRequest struct {
	Status        *string      `json:"status" binding:"omitempty,oneof=pending confirmed in-progress completed cancelled"`
	Quantity      *int64       `json:"quantity" binding:"omitempty,min=1"`
	PreferredDate *string      `json:"preferred_date"`
	PreferredTime *string      `json:"preferred_time"`
	PriceType     *string      `json:"price_type" binding:"omitempty,oneof=free_install with_install"`
	Description   *string      `json:"description" binding:"omitempty,max=2000"`
	Technicians   *[]uuid.UUID `json:"technicians"`
}

// ListBookingsRequest filters booking listings
type ListBookingsRequest struct {
	Status     string `form:"status" binding:"omitempty,oneof=pending confirmed in-progress completed cancelled"`
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	VariantID  string `form:"variant_id" binding:"omitempty,uuid"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string `form:"order_by" binding:"omitempty,oneof=created_at preferred_date status quantity"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// BookingResponse represents a booking in API responses
type BookingResponse struct {
	ID            uuid.UUID       `json:"id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	VariantID     uuid.UUID       `json:"variant_id"`
	Quantity      int64           `json:"quantity"`
	Status        string          `json:"status"`
	PriceType     string          `json:"price_type"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PreferredDate string          `json:"preferred_date"`
	PreferredTime string          `json:"preferred_time"`
	Address       string          `json:"address"`
	Description   string          `json:"description"`
	StockDeducted bool            `json:"stock_deducted"`
	Technicians   []uuid.UUID     `json:"technicians"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// StatsResponse counts bookings per status
type StatsResponse struct {
	Total      int64            `json:"total"`
	Active     int64            `json:"active"`
	ByStatus   map[string]int64 `json:"by_status"`
	CustomerID *uuid.UUID       `json:"customer_id,omitempty"`
}

// TechnicianResponse represents a technician account
type TechnicianResponse struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
}

// ToBookingResponse converts a domain Booking to BookingResponse
func ToBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		CustomerID:    b.CustomerID,
		VariantID:     b.VariantID,
		Quantity:      b.Quantity,
		Status:        string(b.Status),
		PriceType:     string(b.PriceType),
		UnitPrice:     b.UnitPrice,
		TotalAmount:   b.TotalAmount(),
		PreferredDate: b.PreferredDate.Format(dateLayout),
		PreferredTime: b.PreferredTime,
		Address:       b.Address,
		Description:   b.Description,
		StockDeducted: b.StockDeducted,
		Technicians:   b.TechnicianIDs(),
		Version:       b.Version,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

// ToBookingResponses converts a slice of bookings
func ToBookingResponses(bookings []booking.Booking) []BookingResponse {
	out := make([]BookingResponse, len(bookings))
	for i := range bookings {
		out[i] = ToBookingResponse(&bookings[i])
	}
	return out
}

// ToTechnicianResponse converts a technician account
func ToTechnicianResponse(u *identity.User) TechnicianResponse {
	return TechnicianResponse{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.GetDisplayNameOrUsername(),
		Email:       u.Email,
		Phone:       u.Phone,
	}
}

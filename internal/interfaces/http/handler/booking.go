package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/application/booking"
)

// BookingHandler serves the booking engine to customers and administrators
type BookingHandler struct {
	BaseHandler
	bookingService *booking.Service
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookingService *booking.Service) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// Create godoc
// @ID           createBooking
// @Summary      Create a booking
// @Description  Creates a pending booking. Customers book for themselves; administrators may set customer_id. Send an Idempotency-Key header to make retries safe.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client generated key, unique per booking attempt"
// @Param        request body booking.CreateBookingRequest true "Booking"
// @Success      201 {object} APIResponse[booking.BookingResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var req booking.CreateBookingRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.Address = normalizeText(req.Address)
	req.Description = normalizeText(req.Description)

	resp, err := h.bookingService.Create(c.Request.Context(), principal, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListMine godoc
// @ID           listMyBookings
// @Summary      List my bookings
// @Tags         bookings
// @Produce      json
// @Param        status query string false "Status filter" Enums(pending, confirmed, in-progress, completed, cancelled)
// @Param        variant_id query string false "Variant filter"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        order_by query string false "Sort field" Enums(created_at, preferred_date, status, quantity)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]booking.BookingResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bookings/mine [get]
func (h *BookingHandler) ListMine(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var req booking.ListBookingsRequest
	if !h.bindQuery(c, &req) {
		return
	}

	page, err := h.bookingService.ListMine(c.Request.Context(), principal, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get godoc
// @ID           getBooking
// @Summary      Get a booking
// @Description  Customers see only their own bookings and technicians only those assigned to them
// @Tags         bookings
// @Produce      json
// @Param        id path string true "Booking ID" format(uuid)
// @Success      200 {object} APIResponse[booking.BookingResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	resp, err := h.bookingService.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel godoc
// @ID           cancelBooking
// @Summary      Cancel my booking
// @Description  Cancels a pending or confirmed booking of the caller. Deducted stock is restored.
// @Tags         bookings
// @Produce      json
// @Param        id path string true "Booking ID" format(uuid)
// @Success      200 {object} APIResponse[booking.BookingResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	resp, err := h.bookingService.CancelOwn(c.Request.Context(), principal, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Stats godoc
// @ID           bookingStats
// @Summary      Booking counts per status
// @Description  Customers get their own counts. Administrators get system-wide counts, or one customer's with customer_id.
// @Tags         bookings
// @Produce      json
// @Param        customer_id query string false "Customer filter (admin only)" format(uuid)
// @Success      200 {object} APIResponse[booking.StatsResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bookings/stats [get]
func (h *BookingHandler) Stats(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var customerID *uuid.UUID
	if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid customer_id")
			return
		}
		customerID = &id
	}

	resp, err := h.bookingService.Stats(c.Request.Context(), principal, customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListAll godoc
// @ID           listAllBookings
// @Summary      List all bookings
// @Tags         admin
// @Produce      json
// @Param        status query string false "Status filter" Enums(pending, confirmed, in-progress, completed, cancelled)
// @Param        customer_id query string false "Customer filter" format(uuid)
// @Param        variant_id query string false "Variant filter" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        order_by query string false "Sort field" Enums(created_at, preferred_date, status, quantity)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]booking.BookingResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/bookings [get]
func (h *BookingHandler) ListAll(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var req booking.ListBookingsRequest
	if !h.bindQuery(c, &req) {
		return
	}

	page, err := h.bookingService.ListAll(c.Request.Context(), principal, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Update godoc
// @ID           updateBooking
// @Summary      Confirm or update a booking
// @Description  Partial update. Quantity is applied before status. Entering confirmed deducts stock; cancelling a confirmed booking restores it.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id path string true "Booking ID" format(uuid)
// @Param        request body booking.UpdateBookingRequest true "Patch"
// @Success      200 {object} APIResponse[booking.BookingResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/bookings/{id} [patch]
func (h *BookingHandler) Update(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req booking.UpdateBookingRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.Description = normalizeTextPtr(req.Description)

	resp, err := h.bookingService.ConfirmOrUpdate(c.Request.Context(), principal, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete godoc
// @ID           deleteBooking
// @Summary      Delete a booking
// @Description  Removes the booking. Stock held by a confirmed or in-progress booking is returned to the default warehouse.
// @Tags         admin
// @Param        id path string true "Booking ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/bookings/{id} [delete]
func (h *BookingHandler) Delete(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.bookingService.Delete(c.Request.Context(), principal, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListTechnicians godoc
// @ID           listTechnicians
// @Summary      List technicians
// @Tags         bookings
// @Produce      json
// @Success      200 {object} APIResponse[[]booking.TechnicianResponse]
// @Security     BearerAuth
// @Router       /technicians [get]
func (h *BookingHandler) ListTechnicians(c *gin.Context) {
	technicians, err := h.bookingService.ListTechnicians(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, technicians)
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/agrirent/service-booking/internal/application"
	bookingDomain "github.com/agrirent/service-booking/internal/domain/booking"
	"github.com/agrirent/service-booking/internal/platform/auth"
	"github.com/agrirent/service-booking/internal/platform/middleware"
	"github.com/agrirent/service-booking/internal/platform/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BookingHandler handles HTTP requests for booking lifecycle operations.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", middleware.RequireRole(auth.RoleFarmer), h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/decide", middleware.RequireRole(auth.RoleOperator), h.DecideBooking)
		bookings.POST("/:id/track", middleware.RequireRole(auth.RoleOperator), h.TrackJob)
	}

	payments := r.Group("/api/v1/payments")
	payments.Use(authMW)
	{
		payments.POST("/confirm", middleware.RequireRole(auth.RoleFarmer), h.ConfirmPayment)
	}

	summaries := r.Group("/api/v1")
	summaries.Use(authMW)
	{
		summaries.GET("/operators/me/earnings", middleware.RequireRole(auth.RoleOperator), h.GetEarnings)
		summaries.GET("/farmers/me/dues", middleware.RequireRole(auth.RoleFarmer), h.GetDues)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	farmerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), farmerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookings handles GET /api/v1/bookings. Farmers see their own
// bookings, operators their assigned jobs, admins everything.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	role, ok := middleware.GetUserRole(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, limit := parsePagination(c)

	switch role {
	case auth.RoleOperator:
		result, err := h.service.GetOperatorJobs(c.Request.Context(), userID, page, limit)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)

	case auth.RoleAdmin:
		items, total, err := h.service.ListAllBookings(c.Request.Context(), page, limit)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Paginated(c, items, total, page, limit)

	default:
		result, err := h.service.GetFarmerBookings(c.Request.Context(), userID, page, limit)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
	}
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	role, _ := middleware.GetUserRole(c)

	result, err := h.service.GetBooking(c.Request.Context(), userID, role == auth.RoleAdmin, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DecideBooking handles POST /api/v1/bookings/:id/decide.
func (h *BookingHandler) DecideBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	operatorID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body struct {
		Action string `json:"action" binding:"required,oneof=accept reject"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.DecideBooking(c.Request.Context(), operatorID, bookingID, body.Action)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// TrackJob handles POST /api/v1/bookings/:id/track. The client captures
// device coordinates and sends them with the action; missing or bogus
// coordinates abort the transition.
func (h *BookingHandler) TrackJob(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	operatorID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body struct {
		Action    string  `json:"action" binding:"required,oneof=start finish"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resolver := bookingDomain.ResolverFor(body.Latitude, body.Longitude)

	var result *application.BookingDTO
	if body.Action == "start" {
		result, err = h.service.StartJob(c.Request.Context(), operatorID, bookingID, resolver)
	} else {
		result, err = h.service.FinishJob(c.Request.Context(), operatorID, bookingID, resolver)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ConfirmPayment handles POST /api/v1/payments/confirm.
func (h *BookingHandler) ConfirmPayment(c *gin.Context) {
	farmerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body struct {
		BookingRef  string `json:"booking_ref" binding:"required"`
		PaymentMode string `json:"payment_mode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ConfirmPayment(c.Request.Context(), farmerID, body.BookingRef, body.PaymentMode)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetEarnings handles GET /api/v1/operators/me/earnings.
func (h *BookingHandler) GetEarnings(c *gin.Context) {
	operatorID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetOperatorEarnings(c.Request.Context(), operatorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetDues handles GET /api/v1/farmers/me/dues.
func (h *BookingHandler) GetDues(c *gin.Context) {
	farmerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetFarmerDues(c.Request.Context(), farmerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}

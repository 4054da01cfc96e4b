package handler

import (
	"net/http"

	"github.com/agrirent/service-booking/internal/application"
	"github.com/agrirent/service-booking/internal/platform/auth"
	"github.com/agrirent/service-booking/internal/platform/middleware"
	"github.com/agrirent/service-booking/internal/platform/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MachineHandler handles HTTP requests for the machine catalogue.
type MachineHandler struct {
	service *application.MachineService
}

// NewMachineHandler creates a new MachineHandler.
func NewMachineHandler(service *application.MachineService) *MachineHandler {
	return &MachineHandler{service: service}
}

// RegisterRoutes registers all machine routes on the given router group.
func (h *MachineHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	machines := r.Group("/api/v1/machines")
	machines.Use(authMW)
	{
		machines.POST("", middleware.RequireRole(auth.RoleOperator), h.AddMachine)
		machines.GET("", h.ListAvailable)
		machines.GET("/mine", middleware.RequireRole(auth.RoleOperator), h.ListMine)
		machines.PUT("/:id", middleware.RequireRole(auth.RoleOperator), h.UpdateMachine)
		machines.DELETE("/:id", middleware.RequireRole(auth.RoleOperator), h.DeleteMachine)
		machines.POST("/:id/availability", middleware.RequireRole(auth.RoleOperator), h.SetAvailability)
	}
}

// AddMachine handles POST /api/v1/machines.
func (h *MachineHandler) AddMachine(c *gin.Context) {
	operatorID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.MachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.AddMachine(c.Request.Context(), operatorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListAvailable handles GET /api/v1/machines (farmer browse).
func (h *MachineHandler) ListAvailable(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListAvailableMachines(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// ListMine handles GET /api/v1/machines/mine.
func (h *MachineHandler) ListMine(c *gin.Context) {
	operatorID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetOperatorMachines(c.Request.Context(), operatorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateMachine handles PUT /api/v1/machines/:id.
func (h *MachineHandler) UpdateMachine(c *gin.Context) {
	machineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid machine ID")
		return
	}

	operatorID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.MachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateMachine(c.Request.Context(), operatorID, machineID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteMachine handles DELETE /api/v1/machines/:id.
func (h *MachineHandler) DeleteMachine(c *gin.Context) {
	machineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid machine ID")
		return
	}

	operatorID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.service.DeleteMachine(c.Request.Context(), operatorID, machineID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": machineID})
}

// SetAvailability handles POST /api/v1/machines/:id/availability.
func (h *MachineHandler) SetAvailability(c *gin.Context) {
	machineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid machine ID")
		return
	}

	operatorID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body struct {
		Status string `json:"status" binding:"required,oneof=Available Offline"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.SetAvailability(c.Request.Context(), operatorID, machineID, body.Status == "Available")
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/timeplus-io/soc-dashboard/pkg/models"
	"github.com/timeplus-io/soc-dashboard/pkg/services"
)

const userContextKey = "user"

// APIHandler handles HTTP API requests
type APIHandler struct {
	incidentService *services.IncidentService
	authService     *services.AuthService
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(incidentService *services.IncidentService, authService *services.AuthService) *APIHandler {
	return &APIHandler{
		incidentService: incidentService,
		authService:     authService,
	}
}

func errorJSON(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"error": message})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrIncidentNotFound),
		errors.Is(err, services.ErrAlertNotFound),
		errors.Is(err, services.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// requirePermission rejects requests without a session or without resource:action
func (h *APIHandler) requirePermission(resource, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := h.authService.GetCurrentUser()
			if user == nil {
				return errorJSON(c, http.StatusUnauthorized, "Not logged in")
			}
			if !h.authService.HasPermission(user, resource, action) {
				return errorJSON(c, http.StatusForbidden, "Permission denied")
			}
			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

func (h *APIHandler) requireUserManager(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := h.authService.GetCurrentUser()
		if user == nil {
			return errorJSON(c, http.StatusUnauthorized, "Not logged in")
		}
		if !h.authService.CanManageUsers(user) {
			return errorJSON(c, http.StatusForbidden, "Permission denied")
		}
		c.Set(userContextKey, user)
		return next(c)
	}
}

// Login starts a session
func (h *APIHandler) Login(c echo.Context) error {
	var creds models.LoginCredentials
	if err := c.Bind(&creds); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request format")
	}

	user, err := h.authService.Login(creds)
	if err != nil {
		return errorJSON(c, statusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, user)
}

// Logout ends the current session
func (h *APIHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(); err != nil {
		logrus.Errorf("Error logging out: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to log out")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
}

// Me returns the current user
func (h *APIHandler) Me(c echo.Context) error {
	user := h.authService.GetCurrentUser()
	if user == nil {
		return errorJSON(c, http.StatusUnauthorized, "Not logged in")
	}
	return c.JSON(http.StatusOK, user)
}

// GetDashboard returns every collection in one snapshot
func (h *APIHandler) GetDashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, h.incidentService.Snapshot())
}

// GetIncidents returns all incidents, newest first
func (h *APIHandler) GetIncidents(c echo.Context) error {
	return c.JSON(http.StatusOK, h.incidentService.Incidents())
}

// ResolveIncident marks an incident resolved
func (h *APIHandler) ResolveIncident(c echo.Context) error {
	id := c.Param("id")
	incident, err := h.incidentService.ResolveIncident(id)
	if err != nil {
		logrus.Errorf("Error resolving incident %s: %v", id, err)
		return errorJSON(c, statusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, incident)
}

// GetAlerts returns all alerts with their correlation
func (h *APIHandler) GetAlerts(c echo.Context) error {
	return c.JSON(http.StatusOK, h.incidentService.Alerts())
}

// AcknowledgeAlert acknowledges an alert
func (h *APIHandler) AcknowledgeAlert(c echo.Context) error {
	id := c.Param("id")
	alert, err := h.incidentService.AcknowledgeAlert(id)
	if err != nil {
		logrus.Errorf("Error acknowledging alert %s: %v", id, err)
		return errorJSON(c, statusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, alert)
}

func (h *APIHandler) GetTraffic(c echo.Context) error {
	return c.JSON(http.StatusOK, h.incidentService.NetworkTraffic())
}

func (h *APIHandler) GetThreats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.incidentService.ThreatDetections())
}

func (h *APIHandler) GetAnomalies(c echo.Context) error {
	return c.JSON(http.StatusOK, h.incidentService.Anomalies())
}

func (h *APIHandler) GetSystemStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.incidentService.SystemStatus())
}

// GetMonitoring reports whether the feeds are running
func (h *APIHandler) GetMonitoring(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"isMonitoring": h.incidentService.IsMonitoring()})
}

// ToggleMonitoring pauses or resumes all feeds
func (h *APIHandler) ToggleMonitoring(c echo.Context) error {
	monitoring := h.incidentService.ToggleMonitoring()
	user, _ := c.Get(userContextKey).(*models.User)
	if user != nil {
		logrus.Infof("Monitoring set to %t by %s", monitoring, user.Username)
	}
	return c.JSON(http.StatusOK, map[string]bool{"isMonitoring": monitoring})
}

// GetUsers returns all active users
func (h *APIHandler) GetUsers(c echo.Context) error {
	return c.JSON(http.StatusOK, h.authService.GetAllUsers())
}

// CreateUser creates a user on behalf of the current user
func (h *APIHandler) CreateUser(c echo.Context) error {
	var data models.CreateUserData
	if err := c.Bind(&data); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request format")
	}
	if data.Username == "" || data.Email == "" || data.RoleID == "" {
		return errorJSON(c, http.StatusBadRequest, "username, email and roleId are required")
	}

	creator := c.Get(userContextKey).(*models.User)
	user, err := h.authService.CreateUser(data, creator.ID)
	if err != nil {
		logrus.Errorf("Error creating user %s: %v", data.Username, err)
		return errorJSON(c, statusFor(err), err.Error())
	}
	return c.JSON(http.StatusCreated, user)
}

// UpdateUser applies a partial update
func (h *APIHandler) UpdateUser(c echo.Context) error {
	id := c.Param("id")
	var req models.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request format")
	}

	user, err := h.authService.UpdateUser(id, req)
	if err != nil {
		logrus.Errorf("Error updating user %s: %v", id, err)
		return errorJSON(c, statusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser deactivates a user
func (h *APIHandler) DeleteUser(c echo.Context) error {
	id := c.Param("id")
	if err := h.authService.DeleteUser(id); err != nil {
		logrus.Errorf("Error deleting user %s: %v", id, err)
		return errorJSON(c, statusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

// GetRoles returns the built-in roles
func (h *APIHandler) GetRoles(c echo.Context) error {
	return c.JSON(http.StatusOK, h.authService.GetAllRoles())
}

// SetupRoutes sets up the API routes
func (h *APIHandler) SetupRoutes(e *echo.Echo) {
	// Session endpoints
	e.POST("/api/auth/login", h.Login)
	e.POST("/api/auth/logout", h.Logout)
	e.GET("/api/auth/me", h.Me)

	read := h.requirePermission("dashboard", "read")

	// Dashboard endpoints
	e.GET("/api/dashboard", h.GetDashboard, read)
	e.GET("/api/incidents", h.GetIncidents, read)
	e.POST("/api/incidents/:id/resolve", h.ResolveIncident, h.requirePermission("incidents", "write"))
	e.GET("/api/alerts", h.GetAlerts, read)
	e.POST("/api/alerts/:id/acknowledge", h.AcknowledgeAlert, h.requirePermission("incidents", "read"))
	e.GET("/api/traffic", h.GetTraffic, read)
	e.GET("/api/threats", h.GetThreats, read)
	e.GET("/api/anomalies", h.GetAnomalies, read)
	e.GET("/api/system-status", h.GetSystemStatus, read)

	// Monitoring endpoints
	e.GET("/api/monitoring", h.GetMonitoring, read)
	e.POST("/api/monitoring/toggle", h.ToggleMonitoring, h.requirePermission("system", "write"))

	// User management endpoints
	e.GET("/api/users", h.GetUsers, h.requireUserManager)
	e.POST("/api/users", h.CreateUser, h.requireUserManager)
	e.PUT("/api/users/:id", h.UpdateUser, h.requireUserManager)
	e.DELETE("/api/users/:id", h.DeleteUser, h.requireUserManager)
	e.GET("/api/roles", h.GetRoles, h.requireUserManager)
}

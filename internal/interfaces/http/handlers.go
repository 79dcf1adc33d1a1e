package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/visitor-kiosk/internal/application/service"
	"github.com/garyjia/visitor-kiosk/internal/application/workflow"
	"github.com/garyjia/visitor-kiosk/internal/domain/entity"
	domainwf "github.com/garyjia/visitor-kiosk/internal/domain/workflow"
)

// actorHeader carries the acting guard or admin; authentication happens upstream
const actorHeader = "X-Actor"

// Handlers contains all HTTP request handlers
type Handlers struct {
	kiosk       *service.KioskService
	approvals   service.ApprovalService
	visits      service.VisitQueryService
	settings    service.SettingsService
	defaultSite string
	logger      Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, defaultSite string, logger Logger) *Handlers {
	return &Handlers{
		kiosk:       services.Kiosk,
		approvals:   services.Approval,
		visits:      services.Visits,
		settings:    services.Settings,
		defaultSite: defaultSite,
		logger:      logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status         string `json:"status"`
	Timestamp      string `json:"timestamp"`
	ActiveSessions int    `json:"activeSessions"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if h.kiosk != nil {
		resp.ActiveSessions = h.kiosk.Count()
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    resp,
	})
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

// fail writes the error envelope. data is attached when the caller still has
// useful state to show, such as a kiosk session that rejected an action.
func (h *Handlers) fail(c *gin.Context, err error, data interface{}) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"error", err,
		)
	}
	c.JSON(status, Response{
		Success: false,
		Data:    data,
		Error:   err.Error(),
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// statusFor maps application errors onto HTTP status codes
func statusFor(err error) int {
	var verr *entity.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrInvalidOTP), errors.Is(err, workflow.ErrTermsNotAccepted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, entity.ErrVisitNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrInvalidStatusTransition),
		errors.Is(err, entity.ErrStatusConflict),
		errors.Is(err, workflow.ErrWrongStep),
		errors.Is(err, workflow.ErrSessionEnded),
		errors.Is(err, workflow.ErrNothingToRetry),
		errors.Is(err, domainwf.ErrInvalidTransition):
		return http.StatusConflict
	case workflow.IsPersistence(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// bindOptionalJSON binds a JSON body when one is sent
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

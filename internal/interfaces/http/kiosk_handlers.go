package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/visitor-kiosk/internal/application/service"
)

type photoRequest struct {
	Photo string `json:"photo"`
}

type otpRequest struct {
	Code string `json:"code"`
}

type ndaRequest struct {
	Agreed bool `json:"agreed"`
}

type hostRequest struct {
	Approved bool `json:"approved"`
}

// StartSession handles POST /api/kiosk/sessions
func (h *Handlers) StartSession(c *gin.Context) {
	var req service.StartKioskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	state, err := h.kiosk.Start(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	ok(c, http.StatusCreated, state)
}

// GetSession handles GET /api/kiosk/sessions/:id
func (h *Handlers) GetSession(c *gin.Context) {
	state, err := h.kiosk.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	ok(c, http.StatusOK, state)
}

// CapturePhoto handles POST /api/kiosk/sessions/:id/photo
func (h *Handlers) CapturePhoto(c *gin.Context) {
	var req photoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	h.respondSession(c)(h.kiosk.CapturePhoto(c.Request.Context(), c.Param("id"), req.Photo))
}

// VerifyOTP handles POST /api/kiosk/sessions/:id/otp
func (h *Handlers) VerifyOTP(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	h.respondSession(c)(h.kiosk.VerifyOTP(c.Request.Context(), c.Param("id"), req.Code))
}

// AcceptNDA handles POST /api/kiosk/sessions/:id/nda
func (h *Handlers) AcceptNDA(c *gin.Context) {
	var req ndaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	h.respondSession(c)(h.kiosk.AcceptNDA(c.Request.Context(), c.Param("id"), req.Agreed))
}

// HostDecision handles POST /api/kiosk/sessions/:id/host
func (h *Handlers) HostDecision(c *gin.Context) {
	var req hostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	h.respondSession(c)(h.kiosk.HostDecision(c.Request.Context(), c.Param("id"), req.Approved))
}

// Back handles POST /api/kiosk/sessions/:id/back
func (h *Handlers) Back(c *gin.Context) {
	h.respondSession(c)(h.kiosk.Back(c.Request.Context(), c.Param("id")))
}

// Retry handles POST /api/kiosk/sessions/:id/retry
func (h *Handlers) Retry(c *gin.Context) {
	h.respondSession(c)(h.kiosk.Retry(c.Request.Context(), c.Param("id")))
}

// CancelSession handles DELETE /api/kiosk/sessions/:id
func (h *Handlers) CancelSession(c *gin.Context) {
	h.respondSession(c)(h.kiosk.Cancel(c.Request.Context(), c.Param("id")))
}

// respondSession writes the session state, attaching it to the error envelope
// when the action was refused.
func (h *Handlers) respondSession(c *gin.Context) func(*service.SessionState, error) {
	return func(state *service.SessionState, err error) {
		if err != nil {
			var data interface{}
			if state != nil {
				data = state
			}
			h.fail(c, err, data)
			return
		}
		ok(c, http.StatusOK, state)
	}
}

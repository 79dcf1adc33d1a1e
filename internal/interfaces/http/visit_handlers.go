package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/visitor-kiosk/internal/domain/entity"
)

type createVisitRequest struct {
	SiteID  string              `json:"siteId"`
	Visitor entity.VisitorDraft `json:"visitor"`
}

type approveRequest struct {
	Note string `json:"note"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type pageMeta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ListVisits handles GET /api/visits
func (h *Handlers) ListVisits(c *gin.Context) {
	filter, err := parseVisitFilter(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	page, err := h.visits.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    page.Visits,
		Meta:    pageMeta{Total: page.Total, Limit: page.Limit, Offset: page.Offset},
	})
}

// CreateVisit handles POST /api/visits (staffed desk check-in)
func (h *Handlers) CreateVisit(c *gin.Context) {
	var req createVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	siteID := strings.TrimSpace(req.SiteID)
	if siteID == "" {
		siteID = h.defaultSite
	}

	visit, err := h.approvals.CreateDeskVisit(c.Request.Context(), siteID, req.Visitor)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	ok(c, http.StatusCreated, visit)
}

// ExportVisits handles GET /api/visits/export. The workbook is built in memory
// so a failure can still be reported as JSON.
func (h *Handlers) ExportVisits(c *gin.Context) {
	filter, err := parseVisitFilter(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := h.visits.Export(c.Request.Context(), &buf, filter); err != nil {
		h.fail(c, err, nil)
		return
	}

	filename := fmt.Sprintf("visits-%s%s", time.Now().UTC().Format("20060102-150405"), h.visits.ExportFileExtension())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, h.visits.ExportContentType(), buf.Bytes())
}

// GetVisit handles GET /api/visits/:id
func (h *Handlers) GetVisit(c *gin.Context) {
	visit, err := h.visits.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	ok(c, http.StatusOK, visit)
}

// ApproveVisit handles PATCH /api/visits/:id/approve
func (h *Handlers) ApproveVisit(c *gin.Context) {
	var req approveRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	visit, err := h.approvals.Approve(c.Request.Context(), c.Param("id"), c.GetHeader(actorHeader), req.Note)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	ok(c, http.StatusOK, visit)
}

// RejectVisit handles PATCH /api/visits/:id/reject
func (h *Handlers) RejectVisit(c *gin.Context) {
	var req rejectRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	visit, err := h.approvals.Reject(c.Request.Context(), c.Param("id"), c.GetHeader(actorHeader), req.Reason)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	ok(c, http.StatusOK, visit)
}

// CheckOutVisit handles PATCH /api/visits/:id/checkout
func (h *Handlers) CheckOutVisit(c *gin.Context) {
	visit, err := h.approvals.CheckOut(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	ok(c, http.StatusOK, visit)
}

// GetSettings handles GET /api/sites/:siteId/settings
func (h *Handlers) GetSettings(c *gin.Context) {
	settings, err := h.settings.GetSettings(c.Request.Context(), c.Param("siteId"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	ok(c, http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/sites/:siteId/settings
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var policy entity.SecurityPolicy
	if err := c.ShouldBindJSON(&policy); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	settings, err := h.settings.UpdateSettings(c.Request.Context(), c.Param("siteId"), policy)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	ok(c, http.StatusOK, settings)
}

// parseVisitFilter reads status, siteId, from, to, limit and offset
func parseVisitFilter(c *gin.Context) (entity.VisitFilter, error) {
	filter := entity.VisitFilter{
		SiteID: strings.TrimSpace(c.Query("siteId")),
		Status: strings.TrimSpace(c.Query("status")),
	}

	var err error
	if filter.Limit, err = queryInt(c, "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = queryInt(c, "offset"); err != nil {
		return filter, err
	}
	if filter.From, err = queryTime(c, "from", false); err != nil {
		return filter, err
	}
	if filter.To, err = queryTime(c, "to", true); err != nil {
		return filter, err
	}
	return filter, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

// queryTime accepts RFC 3339 or a bare date. A bare "to" date covers the whole day.
func queryTime(c *gin.Context, key string, endOfDay bool) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", key)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

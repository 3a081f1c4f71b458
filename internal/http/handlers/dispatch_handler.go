// Dispatch and delivery-log HTTP handlers.
//
// This file exposes the scheduled-tick entry point and the operational
// read surface over the delivery log:
//   - POST /dispatch   (invoked hourly by the scheduler, or manually)
//   - GET  /logs       (paginated delivery-log listing)
//
// The dispatch endpoint answers 200 even when individual sends fail; the
// per-recipient outcomes live inside the report. Only a wholesale failure
// to query the contact directory yields 500.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jsolly/text-notifications-app-sub000/internal/domain"
	"github.com/jsolly/text-notifications-app-sub000/internal/http/middleware"
	"github.com/jsolly/text-notifications-app-sub000/internal/repo"
	"github.com/jsolly/text-notifications-app-sub000/internal/services"
	"github.com/jsolly/text-notifications-app-sub000/internal/utils"
)

// DispatchService defines the dispatch-cycle use-case consumed by HTTP
// handlers. Implementations must contain per-type and per-user failures
// inside the returned report.
type DispatchService interface {
	// Run executes one dispatch cycle for the hour window containing now.
	Run(ctx context.Context, now time.Time) (*services.DispatchReport, error)
}

// Handlers groups the HTTP endpoints for signup, dispatch, and the delivery
// log. It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	signupSvc   SignupService
	dispatchSvc DispatchService
	db          *gorm.DB
}

// New constructs a Handlers instance bound to the given services. The db
// handle backs the delivery-log read endpoint.
func New(signupSvc SignupService, dispatchSvc DispatchService, db *gorm.DB) *Handlers {
	return &Handlers{signupSvc: signupSvc, dispatchSvc: dispatchSvc, db: db}
}

// Dispatch handles POST /dispatch: one scheduled tick of the notification
// loop. The report is returned as JSON with a 200 status even when some
// recipients failed; 500 means the cycle could not select users at all.
func (h *Handlers) Dispatch(c *gin.Context) {
	report, err := h.dispatchSvc.Run(c.Request.Context(), time.Now().UTC())
	if err != nil {
		lg := middleware.LoggerFrom(c)
		lg.Error().Err(err).Msg("dispatch cycle failed")
		fail(c, http.StatusInternalServerError, ErrCodeDispatchFailed, "error processing notifications")
		return
	}
	ok(c, http.StatusOK, report)
}

// ListLogsResponse wraps a page of delivery-log rows and pagination
// information.
type ListLogsResponse struct {
	Logs       []domain.NotificationLog `json:"logs"`
	Pagination Pagination               `json:"pagination"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListLogs handles GET /logs: a paginated view of delivery attempts, newest
// first. Intended for operators checking delivery outcomes.
func (h *Handlers) ListLogs(c *gin.Context) {
	page, pageSize := clampPagination(c)
	ctx := c.Request.Context()

	total, err := repo.CountNotificationLogs(ctx, h.db)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list delivery logs")
		return
	}

	var items []domain.NotificationLog
	if total > 0 {
		offset := (page - 1) * pageSize
		items, err = repo.ListNotificationLogsPage(ctx, h.db, offset, pageSize)
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list delivery logs")
			return
		}
	}
	if items == nil {
		items = []domain.NotificationLog{}
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListLogsResponse{
		Logs: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

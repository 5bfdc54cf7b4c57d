package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mailsweep/mailsweep/internal/application/bulkops"
	"github.com/mailsweep/mailsweep/internal/domain/operation"
	apperrors "github.com/mailsweep/mailsweep/pkg/errors"
)

// BulkOpsHandler exposes the bulk operation use cases over HTTP.
type BulkOpsHandler struct {
	svc bulkops.Service
}

func NewBulkOpsHandler(svc bulkops.Service) *BulkOpsHandler {
	return &BulkOpsHandler{svc: svc}
}

type deleteRequest struct {
	UserID               string   `json:"user_id"`
	MessageIDs           []string `json:"message_ids" binding:"required"`
	FailOnPartialFailure bool     `json:"fail_on_partial_failure"`
}

type modifyRequest struct {
	UserID               string   `json:"user_id"`
	MessageIDs           []string `json:"message_ids" binding:"required"`
	AddLabels            []string `json:"add_labels"`
	RemoveLabels         []string `json:"remove_labels"`
	FailOnPartialFailure bool     `json:"fail_on_partial_failure"`
}

// operationResponse pairs a record with the validation outcome so callers of
// partially failed operations still see the full tally.
type operationResponse struct {
	Operation *operation.Record `json:"operation"`
	Error     *errorResponse    `json:"error,omitempty"`
}

// Delete handles POST /api/v1/operations/delete.
func (h *BulkOpsHandler) Delete(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.InvalidParam("invalid request body").WithCause(err))
		return
	}

	rec, err := h.svc.BulkDelete(c.Request.Context(), bulkops.DeleteInput{
		UserID:               req.UserID,
		MessageIDs:           req.MessageIDs,
		FailOnPartialFailure: req.FailOnPartialFailure,
	})
	h.renderOperation(c, rec, err)
}

// Modify handles POST /api/v1/operations/modify.
func (h *BulkOpsHandler) Modify(c *gin.Context) {
	var req modifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.InvalidParam("invalid request body").WithCause(err))
		return
	}

	rec, err := h.svc.BulkModify(c.Request.Context(), bulkops.ModifyInput{
		UserID:               req.UserID,
		MessageIDs:           req.MessageIDs,
		AddLabels:            req.AddLabels,
		RemoveLabels:         req.RemoveLabels,
		FailOnPartialFailure: req.FailOnPartialFailure,
	})
	h.renderOperation(c, rec, err)
}

// renderOperation maps the service's (record, error) contract onto HTTP: a
// record with a validation error keeps the record in the body under the
// error's status code; errors without a record use the plain error envelope.
func (h *BulkOpsHandler) renderOperation(c *gin.Context, rec *operation.Record, err error) {
	if err == nil {
		c.JSON(http.StatusOK, operationResponse{Operation: rec})
		return
	}
	if rec == nil {
		writeError(c, err)
		return
	}
	code := apperrors.GetCode(err)
	c.JSON(code.HTTPStatus(), operationResponse{
		Operation: rec,
		Error:     &errorResponse{Code: code.String(), Message: err.Error()},
	})
}

// Get handles GET /api/v1/operations/:id.
func (h *BulkOpsHandler) Get(c *gin.Context) {
	rec, err := h.svc.GetOperation(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, operationResponse{Operation: rec})
}

// List handles GET /api/v1/operations.
func (h *BulkOpsHandler) List(c *gin.Context) {
	filter := operation.ListFilter{
		Type:   operation.Type(c.Query("type")),
		Status: operation.Status(c.Query("status")),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(c, apperrors.InvalidParam("limit must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			writeError(c, apperrors.InvalidParam("offset must be a non-negative integer"))
			return
		}
		filter.Offset = offset
	}

	recs, err := h.svc.ListOperations(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	if recs == nil {
		recs = []*operation.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"operations": recs})
}

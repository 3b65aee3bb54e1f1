package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "framework-search/internal/common/errors"
	"framework-search/internal/models"
)

const msgInvalidDuration = "Invalid duration. Must be 'monthly' or 'yearly'."

type durationRequest struct {
	Duration string `json:"duration" validate:"required,oneof=monthly yearly"`
}

// AdminSearch handles POST /api/v1/admin/admin-search.
func (h *Handler) AdminSearch(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		abort(c, apperrors.NewBadRequestError("Unable to read request body"))
		return
	}
	page, err := h.searcher.AdminSearch(c.Request.Context(), currentUser(c), raw)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// AdminFrameworkDetail returns a framework with its CPV codes, documents
// and lots.
func (h *Handler) AdminFrameworkDetail(c *gin.Context) {
	id, ok := frameworkIDParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	fw, err := h.framework(ctx, id)
	if err != nil {
		abort(c, err)
		return
	}
	cpvs, documents, lots, err := h.catalog.GetFrameworkRelations(ctx, id)
	if err != nil {
		abort(c, apperrors.NewQueryExecutionFailedError("framework relations", err))
		return
	}
	if cpvs == nil {
		cpvs = []int{}
	}
	if documents == nil {
		documents = []models.Document{}
	}
	if lots == nil {
		lots = []models.Lot{}
	}

	c.JSON(http.StatusOK, models.AdminFrameworkDetail{
		ID:                 fw.ID,
		Name:               fw.Name,
		Number:             fw.Number,
		Value:              fw.Value,
		StartDate:          fw.StartDate,
		EndDate:            fw.EndDate,
		ServiceType:        fw.ServiceType,
		Description:        fw.Description,
		Logo:               h.images.URL(fw.Logo),
		IndustryOrCategory: fw.IndustryOrCategory,
		SubCategory:        fw.SubCategory,
		Cpvs:               cpvs,
		Documents:          documents,
		Lots:               lots,
	})
}

// SearchVolume returns search counts per month of the current year, or per
// year.
func (h *Handler) SearchVolume(c *gin.Context) {
	duration, ok := h.duration(c)
	if !ok {
		return
	}
	buckets, err := h.catalog.SearchVolume(c.Request.Context(), duration)
	if err != nil {
		abort(c, apperrors.NewQueryExecutionFailedError("search volume", err))
		return
	}

	out := make([]gin.H, 0, len(buckets))
	for _, b := range buckets {
		if duration == models.Monthly {
			out = append(out, gin.H{"month": time.Month(b.Group).String(), "volume": b.Volume})
			continue
		}
		out = append(out, gin.H{"year": strconv.Itoa(b.Group), "volume": b.Volume})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) TopSearches(c *gin.Context) {
	duration, ok := h.duration(c)
	if !ok {
		return
	}
	top, err := h.catalog.TopFrameworks(c.Request.Context(), duration, h.now())
	if err != nil {
		abort(c, apperrors.NewQueryExecutionFailedError("top frameworks", err))
		return
	}
	if top == nil {
		top = []models.TopFramework{}
	}
	c.JSON(http.StatusOK, top)
}

func (h *Handler) TopIndustries(c *gin.Context) {
	duration, ok := h.duration(c)
	if !ok {
		return
	}
	top, err := h.catalog.TopIndustries(c.Request.Context(), duration, h.now())
	if err != nil {
		abort(c, apperrors.NewQueryExecutionFailedError("top industries", err))
		return
	}
	if top == nil {
		top = []models.TopIndustry{}
	}
	c.JSON(http.StatusOK, top)
}

// duration reads the reporting window from the JSON body, falling back to
// the query string.
func (h *Handler) duration(c *gin.Context) (models.Duration, bool) {
	var req durationRequest
	raw, err := c.GetRawData()
	if err != nil {
		abort(c, apperrors.NewBadRequestError("Unable to read request body"))
		return "", false
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &req); err != nil {
			abort(c, apperrors.NewBadRequestError("JSON parse error - "+err.Error()))
			return "", false
		}
	}
	if req.Duration == "" {
		req.Duration = c.Query("duration")
	}
	if err := h.validate.Struct(req); err != nil {
		abort(c, apperrors.NewBadRequestError(msgInvalidDuration))
		return "", false
	}
	return models.Duration(req.Duration), true
}

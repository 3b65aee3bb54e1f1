package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "framework-search/internal/common/errors"
	"framework-search/internal/common/logger"
	"framework-search/internal/common/validation"
	"framework-search/internal/forms"
	"framework-search/internal/models"
	"framework-search/internal/search"
	"framework-search/internal/store"
)

const (
	msgPreferenceCreated   = "Preference added successfully"
	msgPreferenceDeleted   = "Preference deleted successfully"
	msgPreferenceDuplicate = "Preference already added"
)

// Searcher runs validated searches.
type Searcher interface {
	Search(ctx context.Context, user models.User, raw []byte) (*search.Page, error)
	AdminSearch(ctx context.Context, user models.User, raw []byte) (*search.Page, error)
	SuggestNames(ctx context.Context, user models.User, raw []byte) ([]search.Item, error)
	SuggestNumbers(ctx context.Context, user models.User, raw []byte) ([]search.Item, error)
}

// Catalog is the relational data served directly by the handlers.
type Catalog interface {
	GetFramework(ctx context.Context, id int64) (*models.Framework, error)
	GetFrameworkRelations(ctx context.Context, id int64) ([]int, []models.Document, []models.Lot, error)
	ListPreferences(ctx context.Context, userID int64) ([]models.PreferredFramework, error)
	CreatePreference(ctx context.Context, userID, frameworkID int64) (*models.Preference, error)
	DeletePreference(ctx context.Context, userID, frameworkID int64) error
	SearchVolume(ctx context.Context, duration models.Duration) ([]models.VolumeBucket, error)
	TopFrameworks(ctx context.Context, duration models.Duration, now time.Time) ([]models.TopFramework, error)
	TopIndustries(ctx context.Context, duration models.Duration, now time.Time) ([]models.TopIndustry, error)
}

// FormData serves the form population lists.
type FormData interface {
	FilterFormData(ctx context.Context) (*forms.FilterFormData, error)
	Industries(ctx context.Context) ([]string, error)
	FrameworkValues(ctx context.Context) ([]string, error)
	SubCategories(ctx context.Context, industries []string) ([]string, error)
}

type ViewRecorder interface {
	RecordView(ctx context.Context, userID, frameworkID int64)
}

type Handler struct {
	searcher Searcher
	catalog  Catalog
	forms    FormData
	views    ViewRecorder
	images   search.Images
	validate *validation.Validator
	logger   logger.Logger
	now      func() time.Time
}

func NewHandler(searcher Searcher, catalog Catalog, forms FormData, views ViewRecorder, images search.Images, log logger.Logger) *Handler {
	return &Handler{
		searcher: searcher,
		catalog:  catalog,
		forms:    forms,
		views:    views,
		images:   images,
		validate: validation.New(),
		logger:   log,
		now:      time.Now,
	}
}

// Search handles POST /api/v1/search/.
func (h *Handler) Search(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		abort(c, apperrors.NewBadRequestError("Unable to read request body"))
		return
	}
	page, err := h.searcher.Search(c.Request.Context(), currentUser(c), raw)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) NamesSuggest(c *gin.Context) {
	h.suggest(c, h.searcher.SuggestNames)
}

func (h *Handler) NumbersSuggest(c *gin.Context) {
	h.suggest(c, h.searcher.SuggestNumbers)
}

func (h *Handler) suggest(c *gin.Context, fn func(context.Context, models.User, []byte) ([]search.Item, error)) {
	raw, err := c.GetRawData()
	if err != nil {
		abort(c, apperrors.NewBadRequestError("Unable to read request body"))
		return
	}
	items, err := fn(c.Request.Context(), currentUser(c), raw)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) FrameworkValues(c *gin.Context) {
	values, err := h.forms.FrameworkValues(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"framework_values": values})
}

func (h *Handler) FilterFormData(c *gin.Context) {
	data, err := h.forms.FilterFormData(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

type industryTypesRequest struct {
	IndustryTypes []string `json:"industry_types" validate:"omitempty,dive,required"`
}

// SearchFormData returns every industry, or the sub categories of the
// industries in the body.
func (h *Handler) SearchFormData(c *gin.Context) {
	var req industryTypesRequest
	if !h.bindOptional(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if len(req.IndustryTypes) == 0 {
		industries, err := h.forms.Industries(ctx)
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"industry_types": industries})
		return
	}

	subCategories, err := h.forms.SubCategories(ctx, req.IndustryTypes)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"industry_types": req.IndustryTypes,
		"sub_categories": subCategories,
	})
}

// FrameworkDetail returns the consumer detail view and records the view.
func (h *Handler) FrameworkDetail(c *gin.Context) {
	id, ok := frameworkIDParam(c)
	if !ok {
		return
	}
	fw, err := h.framework(c.Request.Context(), id)
	if err != nil {
		abort(c, err)
		return
	}

	if h.views != nil {
		h.views.RecordView(c.Request.Context(), currentUser(c).ID, fw.ID)
	}

	c.JSON(http.StatusOK, models.FrameworkDetail{
		ID:                 fw.ID,
		Name:               fw.Name,
		LotNumber:          fw.LotNumber,
		IndustryOrCategory: fw.IndustryOrCategory,
		SubCategory:        fw.SubCategory,
		Description:        fw.Description,
		StartDate:          fw.StartDate,
		EndDate:            fw.EndDate,
	})
}

func (h *Handler) ListPreferences(c *gin.Context) {
	prefs, err := h.catalog.ListPreferences(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		abort(c, apperrors.NewQueryExecutionFailedError("list preferences", err))
		return
	}
	c.JSON(http.StatusOK, prefs)
}

type preferenceRequest struct {
	FrameworkID int64 `json:"framework_id" validate:"required,min=1"`
}

func (h *Handler) CreatePreference(c *gin.Context) {
	var req preferenceRequest
	if !h.bind(c, &req) {
		return
	}

	user := currentUser(c)
	pref, err := h.catalog.CreatePreference(c.Request.Context(), user.ID, req.FrameworkID)
	switch {
	case errors.Is(err, store.ErrDuplicate):
		abort(c, apperrors.NewConflictError(msgPreferenceDuplicate))
		return
	case errors.Is(err, store.ErrNotFound):
		abort(c, apperrors.NewValidationError(map[string]string{
			"framework_id": "Invalid pk \"" + strconv.FormatInt(req.FrameworkID, 10) + "\" - object does not exist.",
		}))
		return
	case err != nil:
		abort(c, apperrors.NewQueryExecutionFailedError("create preference", err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":         pref.UserID,
		"framework_id": pref.FrameworkID,
		"message":      msgPreferenceCreated,
	})
}

func (h *Handler) DeletePreference(c *gin.Context) {
	id, ok := frameworkIDParam(c)
	if !ok {
		return
	}

	err := h.catalog.DeletePreference(c.Request.Context(), currentUser(c).ID, id)
	if errors.Is(err, store.ErrNotFound) {
		abort(c, apperrors.NewNotFoundError("Preference", "framework_id "+strconv.FormatInt(id, 10)))
		return
	}
	if err != nil {
		abort(c, apperrors.NewQueryExecutionFailedError("delete preference", err))
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: msgPreferenceDeleted})
}

func (h *Handler) framework(ctx context.Context, id int64) (*models.Framework, error) {
	fw, err := h.catalog.GetFramework(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("Framework", "id "+strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("get framework", err)
	}
	return fw, nil
}

func frameworkIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("framework_id"), 10, 64)
	if err != nil || id <= 0 {
		abort(c, apperrors.NewNotFoundError("Framework", "invalid id "+c.Param("framework_id")))
		return 0, false
	}
	return id, true
}

// bind decodes a required JSON body and validates it.
func (h *Handler) bind(c *gin.Context, dst interface{}) bool {
	if err := json.NewDecoder(c.Request.Body).Decode(dst); err != nil {
		abort(c, apperrors.NewBadRequestError("JSON parse error - "+err.Error()))
		return false
	}
	return h.check(c, dst)
}

// bindOptional is bind for endpoints that accept an empty body.
func (h *Handler) bindOptional(c *gin.Context, dst interface{}) bool {
	raw, err := c.GetRawData()
	if err != nil {
		abort(c, apperrors.NewBadRequestError("Unable to read request body"))
		return false
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, dst); err != nil {
			abort(c, apperrors.NewBadRequestError("JSON parse error - "+err.Error()))
			return false
		}
	}
	return h.check(c, dst)
}

func (h *Handler) check(c *gin.Context, dst interface{}) bool {
	if err := h.validate.Struct(dst); err != nil {
		abort(c, err)
		return false
	}
	return true
}

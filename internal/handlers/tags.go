package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/softstore/internal/models"
	"github.com/charlesng35/softstore/internal/services"
	apperrors "github.com/charlesng35/softstore/pkg/errors"
	"github.com/charlesng35/softstore/pkg/response"
)

type TagHandler struct {
	svc *services.TagService
}

func NewTagHandler(svc *services.TagService) *TagHandler {
	return &TagHandler{svc: svc}
}

type tagDTO struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Color       string         `json:"color,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Deleted     bool           `json:"deleted"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

type createTagRequest struct {
	Name        string         `json:"name" validate:"required,tagname,max=128"`
	Description string         `json:"description" validate:"max=512"`
	Color       string         `json:"color" validate:"omitempty,hexcolor"`
	Metadata    map[string]any `json:"metadata"`
}

type updateTagRequest struct {
	Name        *string        `json:"name" validate:"omitempty,tagname,max=128"`
	Description *string        `json:"description" validate:"omitempty,max=512"`
	Color       *string        `json:"color" validate:"omitempty,hexcolor"`
	Metadata    map[string]any `json:"metadata"`
}

type importTagsRequest struct {
	Tags []createTagRequest `json:"tags" validate:"max=1000,dive"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func mapTag(tag *models.Tag) tagDTO {
	return tagDTO{
		ID:          tag.ID,
		Name:        tag.Name,
		Description: tag.Description,
		Color:       tag.Color,
		Metadata:    tag.Metadata,
		Deleted:     tag.Deleted,
		CreatedAt:   formatTime(tag.CreatedAt),
		UpdatedAt:   formatTime(tag.UpdatedAt),
	}
}

func mapTags(tags []*models.Tag) []tagDTO {
	out := make([]tagDTO, 0, len(tags))
	for _, tag := range tags {
		out = append(out, mapTag(tag))
	}
	return out
}

func (r createTagRequest) input() services.CreateTagInput {
	return services.CreateTagInput{
		Name:        r.Name,
		Description: r.Description,
		Color:       r.Color,
		Metadata:    r.Metadata,
	}
}

func listOptions(c *gin.Context) services.ListTagsOptions {
	return services.ListTagsOptions{
		Limit:  parseIntQuery(c, "limit", 0),
		Offset: parseIntQuery(c, "offset", 0),
	}
}

func tagID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.Error(c, apperrors.NewBadRequest("tag id is required"))
		return "", false
	}
	return id, true
}

// List handles GET /api/tags
func (h *TagHandler) List(c *gin.Context) {
	tags, err := h.svc.List(requestContext(c), listOptions(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, mapTags(tags))
}

// ListDeleted handles GET /api/tags/deleted
func (h *TagHandler) ListDeleted(c *gin.Context) {
	tags, err := h.svc.ListDeleted(requestContext(c), listOptions(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, mapTags(tags))
}

// Lookup handles GET /api/tags/lookup?name=
func (h *TagHandler) Lookup(c *gin.Context) {
	tag, err := h.svc.FindByName(requestContext(c), c.Query("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, mapTag(tag))
}

// Get handles GET /api/tags/:id
func (h *TagHandler) Get(c *gin.Context) {
	id, ok := tagID(c)
	if !ok {
		return
	}

	tag, err := h.svc.Get(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, mapTag(tag))
}

// Create handles POST /api/tags
func (h *TagHandler) Create(c *gin.Context) {
	var req createTagRequest
	if !bindAndValidate(c, &req) {
		return
	}

	tag, err := h.svc.Create(requestContext(c), req.input())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, mapTag(tag))
}

// Import handles POST /api/tags/import
func (h *TagHandler) Import(c *gin.Context) {
	var req importTagsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	inputs := make([]services.CreateTagInput, 0, len(req.Tags))
	for _, item := range req.Tags {
		inputs = append(inputs, item.input())
	}

	inserted, err := h.svc.Import(requestContext(c), inputs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"submitted": len(inputs),
		"inserted":  inserted,
	})
}

// Update handles PATCH /api/tags/:id
func (h *TagHandler) Update(c *gin.Context) {
	id, ok := tagID(c)
	if !ok {
		return
	}

	var req updateTagRequest
	if !bindAndValidate(c, &req) {
		return
	}

	tag, err := h.svc.Update(requestContext(c), id, services.UpdateTagInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Metadata:    req.Metadata,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, mapTag(tag))
}

// Restore handles POST /api/tags/:id/restore
func (h *TagHandler) Restore(c *gin.Context) {
	id, ok := tagID(c)
	if !ok {
		return
	}

	tag, err := h.svc.Restore(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, mapTag(tag))
}

// Delete handles DELETE /api/tags/:id. With hard=true the row is removed from storage,
// otherwise the tag is only flagged as deleted.
func (h *TagHandler) Delete(c *gin.Context) {
	id, ok := tagID(c)
	if !ok {
		return
	}

	ctx := requestContext(c)
	hard := parseBoolQuery(c, "hard")

	var err error
	if hard {
		err = h.svc.Purge(ctx, id)
	} else {
		err = h.svc.Delete(ctx, id)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true, "hard": hard})
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campuslink/campuslink-api/internal/dto"
	"github.com/campuslink/campuslink-api/internal/models"
	"github.com/campuslink/campuslink-api/internal/service"
	appErrors "github.com/campuslink/campuslink-api/pkg/errors"
	"github.com/campuslink/campuslink-api/pkg/response"
)

// DiscussionHandler exposes the forum endpoints.
type DiscussionHandler struct {
	service *service.DiscussionService
}

// NewDiscussionHandler creates a new handler.
func NewDiscussionHandler(svc *service.DiscussionService) *DiscussionHandler {
	return &DiscussionHandler{service: svc}
}

// Create godoc
// @Summary Open a discussion
// @Tags Discussions
// @Accept json
// @Produce json
// @Param payload body dto.CreateDiscussionRequest true "Discussion payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /discussions [post]
func (h *DiscussionHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateDiscussionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	view, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, view)
}

// List godoc
// @Summary List discussions
// @Tags Discussions
// @Produce json
// @Param category query string false "Filter by category"
// @Param tag query string false "Filter by tag"
// @Param search query string false "Search title or content"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /discussions [get]
func (h *DiscussionHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	userID := ""
	if claims != nil {
		userID = claims.UserID
	}

	filter := models.DiscussionFilter{
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		AuthorID: c.Query("author_id"),
		Search:   c.Query("search"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	views, pagination, err := h.service.List(c.Request.Context(), userID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, views, pagination)
}

// Get godoc
// @Summary Get a discussion with its comment tree
// @Tags Discussions
// @Produce json
// @Param id path string true "Discussion ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /discussions/{id} [get]
func (h *DiscussionHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	userID := ""
	if claims != nil {
		userID = claims.UserID
	}

	view, err := h.service.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}

// Update godoc
// @Summary Edit a discussion
// @Tags Discussions
// @Accept json
// @Produce json
// @Param id path string true "Discussion ID"
// @Param payload body dto.UpdateDiscussionRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /discussions/{id} [put]
func (h *DiscussionHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UpdateDiscussionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	view, err := h.service.Update(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}

// Delete godoc
// @Summary Delete a discussion
// @Tags Discussions
// @Produce json
// @Param id path string true "Discussion ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /discussions/{id} [delete]
func (h *DiscussionHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ToggleLike godoc
// @Summary Like or unlike a discussion
// @Tags Discussions
// @Produce json
// @Param id path string true "Discussion ID"
// @Success 200 {object} response.Envelope
// @Router /discussions/{id}/like [post]
func (h *DiscussionHandler) ToggleLike(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	result, err := h.service.ToggleLike(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// Report godoc
// @Summary Report a discussion
// @Tags Discussions
// @Accept json
// @Produce json
// @Param id path string true "Discussion ID"
// @Param payload body dto.ReportRequest true "Report payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /discussions/{id}/report [post]
func (h *DiscussionHandler) Report(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.ReportDiscussion(c.Request.Context(), claims.UserID, c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// AddComment godoc
// @Summary Add a comment or reply
// @Description Replies to an unknown parent land at the top level
// @Tags Discussions
// @Accept json
// @Produce json
// @Param id path string true "Discussion ID"
// @Param payload body dto.AddCommentRequest true "Comment payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /discussions/{id}/comments [post]
func (h *DiscussionHandler) AddComment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	res, err := h.service.AddComment(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

// EditComment godoc
// @Summary Edit a comment
// @Tags Discussions
// @Accept json
// @Produce json
// @Param id path string true "Discussion ID"
// @Param commentId path string true "Comment ID"
// @Param payload body dto.EditCommentRequest true "Edit payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /discussions/{id}/comments/{commentId} [put]
func (h *DiscussionHandler) EditComment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.EditCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	view, err := h.service.EditComment(c.Request.Context(), claims, c.Param("id"), c.Param("commentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}

// DeleteComment godoc
// @Summary Delete a comment
// @Description Soft-deletes the comment, replies remain visible
// @Tags Discussions
// @Produce json
// @Param id path string true "Discussion ID"
// @Param commentId path string true "Comment ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /discussions/{id}/comments/{commentId} [delete]
func (h *DiscussionHandler) DeleteComment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.DeleteComment(c.Request.Context(), claims, c.Param("id"), c.Param("commentId")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ToggleCommentLike godoc
// @Summary Like or unlike a comment
// @Tags Discussions
// @Produce json
// @Param id path string true "Discussion ID"
// @Param commentId path string true "Comment ID"
// @Success 200 {object} response.Envelope
// @Router /discussions/{id}/comments/{commentId}/like [post]
func (h *DiscussionHandler) ToggleCommentLike(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	result, err := h.service.ToggleCommentLike(c.Request.Context(), claims.UserID, c.Param("id"), c.Param("commentId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// ReportComment godoc
// @Summary Report a comment
// @Tags Discussions
// @Accept json
// @Produce json
// @Param id path string true "Discussion ID"
// @Param commentId path string true "Comment ID"
// @Param payload body dto.ReportRequest true "Report payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /discussions/{id}/comments/{commentId}/report [post]
func (h *DiscussionHandler) ReportComment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.ReportComment(c.Request.Context(), claims.UserID, c.Param("id"), c.Param("commentId"), req); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Moderate godoc
// @Summary Moderate a discussion
// @Description approve, delete, pin, unpin, lock, or unlock; admin only
// @Tags Moderation
// @Accept json
// @Produce json
// @Param id path string true "Discussion ID"
// @Param payload body dto.ModerateDiscussionRequest true "Moderation payload"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /discussions/{id}/moderate [put]
func (h *DiscussionHandler) Moderate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ModerateDiscussionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.ModerateDiscussion(c.Request.Context(), claims, c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ModerateComment godoc
// @Summary Moderate a comment
// @Description approve clears reports, delete soft-deletes; admin only
// @Tags Moderation
// @Accept json
// @Produce json
// @Param id path string true "Discussion ID"
// @Param commentId path string true "Comment ID"
// @Param payload body dto.ModerateCommentRequest true "Moderation payload"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /discussions/{id}/comments/{commentId}/moderate [put]
func (h *DiscussionHandler) ModerateComment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ModerateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.ModerateComment(c.Request.Context(), claims, c.Param("id"), c.Param("commentId"), req); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ListReported godoc
// @Summary List reported discussions
// @Tags Moderation
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /discussions/reported [get]
func (h *DiscussionHandler) ListReported(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	views, err := h.service.ListReported(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, views, nil)
}

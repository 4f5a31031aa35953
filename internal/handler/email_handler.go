package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mailpilot/internal/model"
	"mailpilot/internal/service"
	"mailpilot/pkg/apperr"
)

type EmailHandler struct {
	commands *service.CommandService
}

func NewEmailHandler(commands *service.CommandService) *EmailHandler {
	return &EmailHandler{
		commands: commands,
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{
		"error": err.Error(),
		"kind":  apperr.KindOf(err),
	})
}

// Read handles GET /emails/read?count=&subject=&sender=
func (h *EmailHandler) Read(c *gin.Context) {
	count, _ := strconv.Atoi(c.DefaultQuery("count", "5"))

	emails, err := h.commands.ReadEmails(
		c.Request.Context(),
		actorEmail(c),
		count,
		c.Query("subject"),
		c.Query("sender"),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"emails": emails})
}

// GenerateReplies handles POST /emails/generate-replies
func (h *EmailHandler) GenerateReplies(c *gin.Context) {
	var req struct {
		Emails []model.Email `json:"emails" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	replies := h.commands.GenerateReplies(c.Request.Context(), actorEmail(c), req.Emails)
	c.JSON(http.StatusOK, gin.H{"replies": replies})
}

// SendReply handles POST /emails/send-reply
func (h *EmailHandler) SendReply(c *gin.Context) {
	var req struct {
		EmailID      string `json:"email_id" binding:"required"`
		ReplyContent string `json:"reply_content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	sentID, err := h.commands.SendReply(c.Request.Context(), actorEmail(c), req.EmailID, req.ReplyContent)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Reply sent successfully",
		"sent_id": sentID,
	})
}

// Delete handles DELETE /emails/delete
func (h *EmailHandler) Delete(c *gin.Context) {
	var req service.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	deletedID, err := h.commands.DeleteEmail(c.Request.Context(), actorEmail(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Email deleted successfully",
		"deleted_id": deletedID,
	})
}

// Categorize handles GET /emails/categorize?count=
func (h *EmailHandler) Categorize(c *gin.Context) {
	count, _ := strconv.Atoi(c.DefaultQuery("count", "20"))

	buckets, err := h.commands.CategorizeInbox(c.Request.Context(), actorEmail(c), count)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": buckets})
}

// Digest handles GET /emails/digest
func (h *EmailHandler) Digest(c *gin.Context) {
	digest, err := h.commands.DailyDigest(c.Request.Context(), actorEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"digest": digest})
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mailpilot/internal/service"
	"mailpilot/pkg/apperr"
)

type CommandHandler struct {
	commands *service.CommandService
}

func NewCommandHandler(commands *service.CommandService) *CommandHandler {
	return &CommandHandler{
		commands: commands,
	}
}

// Execute handles POST /command: a natural-language instruction that
// gets parsed and dispatched to the matching workflow.
func (h *CommandHandler) Execute(c *gin.Context) {
	var req struct {
		Command string `json:"command" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.commands.ExecuteCommand(c.Request.Context(), actorEmail(c), req.Command)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{
			"error": err.Error(),
			"kind":  apperr.KindOf(err),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// actorEmail returns the authenticated user's email for event
// attribution.
func actorEmail(c *gin.Context) string {
	if email, exists := c.Get("email"); exists {
		if s, ok := email.(string); ok {
			return s
		}
	}
	return "unknown"
}

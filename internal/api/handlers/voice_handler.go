package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/veydan/intervox/internal/services"
	"github.com/veydan/intervox/internal/utils"
)

type VoiceHandler struct {
	svc    *services.InterviewService
	speech services.SpeechService
	mu     *sync.Mutex
}

func NewVoiceHandler(svc *services.InterviewService, speech services.SpeechService, mu *sync.Mutex) *VoiceHandler {
	return &VoiceHandler{svc: svc, speech: speech, mu: mu}
}

func (h *VoiceHandler) Get(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"voice": h.svc.Voice()})
}

type SetVoiceRequest struct {
	Voice string `json:"voice" binding:"required"`
}

func (h *VoiceHandler) Set(c *gin.Context) {
	var req SetVoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "VoiceHandler.Set", "invalid request body", err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.svc.SetVoice(req.Voice)
	c.JSON(http.StatusOK, gin.H{"voice": req.Voice})
}

// List returns the premium synthesis voices available as fallbacks.
func (h *VoiceHandler) List(c *gin.Context) {
	names, err := h.speech.ListPremiumVoices(c.Request.Context())
	if err != nil {
		writeError(c, utils.ES(utils.CodeUnavailable, utils.StageTTS, "VoiceHandler.List", "voice catalog unavailable", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"voices": names})
}

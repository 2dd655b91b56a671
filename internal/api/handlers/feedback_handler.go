package handlers

import (
	"encoding/base64"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/veydan/intervox/internal/services"
)

type FeedbackHandler struct {
	composer *services.FeedbackComposer
	svc      *services.InterviewService
	mu       *sync.Mutex
}

func NewFeedbackHandler(composer *services.FeedbackComposer, svc *services.InterviewService, mu *sync.Mutex) *FeedbackHandler {
	return &FeedbackHandler{composer: composer, svc: svc, mu: mu}
}

type FeedbackResponse struct {
	Text      string           `json:"text"`
	Ratings   services.Ratings `json:"ratings"`
	LocalPath string           `json:"local_path,omitempty"`
	RemoteURL string           `json:"remote_url,omitempty"`
	Audio     string           `json:"audio,omitempty"`
	AudioMIME string           `json:"audio_mime,omitempty"`
	Warning   string           `json:"warning,omitempty"`
}

// Generate finishes the session and composes the report. Composition never
// errors: generation failure is embedded in the report text.
func (h *FeedbackHandler) Generate(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.svc.Finish()
	report := h.composer.Compose(c.Request.Context(), h.svc.State())

	resp := FeedbackResponse{
		Text:      report.Text,
		Ratings:   report.Ratings,
		LocalPath: report.LocalPath,
		RemoteURL: report.RemoteURL,
		Warning:   report.Warn,
	}
	if report.Audio != nil {
		resp.Audio = base64.StdEncoding.EncodeToString(report.Audio.Bytes)
		resp.AudioMIME = report.Audio.MIME
	}
	c.JSON(http.StatusOK, resp)
}

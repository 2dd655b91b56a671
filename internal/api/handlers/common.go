package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veydan/intervox/internal/services"
	"github.com/veydan/intervox/internal/utils"
)

type APIError struct {
	Code    utils.Code  `json:"code"`
	Stage   utils.Stage `json:"stage,omitempty"`
	Message string      `json:"message"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Stage:   ae.Stage,
			Message: ae.Message,
		})
		return
	}

	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

// TurnResponse is the wire shape of one interviewer turn. Audio is base64
// MP3; absent audio with a warning means the turn is text-only.
type TurnResponse struct {
	UserText      string `json:"user_text,omitempty"`
	AssistantText string `json:"assistant_text"`
	Audio         string `json:"audio,omitempty"`
	AudioMIME     string `json:"audio_mime,omitempty"`
	AudioID       string `json:"audio_id,omitempty"`
	TurnID        int    `json:"turn_id"`
	Finished      bool   `json:"finished"`
	Warning       string `json:"warning,omitempty"`
}

func toTurnResponse(res *services.TurnResult) TurnResponse {
	out := TurnResponse{
		UserText:      res.UserText,
		AssistantText: res.AssistantText,
		AudioID:       res.AudioID,
		TurnID:        res.TurnID,
		Finished:      res.Finished,
		Warning:       res.Warn,
	}
	if res.Audio != nil {
		out.Audio = base64.StdEncoding.EncodeToString(res.Audio.Bytes)
		out.AudioMIME = res.Audio.MIME
	}
	return out
}

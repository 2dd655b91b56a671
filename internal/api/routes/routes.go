package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veydan/intervox/internal/api/handlers"
)

type Deps struct {
	Interview *handlers.InterviewHandler
	Coding    *handlers.CodingHandler
	Feedback  *handlers.FeedbackHandler
	Voice     *handlers.VoiceHandler
	Metrics   http.Handler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	r.POST("/interview/context", d.Interview.SetContext)
	r.POST("/interview/documents", d.Interview.UploadDocuments)
	r.POST("/interview/start", d.Interview.Start)
	r.GET("/interview/status", d.Interview.Status)
	r.POST("/interview/turn", d.Interview.Turn)
	r.POST("/interview/next", d.Interview.NextQuestion)
	r.POST("/interview/finish", d.Interview.Finish)

	r.POST("/coding/start", d.Coding.Start)
	r.POST("/coding/submit", d.Coding.Submit)
	r.GET("/coding/status", d.Coding.Status)

	r.POST("/feedback", d.Feedback.Generate)

	r.GET("/voice", d.Voice.Get)
	r.PUT("/voice", d.Voice.Set)
	r.GET("/voices", d.Voice.List)
}

package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/veydan/intervox/internal/services"
	"github.com/veydan/intervox/internal/utils"
)

type CodingHandler struct {
	svc *services.InterviewService
	mu  *sync.Mutex
}

func NewCodingHandler(svc *services.InterviewService, mu *sync.Mutex) *CodingHandler {
	return &CodingHandler{svc: svc, mu: mu}
}

func (h *CodingHandler) Start(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	start, err := h.svc.StartCoding()
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"remaining_sec": start.RemainingSec,
		"already_open":  start.AlreadyOpen,
	})
}

type SubmitCodeRequest struct {
	Code     string `json:"code" binding:"required"`
	Language string `json:"language"`
}

func (h *CodingHandler) Submit(c *gin.Context) {
	var req SubmitCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "CodingHandler.Submit", "invalid request body", err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	res, err := h.svc.SubmitCode(c.Request.Context(), req.Code, req.Language)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTurnResponse(res))
}

// Status polls the window; the first poll past the deadline carries the
// interviewer's timeout turn.
func (h *CodingHandler) Status(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := h.svc.PollCoding(c.Request.Context())

	resp := gin.H{
		"active":        st.Active,
		"remaining_sec": st.RemainingSec,
		"timed_out":     st.TimedOut,
	}
	if st.Turn != nil {
		resp["turn"] = toTurnResponse(st.Turn)
	}
	c.JSON(http.StatusOK, resp)
}

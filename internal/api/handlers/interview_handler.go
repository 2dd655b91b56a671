package handlers

import (
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/veydan/intervox/internal/services"
	"github.com/veydan/intervox/internal/utils"
)

// maxUploadBytes bounds multipart reads before the service-level audio cap
// applies.
const maxUploadBytes = 16 << 20

type InterviewHandler struct {
	svc *services.InterviewService

	// mu serializes every session-touching request. The session core does
	// no locking of its own.
	mu *sync.Mutex
}

func NewInterviewHandler(svc *services.InterviewService, mu *sync.Mutex) *InterviewHandler {
	return &InterviewHandler{svc: svc, mu: mu}
}

type SetContextRequest struct {
	Resume string `json:"resume"`
	Job    string `json:"job_description"`
}

func (h *InterviewHandler) SetContext(c *gin.Context) {
	var req SetContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.SetContext", "invalid request body", err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.svc.SetContext(req.Resume, req.Job)

	c.JSON(http.StatusOK, gin.H{"resume_chars": len(req.Resume), "job_chars": len(req.Job)})
}

// UploadDocuments accepts resume and job-description files and extracts
// their text into the interview context.
func (h *InterviewHandler) UploadDocuments(c *gin.Context) {
	const op = "InterviewHandler.UploadDocuments"

	resumeData, resumeName, err := formFileBytes(c, "resume")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing or unreadable multipart field 'resume'", err))
		return
	}
	jobData, jobName, err := formFileBytes(c, "job_description")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing or unreadable multipart field 'job_description'", err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	resumeChars, jobChars := h.svc.SetContextFromDocuments(resumeData, resumeName, jobData, jobName)

	c.JSON(http.StatusOK, gin.H{"resume_chars": resumeChars, "job_chars": jobChars})
}

type StartInterviewRequest struct {
	Minutes int `json:"minutes" binding:"required"`
}

func (h *InterviewHandler) Start(c *gin.Context) {
	var req StartInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Start", "invalid request body", err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.svc.StartInterview(req.Minutes)

	c.JSON(http.StatusOK, statusResponse(h.svc.Status()))
}

func (h *InterviewHandler) Status(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.JSON(http.StatusOK, statusResponse(h.svc.Status()))
}

// Turn runs one full voice turn from an uploaded audio blob.
func (h *InterviewHandler) Turn(c *gin.Context) {
	const op = "InterviewHandler.Turn"

	audio, name, err := formFileBytes(c, "audio")
	if err != nil {
		writeError(c, utils.ES(utils.CodeInvalidArgument, utils.StageUpload, op, "missing or unreadable multipart field 'audio'", err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	res, err := h.svc.VoiceTurn(c.Request.Context(), audio, name)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTurnResponse(res))
}

func (h *InterviewHandler) NextQuestion(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	res, err := h.svc.NextQuestion(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTurnResponse(res))
}

func (h *InterviewHandler) Finish(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.svc.Finish()
	c.JSON(http.StatusOK, statusResponse(h.svc.Status()))
}

type StatusResponse struct {
	RemainingSec    *int `json:"remaining_sec"`
	Finished        bool `json:"finished"`
	CodingActive    bool `json:"coding_active"`
	CodingRemaining *int `json:"coding_remaining_sec,omitempty"`
}

func statusResponse(st services.Status) StatusResponse {
	return StatusResponse{
		RemainingSec:    st.RemainingSec,
		Finished:        st.Finished,
		CodingActive:    st.CodingActive,
		CodingRemaining: st.CodingRemaining,
	}
}

func formFileBytes(c *gin.Context, field string) ([]byte, string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, "", err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		return nil, "", err
	}
	return data, fh.Filename, nil
}

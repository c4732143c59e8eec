package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veslo-ai/textlab/internal/analysis"
	"github.com/veslo-ai/textlab/internal/common"
	"github.com/veslo-ai/textlab/internal/export"
	"github.com/veslo-ai/textlab/internal/store"
)

// ListTypes exposes the analysis catalog: categories by position, each with
// its ordered choices.
func (h *Handler) ListTypes(c *gin.Context) {
	cats := h.Catalog.Categories()
	out := make([]gin.H, 0, len(cats))
	for i, cat := range cats {
		choices := cat.OrderedChoices()
		names := make([]string, 0, len(choices))
		for _, ch := range choices {
			names = append(names, ch.Name)
		}
		out = append(out, gin.H{
			"index":   i,
			"name":    cat.Name,
			"choices": names,
		})
	}
	common.OK(c, gin.H{"types": out})
}

type createSessionReq struct {
	Title     string `json:"title"`
	Text      string `json:"text" binding:"required"`
	Category  int    `json:"category"`
	Choices   []int  `json:"choices"`
	Temporary bool   `json:"temporary"`
}

func (h *Handler) CreateSession(c *gin.Context) {
	oid, okk := ownerFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "caller identity required")
		return
	}
	var req createSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	sess, err := h.Analysis.Create(c.Request.Context(), oid, analysis.CreateInput{
		Title:     req.Title,
		Text:      req.Text,
		Category:  req.Category,
		Choices:   req.Choices,
		Temporary: req.Temporary,
	})
	if err != nil {
		h.failErr(c, err)
		return
	}
	common.OK(c, gin.H{"session": sess})
}

func (h *Handler) ListSessions(c *gin.Context) {
	oid, okk := ownerFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "caller identity required")
		return
	}
	sessions, err := h.Analysis.List(c.Request.Context(), oid)
	if err != nil {
		h.failErr(c, err)
		return
	}
	common.OK(c, gin.H{"sessions": sessions})
}

func (h *Handler) GetSession(c *gin.Context) {
	oid, okk := ownerFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "caller identity required")
		return
	}
	sess, err := h.Analysis.Get(c.Request.Context(), oid, c.Param("session_id"))
	if err != nil {
		h.failErr(c, err)
		return
	}
	common.OK(c, gin.H{"session": sess})
}

type updateSessionReq struct {
	Title           *string `json:"title"`
	Text            *string `json:"text"`
	Category        *int    `json:"category"`
	Choices         *[]int  `json:"choices"`
	ExpectedVersion *int    `json:"expected_version"`
}

func (h *Handler) UpdateSession(c *gin.Context) {
	oid, okk := ownerFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "caller identity required")
		return
	}
	var req updateSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	sess, err := h.Analysis.Update(c.Request.Context(), oid, c.Param("session_id"), analysis.UpdateInput{
		Title:           req.Title,
		Text:            req.Text,
		Category:        req.Category,
		Choices:         req.Choices,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		h.failErr(c, err)
		return
	}
	common.OK(c, gin.H{"session": sess})
}

func (h *Handler) DeleteSession(c *gin.Context) {
	oid, okk := ownerFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "caller identity required")
		return
	}
	if err := h.Analysis.Delete(c.Request.Context(), oid, c.Param("session_id")); err != nil {
		h.failErr(c, err)
		return
	}
	common.OK(c, gin.H{"deleted": true})
}

func (h *Handler) SearchSessions(c *gin.Context) {
	oid, okk := ownerFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "caller identity required")
		return
	}
	results, err := h.Analysis.Search(c.Request.Context(), oid, c.Query("q"))
	if err != nil {
		h.failErr(c, err)
		return
	}
	out := make([]gin.H, 0, len(results))
	for _, r := range results {
		out = append(out, gin.H{"session": r.Session, "score": r.Score})
	}
	common.OK(c, gin.H{"results": out})
}

// ExtractDocument pulls plain text out of an uploaded file so the client can
// prefill an analysis request.
func (h *Handler) ExtractDocument(c *gin.Context) {
	if _, okk := ownerFromContext(c); !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "caller identity required")
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10005, "file required")
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		h.failErr(c, err)
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		h.failErr(c, err)
		return
	}
	text, err := h.Extractor.Extract(fileHeader.Filename, content)
	if err != nil {
		h.failErr(c, err)
		return
	}
	common.OK(c, gin.H{"text": text})
}

// ExportSession renders a session as pdf (default) or txt.
func (h *Handler) ExportSession(c *gin.Context) {
	oid, okk := ownerFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "caller identity required")
		return
	}
	sess, err := h.Analysis.Get(c.Request.Context(), oid, c.Param("session_id"))
	if err != nil {
		h.failErr(c, err)
		return
	}

	switch c.DefaultQuery("format", "pdf") {
	case "txt":
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.txt", sess.SessionID))
		c.Data(http.StatusOK, "text/plain; charset=utf-8", export.Text(sess, h.Catalog))
	case "pdf":
		body, err := export.PDF(sess, h.Catalog)
		if err != nil {
			h.failErr(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", sess.SessionID))
		c.Data(http.StatusOK, "application/pdf", body)
	default:
		common.Fail(c, http.StatusBadRequest, 10006, "unknown export format")
	}
}

// CreateAnalysisJob queues a deferred create; the worker runs the same
// facade path as CreateSession.
func (h *Handler) CreateAnalysisJob(c *gin.Context) {
	oid, okk := ownerFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "caller identity required")
		return
	}
	if h.Rabbit == nil {
		common.Fail(c, http.StatusServiceUnavailable, 50301, "job queue unavailable")
		return
	}
	var req createSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	jobID, err := store.NewSessionID()
	if err != nil {
		h.failErr(c, err)
		return
	}
	job := &analysis.Job{
		ID:            jobID,
		OwnerID:       oid,
		Title:         req.Title,
		Text:          req.Text,
		CategoryIndex: req.Category,
		ChoiceIndexes: req.Choices,
		Status:        analysis.JobQueued,
	}
	if err := h.Analysis.Repo().CreateJob(c.Request.Context(), job); err != nil {
		h.failErr(c, err)
		return
	}
	if err := h.Rabbit.PublishJob(c.Request.Context(), job.ID); err != nil {
		h.Log.Error("enqueue failed", "job_id", job.ID, "err", err)
		common.Fail(c, http.StatusInternalServerError, 50002, "enqueue failed")
		return
	}
	common.OK(c, gin.H{"job_id": job.ID})
}

func (h *Handler) GetAnalysisJob(c *gin.Context) {
	oid, okk := ownerFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "caller identity required")
		return
	}
	job, err := h.Analysis.Repo().GetJob(c.Request.Context(), oid, c.Param("job_id"))
	if err != nil {
		h.failErr(c, err)
		return
	}
	common.OK(c, gin.H{"job": job})
}

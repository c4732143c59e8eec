package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veslo-ai/textlab/internal/common"
	"github.com/veslo-ai/textlab/internal/export"
	"github.com/veslo-ai/textlab/internal/translate"
)

func (h *Handler) ListModels(c *gin.Context) {
	common.OK(c, gin.H{"models": h.Catalog.Models()})
}

func translationView(s *translate.Session) gin.H {
	return gin.H{
		"session_id":      s.SessionID,
		"title":           s.Title,
		"model":           s.Mode,
		"query":           s.Query,
		"translation":     s.Translation,
		"source_language": s.SourceLanguageTitle(),
		"target_language": s.TargetLanguageTitle(),
		"version":         s.Version,
		"inserted_at":     s.CreatedAt,
		"updated_at":      s.UpdatedAt,
	}
}

func translationResult(r *translate.Result) gin.H {
	view := translationView(&r.Session)
	if r.Err != "" {
		view["error"] = r.Err
	}
	return view
}

type createTranslationReq struct {
	Query     string `json:"query" binding:"required"`
	Model     string `json:"model"`
	Temporary bool   `json:"temporary"`
}

func (h *Handler) CreateTranslation(c *gin.Context) {
	oid, okk := ownerFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "caller identity required")
		return
	}
	var req createTranslationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	res, err := h.Translate.Create(c.Request.Context(), oid, req.Query, req.Model, req.Temporary)
	if err != nil {
		h.failErr(c, err)
		return
	}
	common.OK(c, gin.H{"session": translationResult(res)})
}

func (h *Handler) ListTranslations(c *gin.Context) {
	oid, okk := ownerFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "caller identity required")
		return
	}
	sessions, err := h.Translate.List(c.Request.Context(), oid)
	if err != nil {
		h.failErr(c, err)
		return
	}
	views := make([]gin.H, 0, len(sessions))
	for i := range sessions {
		views = append(views, translationView(&sessions[i]))
	}
	common.OK(c, gin.H{"sessions": views})
}

func (h *Handler) GetTranslation(c *gin.Context) {
	oid, okk := ownerFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "caller identity required")
		return
	}
	sess, err := h.Translate.Get(c.Request.Context(), oid, c.Param("session_id"))
	if err != nil {
		h.failErr(c, err)
		return
	}
	common.OK(c, gin.H{"session": translationView(sess)})
}

type retranslateReq struct {
	Query           string `json:"query"`
	Model           string `json:"model"`
	ExpectedVersion *int   `json:"expected_version"`
}

func (h *Handler) Retranslate(c *gin.Context) {
	oid, okk := ownerFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "caller identity required")
		return
	}
	var req retranslateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	res, err := h.Translate.Retranslate(c.Request.Context(), oid, c.Param("session_id"),
		req.Model, req.Query, req.ExpectedVersion)
	if err != nil {
		h.failErr(c, err)
		return
	}
	common.OK(c, gin.H{"session": translationResult(res)})
}

type renameTranslationReq struct {
	Title           string `json:"title" binding:"required"`
	ExpectedVersion *int   `json:"expected_version"`
}

func (h *Handler) RenameTranslation(c *gin.Context) {
	oid, okk := ownerFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "caller identity required")
		return
	}
	var req renameTranslationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	sess, err := h.Translate.Rename(c.Request.Context(), oid, c.Param("session_id"),
		req.Title, req.ExpectedVersion)
	if err != nil {
		h.failErr(c, err)
		return
	}
	common.OK(c, gin.H{"session": translationView(sess)})
}

func (h *Handler) DeleteTranslation(c *gin.Context) {
	oid, okk := ownerFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "caller identity required")
		return
	}
	if err := h.Translate.Delete(c.Request.Context(), oid, c.Param("session_id")); err != nil {
		h.failErr(c, err)
		return
	}
	common.OK(c, gin.H{"deleted": true})
}

func (h *Handler) SearchTranslations(c *gin.Context) {
	oid, okk := ownerFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "caller identity required")
		return
	}
	results, err := h.Translate.Search(c.Request.Context(), oid, c.Query("q"))
	if err != nil {
		h.failErr(c, err)
		return
	}
	out := make([]gin.H, 0, len(results))
	for i := range results {
		out = append(out, gin.H{"session": translationView(&results[i].Session), "score": results[i].Score})
	}
	common.OK(c, gin.H{"results": out})
}

// ExportTranslation renders a translation session as pdf (default) or txt.
func (h *Handler) ExportTranslation(c *gin.Context) {
	oid, okk := ownerFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "caller identity required")
		return
	}
	sess, err := h.Translate.Get(c.Request.Context(), oid, c.Param("session_id"))
	if err != nil {
		h.failErr(c, err)
		return
	}

	switch c.DefaultQuery("format", "pdf") {
	case "txt":
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.txt", sess.SessionID))
		c.Data(http.StatusOK, "text/plain; charset=utf-8", export.TranslationText(sess))
	case "pdf":
		body, err := export.TranslationPDF(sess)
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

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veslo-ai/textlab/internal/analysis"
	"github.com/veslo-ai/textlab/internal/common"
	"github.com/veslo-ai/textlab/internal/owner"
	"github.com/veslo-ai/textlab/internal/translate"
)

type createOwnerReq struct {
	UserID      string `json:"user_id" binding:"required"`
	DisplayName string `json:"display_name"`
}

func ownerView(o *owner.Owner) gin.H {
	return gin.H{
		"user_id":          o.OwnerID,
		"display_name":     o.DisplayName,
		"temporary":        o.Temporary,
		"started_using_at": o.StartedUsingAt,
		"last_used_at":     o.LastUsedAt,
	}
}

func (h *Handler) CreateOwner(c *gin.Context) {
	var req createOwnerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	o, err := h.Owners.Create(c.Request.Context(), req.UserID, req.DisplayName)
	if err != nil {
		h.failErr(c, err)
		return
	}
	common.OK(c, ownerView(o))
}

func (h *Handler) ListOwners(c *gin.Context) {
	owners, err := h.Owners.List(c.Request.Context())
	if err != nil {
		h.failErr(c, err)
		return
	}
	views := make([]gin.H, 0, len(owners))
	for i := range owners {
		views = append(views, ownerView(&owners[i]))
	}
	common.OK(c, gin.H{"users": views})
}

func (h *Handler) GetOwner(c *gin.Context) {
	o, err := h.Owners.Get(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.failErr(c, err)
		return
	}
	common.OK(c, ownerView(o))
}

// DeleteOwner removes the owner and everything it holds — sessions of both
// kinds and queued jobs — in one transaction.
func (h *Handler) DeleteOwner(c *gin.Context) {
	err := h.Owners.Delete(c.Request.Context(), c.Param("user_id"),
		analysis.SessionTable, translate.SessionTable, analysis.JobTable)
	if err != nil {
		h.failErr(c, err)
		return
	}
	common.OK(c, gin.H{"deleted": true})
}

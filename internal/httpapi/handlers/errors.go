package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veslo-ai/textlab/internal/analysis"
	"github.com/veslo-ai/textlab/internal/catalog"
	"github.com/veslo-ai/textlab/internal/common"
	"github.com/veslo-ai/textlab/internal/document"
	"github.com/veslo-ai/textlab/internal/httpapi/middleware"
	"github.com/veslo-ai/textlab/internal/owner"
	"github.com/veslo-ai/textlab/internal/search"
	"github.com/veslo-ai/textlab/internal/store"
	"github.com/veslo-ai/textlab/internal/translate"
)

func ownerFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(middleware.OwnerIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// failErr maps service errors onto the response envelope.
func (h *Handler) failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, owner.ErrNotFound):
		common.Fail(c, http.StatusNotFound, 40401, "not found")
	case errors.Is(err, store.ErrVersionConflict):
		common.Fail(c, http.StatusConflict, 40901, "version conflict")
	case errors.Is(err, owner.ErrAlreadyExists):
		common.Fail(c, http.StatusConflict, 40902, "owner already exists")
	case errors.Is(err, document.ErrUnsupportedFormat):
		common.Fail(c, http.StatusUnsupportedMediaType, 41501, "unsupported document format")
	case errors.Is(err, analysis.ErrEmptyText),
		errors.Is(err, analysis.ErrTextTooLong),
		errors.Is(err, analysis.ErrBadTitle),
		errors.Is(err, analysis.ErrNoChanges),
		errors.Is(err, translate.ErrEmptyQuery),
		errors.Is(err, translate.ErrBadTitle),
		errors.Is(err, search.ErrEmptyQuery),
		errors.Is(err, owner.ErrBadIdentifier),
		errors.Is(err, document.ErrEmptyDocument),
		errors.Is(err, catalog.ErrUnknownCategory),
		errors.Is(err, catalog.ErrUnknownChoice),
		errors.Is(err, catalog.ErrUnknownModel):
		common.Fail(c, http.StatusBadRequest, 40001, err.Error())
	default:
		h.Log.Error("request failed", "path", c.Request.URL.Path, "err", err)
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
	}
}

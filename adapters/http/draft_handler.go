package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/portfolio-editor/internal/application/usecase/editor"
	"github.com/khoahotran/portfolio-editor/internal/domain/draft"
	"github.com/khoahotran/portfolio-editor/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-editor/pkg/apperror"
	"github.com/khoahotran/portfolio-editor/pkg/logger"
)

// PreviewSource serves pending images by preview reference.
type PreviewSource interface {
	Get(ref string) ([]byte, string, bool)
}

type DraftHandler struct {
	editorUC *editor.EditorUseCase
	previews PreviewSource
	logger   logger.Logger
}

func NewDraftHandler(uc *editor.EditorUseCase, previews PreviewSource, log logger.Logger) *DraftHandler {
	return &DraftHandler{
		editorUC: uc,
		previews: previews,
		logger:   log,
	}
}

func draftID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperror.NewInvalidInput("draft id must be a UUID", err))
		return uuid.Nil, false
	}
	return id, true
}

func entryID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("entryID"), 10, 64)
	if err != nil {
		c.Error(apperror.NewInvalidInput("entry id must be an integer", err))
		return 0, false
	}
	return id, true
}

func imageSlot(c *gin.Context) (portfolio.Slot, bool) {
	slot, err := portfolio.ParseSlot(c.Param("slot"))
	if err != nil {
		c.Error(apperror.NewNotFound("image slot", c.Param("slot")))
		return "", false
	}
	return slot, true
}

func (h *DraftHandler) mutate(c *gin.Context, status int, fn func(d *draft.Draft) error) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	st, err := h.editorUC.Mutate(c.Request.Context(), id, fn)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(status, ToDraftDTO(id, st))
}

func (h *DraftHandler) OpenDraft(c *gin.Context) {
	output, err := h.editorUC.OpenDraft(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, ToDraftDTO(output.DraftID, &output.Draft))
}

func (h *DraftHandler) GetDraft(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	st, err := h.editorUC.View(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToDraftDTO(id, st))
}

func (h *DraftHandler) CloseDraft(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	if err := h.editorUC.CloseDraft(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DraftHandler) UpdateProfile(c *gin.Context) {
	var req UpdateFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req) == 0 {
		c.Error(apperror.NewInvalidInput("body must be a JSON object of profile fields", err))
		return
	}
	fields := make(map[draft.ProfileField]string, len(req))
	for name, value := range req {
		f, err := draft.ParseProfileField(name)
		if err != nil {
			c.Error(apperror.NewInvalidInput(err.Error(), err))
			return
		}
		fields[f] = value
	}

	h.mutate(c, http.StatusOK, func(d *draft.Draft) error {
		for f, value := range fields {
			d.SetProfileField(f, value)
		}
		return nil
	})
}

func (h *DraftHandler) AddEntry(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	var entry portfolio.ExperienceEntry
	st, err := h.editorUC.Mutate(c.Request.Context(), id, func(d *draft.Draft) error {
		e, _, err := d.AddEntry()
		entry = e
		return err
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, AddEntryResponse{Entry: entry, Draft: ToDraftDTO(id, st)})
}

func (h *DraftHandler) UpdateEntry(c *gin.Context) {
	eid, ok := entryID(c)
	if !ok {
		return
	}
	var req UpdateFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req) == 0 {
		c.Error(apperror.NewInvalidInput("body must be a JSON object of entry fields", err))
		return
	}
	fields := make(map[draft.EntryField]string, len(req))
	for name, value := range req {
		f, err := draft.ParseEntryField(name)
		if err != nil {
			c.Error(apperror.NewInvalidInput(err.Error(), err))
			return
		}
		fields[f] = value
	}

	h.mutate(c, http.StatusOK, func(d *draft.Draft) error {
		for f, value := range fields {
			d.SetEntryField(eid, f, value)
		}
		return nil
	})
}

func (h *DraftHandler) RemoveEntry(c *gin.Context) {
	eid, ok := entryID(c)
	if !ok {
		return
	}
	h.mutate(c, http.StatusOK, func(d *draft.Draft) error {
		d.RemoveEntry(eid)
		return nil
	})
}

func (h *DraftHandler) SetImage(c *gin.Context) {
	slot, ok := imageSlot(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(apperror.NewInvalidInput("'file' is required", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.Error(apperror.NewInternal("failed to open file", err))
		return
	}
	defer file.Close()

	// One byte past the limit is enough for the draft to reject it.
	data, err := io.ReadAll(io.LimitReader(file, draft.MaxUploadBytes+1))
	if err != nil {
		c.Error(apperror.NewInternal("failed to read file", err))
		return
	}
	upload := &draft.Upload{Filename: fileHeader.Filename, Data: data}

	h.mutate(c, http.StatusOK, func(d *draft.Draft) error {
		_, err := d.SetImage(slot, upload)
		return err
	})
}

func (h *DraftHandler) RemoveImage(c *gin.Context) {
	slot, ok := imageSlot(c)
	if !ok {
		return
	}
	h.mutate(c, http.StatusOK, func(d *draft.Draft) error {
		_, err := d.SetImage(slot, nil)
		return err
	})
}

func (h *DraftHandler) Preview(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	p, err := h.editorUC.Preview(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, PreviewDTO{ID: id.String(), Preview: *p})
}

func (h *DraftHandler) ServePreviewImage(c *gin.Context) {
	ref := c.Param("ref")
	data, contentType, ok := h.previews.Get(ref)
	if !ok {
		c.Error(apperror.NewNotFound("preview", ref))
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, contentType, data)
}

func (h *DraftHandler) Save(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	output, err := h.editorUC.Save(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	h.logger.Info("Draft saved over HTTP", zap.String("draft_id", id.String()), zap.String("subject", c.GetString(GinContextKeySubject)))

	changed := output.ChangedSlots
	if changed == nil {
		changed = []portfolio.Slot{}
	}
	c.JSON(http.StatusOK, SaveResponse{Record: output.Record, ChangedSlots: changed})
}

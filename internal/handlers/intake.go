package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Slydexx/esthetica-app/internal/media"
	"github.com/Slydexx/esthetica-app/internal/middleware"
)

const clientSessionHeader = "X-Client-Session"

// sessionKey scopes the photo slots. Signed-in users get their account ID
// so slots follow them across devices; anonymous visitors supply a client
// generated session header.
func (h HandlerSet) sessionKey(c *gin.Context) (string, bool) {
	if user, ok := middleware.CurrentUser(c); ok {
		return user.ID, true
	}
	key := strings.TrimSpace(c.GetHeader(clientSessionHeader))
	if key == "" {
		return "", false
	}
	return key, true
}

// adoptIntake moves photos uploaded under the anonymous client session onto
// the account key once the user is known. Adoption failures never block the
// sign-in itself.
func (h HandlerSet) adoptIntake(c *gin.Context, userID string) {
	clientSession := strings.TrimSpace(c.GetHeader(clientSessionHeader))
	if clientSession == "" {
		return
	}
	if err := h.intakeService.Adopt(c.Request.Context(), clientSession, userID); err != nil {
		h.log.Warn().Err(err).Str("user_id", userID).Msg("intake adoption failed")
	}
}

type slotsResponse struct {
	Slots    []string `json:"slots"`
	Filled   int      `json:"filled"`
	Complete bool     `json:"complete"`
}

func slotsPayload(slots media.SlotSet) slotsResponse {
	out := make([]string, media.SlotCount)
	for i, slot := range slots {
		out[i] = string(slot)
	}
	return slotsResponse{
		Slots:    out,
		Filled:   slots.Filled(),
		Complete: slots.Complete(),
	}
}

func (h HandlerSet) IntakeSlots(c *gin.Context) {
	sessionKey, ok := h.sessionKey(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_required"})
		return
	}

	slots, err := h.intakeService.Slots(c.Request.Context(), sessionKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, slotsPayload(slots))
}

// IntakeUpload accepts one or more photos under the "photos" multipart field.
// An optional "slot" field pins the first photo to that slot; without it the
// photos fill empty slots front to left profile.
func (h HandlerSet) IntakeUpload(c *gin.Context) {
	sessionKey, ok := h.sessionKey(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_required"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart_form_required"})
		return
	}

	files := form.File["photos"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photos_required"})
		return
	}

	var target *int
	if raw := c.PostForm("slot"); raw != "" {
		index, err := strconv.Atoi(raw)
		if err != nil || index < 0 || index >= media.SlotCount {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_slot"})
			return
		}
		target = &index
	}

	payloads := make([][]byte, 0, len(files))
	for _, header := range files {
		data, err := h.readUpload(header)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		payloads = append(payloads, data)
	}

	slots, err := h.intakeService.Upload(c.Request.Context(), sessionKey, payloads, target)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, media.ErrDecode) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, slotsPayload(slots))
}

func (h HandlerSet) readUpload(header *multipart.FileHeader) ([]byte, error) {
	if header.Size > h.cfg.Intake.MaxUploadSize {
		return nil, errors.New("file too large")
	}

	file, err := header.Open()
	if err != nil {
		return nil, errors.New("unreadable upload")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.Intake.MaxUploadSize+1))
	if err != nil {
		return nil, errors.New("unreadable upload")
	}
	if int64(len(data)) > h.cfg.Intake.MaxUploadSize {
		return nil, errors.New("file too large")
	}
	return data, nil
}

func (h HandlerSet) IntakeRemove(c *gin.Context) {
	sessionKey, ok := h.sessionKey(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_required"})
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 || index >= media.SlotCount {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_slot"})
		return
	}

	slots, err := h.intakeService.Remove(c.Request.Context(), sessionKey, index)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, slotsPayload(slots))
}

func (h HandlerSet) IntakeClear(c *gin.Context) {
	sessionKey, ok := h.sessionKey(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_required"})
		return
	}

	if err := h.intakeService.Clear(c.Request.Context(), sessionKey); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

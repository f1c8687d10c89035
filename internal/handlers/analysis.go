package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Slydexx/esthetica-app/internal/middleware"
	"github.com/Slydexx/esthetica-app/internal/models"
	"github.com/Slydexx/esthetica-app/internal/repository"
	"github.com/Slydexx/esthetica-app/internal/service"
)

type analyzeRequest struct {
	Name             string `json:"name" binding:"required"`
	Age              int    `json:"age" binding:"required"`
	Gender           string `json:"gender" binding:"required"`
	MakeupPreference *bool  `json:"makeupPreference"`
	Locale           string `json:"locale"`
}

func (r analyzeRequest) attributes() (models.UserAttributes, error) {
	gender, err := models.ParseGender(r.Gender)
	if err != nil {
		return models.UserAttributes{}, err
	}
	attrs := models.UserAttributes{
		Name:   r.Name,
		Age:    r.Age,
		Gender: gender,
	}
	if gender == models.GenderUnspecified {
		attrs.MakeupPreference = r.MakeupPreference
	}
	return attrs, attrs.Validate()
}

// analysisPayload shapes an artifact response for the user's tier. Anyone may
// run an analysis; the generated visuals are stripped until the account is
// premium, and the payment confirmation returns the same artifact unlocked.
func analysisPayload(artifact models.AnalysisArtifact, state *models.Entitlement) gin.H {
	locked := state == nil || !state.Premium
	if locked {
		artifact = artifact.Redacted()
	}
	return gin.H{"analysis": artifact, "locked": locked}
}

// RunAnalysis executes the full workflow synchronously and returns the
// artifact, with the visuals locked for non-premium accounts. Clients wanting
// step-by-step progress use the websocket variant instead.
func (h HandlerSet) RunAnalysis(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	attrs, err := req.attributes()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := h.entitlementService.CurrentState(c.Request.Context(), &user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	slots, err := h.intakeService.Slots(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	locale := models.ParseLocale(req.Locale)
	artifact, err := h.analysisService.Run(c.Request.Context(), slots, attrs, locale, nil)
	if err != nil {
		if errors.Is(err, service.ErrIncompleteInput) {
			c.JSON(http.StatusConflict, gin.H{"error": "all three photos required"})
			return
		}
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("analysis run failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	if err := h.analysisService.Store(c.Request.Context(), user.ID, artifact); err != nil {
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("artifact store failed")
	}

	c.JSON(http.StatusOK, analysisPayload(artifact, state))
}

func (h HandlerSet) LastAnalysis(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	artifact, err := h.analysisService.LoadLast(c.Request.Context(), user.ID)
	if err != nil {
		if errors.Is(err, service.ErrNoArtifact) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no_analysis"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	state, err := h.entitlementService.CurrentState(c.Request.Context(), &user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, analysisPayload(artifact, state))
}

// ResetAnalysis drops the cached artifact so the client can start a fresh
// session. Photo slots are cleared along with it.
func (h HandlerSet) ResetAnalysis(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.analysisService.ClearLast(c.Request.Context(), user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.intakeService.Clear(c.Request.Context(), user.ID); err != nil {
		h.log.Warn().Err(err).Str("user_id", user.ID).Msg("intake clear failed")
	}

	c.Status(http.StatusNoContent)
}

type regenerateRequest struct {
	Slot *int `json:"slot" binding:"required"`
}

// RegenerateImage re-renders one enhanced portrait. The credit is consumed
// before the model call and is not refunded on failure.
func (h HandlerSet) RegenerateImage(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req regenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Slot == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slot required"})
		return
	}
	slot := *req.Slot
	if slot < 0 || slot >= models.EnhancementSlots {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_slot"})
		return
	}

	credits, err := h.entitlementService.ConsumeCredit(c.Request.Context(), user, slot)
	if err != nil {
		if errors.Is(err, repository.ErrNoCredits) {
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "no_credits"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	artifact, err := h.analysisService.Regenerate(c.Request.Context(), user.ID, slot)
	if err != nil {
		if errors.Is(err, service.ErrNoArtifact) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no_analysis"})
			return
		}
		h.log.Error().Err(err).Str("user_id", user.ID).Int("slot", slot).Msg("regeneration failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	state, err := h.entitlementService.CurrentState(c.Request.Context(), &user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := analysisPayload(artifact, state)
	resp["credits"] = credits[:]
	c.JSON(http.StatusOK, resp)
}

type confirmPaymentRequest struct {
	Plan string `json:"plan" binding:"required"`
}

// ConfirmPayment is the return leg of the external checkout redirect. The
// upgrade is idempotent, so replaying the confirmation URL is harmless.
func (h HandlerSet) ConfirmPayment(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var plan models.PlanType
	switch req.Plan {
	case string(models.PlanSingle):
		plan = models.PlanSingle
	case string(models.PlanPro):
		plan = models.PlanPro
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_plan"})
		return
	}

	state, err := h.entitlementService.Upgrade(c.Request.Context(), user, plan)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"entitlement": entitlementPayload(&state)}

	// The pre-payment artifact, if the client cached one server-side,
	// lets the results page render immediately after the redirect.
	if artifact, err := h.analysisService.LoadLast(c.Request.Context(), user.ID); err == nil {
		resp["analysis"] = artifact
	}

	c.JSON(http.StatusOK, resp)
}

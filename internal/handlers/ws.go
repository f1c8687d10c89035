package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Slydexx/esthetica-app/internal/middleware"
	"github.com/Slydexx/esthetica-app/internal/models"
	"github.com/Slydexx/esthetica-app/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Cross-origin policy is enforced by the CORS middleware in front of
	// the upgrade request.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const wsWriteTimeout = 10 * time.Second

type wsFrame struct {
	Type     string                   `json:"type"`
	Message  string                   `json:"message,omitempty"`
	Error    string                   `json:"error,omitempty"`
	Analysis *models.AnalysisArtifact `json:"analysis,omitempty"`
	Locked   bool                     `json:"locked,omitempty"`
}

// RunAnalysisSocket is the streaming variant of RunAnalysis. The client
// sends one request frame, then receives a progress frame before each
// remote step and finally either a result or an error frame.
func (h HandlerSet) RunAnalysisSocket(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	var req analyzeRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.writeFrame(conn, wsFrame{Type: "error", Error: "invalid request frame"})
		return
	}

	attrs, err := req.attributes()
	if err != nil {
		h.writeFrame(conn, wsFrame{Type: "error", Error: err.Error()})
		return
	}

	ctx := c.Request.Context()

	state, err := h.entitlementService.CurrentState(ctx, &user)
	if err != nil {
		h.writeFrame(conn, wsFrame{Type: "error", Error: err.Error()})
		return
	}

	slots, err := h.intakeService.Slots(ctx, user.ID)
	if err != nil {
		h.writeFrame(conn, wsFrame{Type: "error", Error: err.Error()})
		return
	}

	locale := models.ParseLocale(req.Locale)
	artifact, err := h.analysisService.Run(ctx, slots, attrs, locale, func(message string) {
		h.writeFrame(conn, wsFrame{Type: "progress", Message: message})
	})
	if err != nil {
		if errors.Is(err, service.ErrIncompleteInput) {
			h.writeFrame(conn, wsFrame{Type: "error", Error: "all three photos required"})
			return
		}
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("analysis run failed")
		h.writeFrame(conn, wsFrame{Type: "error", Error: err.Error()})
		return
	}

	if err := h.analysisService.Store(ctx, user.ID, artifact); err != nil {
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("artifact store failed")
	}

	// Non-premium runs still cache and persist the full artifact; the frame
	// sent back carries the locked copy until payment unlocks it.
	locked := state == nil || !state.Premium
	if locked {
		artifact = artifact.Redacted()
	}
	h.writeFrame(conn, wsFrame{Type: "result", Analysis: &artifact, Locked: locked})
}

func (h HandlerSet) writeFrame(conn *websocket.Conn, frame wsFrame) {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(frame); err != nil {
		h.log.Debug().Err(err).Msg("websocket write failed")
	}
}

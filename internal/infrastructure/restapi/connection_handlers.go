package restapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"wallet_connector/internal/app/port"
	"wallet_connector/internal/domain/entity"
)

const sseBuffer = 16

// APIError is the body of every non-2xx response.
type APIError struct {
	Error      string               `json:"error"`
	Reason     entity.FailureReason `json:"reason,omitempty"`
	InstallURL string               `json:"installUrl,omitempty"`
}

type dialogRequest struct {
	Open *bool `json:"open" binding:"required"`
}

type networkRequest struct {
	Network string `json:"network" binding:"required"`
}

type walletRequest struct {
	Wallet string `json:"wallet" binding:"required"`
}

// ConnectionHandler обрабатывает HTTP запросы, связанные с подключением кошелька.
type ConnectionHandler struct {
	svc    port.ConnectionService
	logger port.Logger
}

// NewConnectionHandler создает новый экземпляр ConnectionHandler.
func NewConnectionHandler(svc port.ConnectionService, logger port.Logger) *ConnectionHandler {
	return &ConnectionHandler{svc: svc, logger: logger}
}

// GetNetworks lists the networks a wallet can be connected to.
func (h *ConnectionHandler) GetNetworks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.svc.Networks()})
}

// GetConnection returns the current state snapshot.
func (h *ConnectionHandler) GetConnection(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.State())
}

// SetDialog opens or closes the connection dialog. Closing is refused while the wallet is being asked for approval;
// /connection/reset forces it.
func (h *ConnectionHandler) SetDialog(c *gin.Context) {
	var req dialogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: err.Error()})
		return
	}

	if *req.Open {
		h.svc.OpenDialog()
		c.JSON(http.StatusOK, h.svc.State())
		return
	}
	if h.svc.State().Phase == entity.PhaseAwaitingWalletApproval {
		c.JSON(http.StatusConflict, APIError{Error: "waiting for wallet approval, the dialog cannot be closed"})
		return
	}
	h.svc.CloseDialog()
	c.JSON(http.StatusOK, h.svc.State())
}

// Reset drops the selection and any attempt in flight.
func (h *ConnectionHandler) Reset(c *gin.Context) {
	h.svc.Reset()
	c.JSON(http.StatusOK, h.svc.State())
}

func (h *ConnectionHandler) SelectNetwork(c *gin.Context) {
	var req networkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: err.Error()})
		return
	}
	if err := h.svc.SelectNetwork(req.Network); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.svc.State())
}

func (h *ConnectionHandler) SelectWallet(c *gin.Context) {
	var req walletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: err.Error()})
		return
	}
	if err := h.svc.SelectWallet(req.Wallet); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.svc.State())
}

// Connect starts the attempt and answers 202; the outcome arrives on the event stream.
func (h *ConnectionHandler) Connect(c *gin.Context) {
	if err := h.svc.Connect(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, h.svc.State())
}

func (h *ConnectionHandler) Disconnect(c *gin.Context) {
	if err := h.svc.Disconnect(); err != nil {
		// the session is gone either way
		h.logger.Warn("Disconnect finished with error", "error", err)
	}
	c.JSON(http.StatusOK, h.svc.State())
}

// GetPairingQR serves the QR code of the latest pairing URI as PNG.
func (h *ConnectionHandler) GetPairingQR(c *gin.Context) {
	uri, png, ok := h.svc.LatestPairing()
	if !ok || len(png) == 0 {
		c.JSON(http.StatusNotFound, APIError{Error: "no pairing in progress"})
		return
	}
	c.Header("X-Pairing-URI", uri)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// StreamEvents pushes state machine events as server-sent events, starting with the current state.
func (h *ConnectionHandler) StreamEvents(c *gin.Context) {
	queue := newEventQueue(sseBuffer)
	unsubscribe := h.svc.Subscribe(func(ev entity.ConnectionEvent) {
		if queue.push(ev) {
			h.logger.Warn("Event stream client is too slow, dropping oldest event", "type", ev.Type)
		}
	})
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent(string(entity.EventStateChanged), entity.ConnectionEvent{Type: entity.EventStateChanged, State: h.svc.State()})
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-queue.ready:
			for _, ev := range queue.drain() {
				c.SSEvent(string(ev.Type), ev)
			}
			return true
		}
	})
}

// Healthz answers liveness probes.
func (h *ConnectionHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "phase": h.svc.State().Phase})
}

func (h *ConnectionHandler) writeError(c *gin.Context, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, body)
}

// errorResponse maps state machine errors onto HTTP statuses.
func errorResponse(err error) (int, APIError) {
	var cerr *entity.ConnectError
	if errors.As(err, &cerr) {
		body := APIError{Error: cerr.Message, Reason: cerr.Reason}
		switch cerr.Reason {
		case entity.ReasonInjectedProviderMissing:
			body.InstallURL = entity.InstallURL
			return http.StatusPreconditionFailed, body
		case entity.ReasonUnsupportedCombination, entity.ReasonUnknownNetwork:
			return http.StatusUnprocessableEntity, body
		default:
			return http.StatusBadGateway, body
		}
	}

	switch {
	case errors.Is(err, entity.ErrUnknownNetwork):
		return http.StatusNotFound, APIError{Error: err.Error(), Reason: entity.ReasonUnknownNetwork}
	case errors.Is(err, entity.ErrUnsupportedWalletKind):
		return http.StatusBadRequest, APIError{Error: err.Error(), Reason: entity.ReasonUnsupportedWalletKind}
	case errors.Is(err, entity.ErrConnectInFlight):
		return http.StatusConflict, APIError{Error: err.Error()}
	case errors.Is(err, entity.ErrNetworkNotSelected), errors.Is(err, entity.ErrSelectionIncomplete):
		return http.StatusConflict, APIError{Error: err.Error()}
	default:
		return http.StatusInternalServerError, APIError{Error: entity.MessageFallback}
	}
}

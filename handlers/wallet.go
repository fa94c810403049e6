package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"sticket-backend/models"
	"sticket-backend/wallet"
)

type WalletSession interface {
	Snapshot() models.WalletSession
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	GetNetwork(ctx context.Context) (models.Network, error)
	GetNetworkDetails(ctx context.Context) (models.NetworkDetails, error)
	Error() string
	IsLoading() bool
	ManuallyDisconnected() bool
}

type WalletHandler struct {
	session WalletSession
}

func NewWalletHandler(session WalletSession) *WalletHandler {
	return &WalletHandler{session: session}
}

func (h *WalletHandler) GetWallet(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"wallet":                h.session.Snapshot(),
		"loading":               h.session.IsLoading(),
		"error":                 h.session.Error(),
		"manually_disconnected": h.session.ManuallyDisconnected(),
	})
}

func (h *WalletHandler) Connect(c *gin.Context) {
	if err := h.session.Connect(c); err != nil {
		log.Printf("Wallet connect failed: %v", err)
		status := http.StatusBadGateway
		if errors.Is(err, wallet.ErrWalletNotFound) {
			status = http.StatusServiceUnavailable
		}
		message := h.session.Error()
		if message == "" {
			message = err.Error()
		}
		c.JSON(status, gin.H{"success": false, "message": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"wallet":  h.session.Snapshot(),
	})
}

func (h *WalletHandler) Disconnect(c *gin.Context) {
	if err := h.session.Disconnect(c); err != nil {
		log.Printf("Wallet disconnect could not be persisted: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *WalletHandler) GetNetwork(c *gin.Context) {
	network, err := h.session.GetNetwork(c)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"network": network}
	if details, err := h.session.GetNetworkDetails(c); err == nil {
		resp["details"] = details
	}
	c.JSON(http.StatusOK, resp)
}

package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"sticket-backend/contracts"
	"sticket-backend/models"
	"sticket-backend/services"
)

type EventService interface {
	GetEventDetails(ctx context.Context, address string) (*models.EventDetails, error)
	GetCreatorEvents(ctx context.Context, creator string) (*models.CreatorEventsResponse, error)
	CancelListing(ctx context.Context, address string, ticketID uint32) (string, error)
}

type EventHandler struct {
	events EventService
}

func NewEventHandler(events EventService) *EventHandler {
	return &EventHandler{events: events}
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event address"})
		return
	}

	details, err := h.events.GetEventDetails(c, address)
	if err != nil {
		log.Printf("Error loading event %s: %v", address, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load event from chain"})
		return
	}

	c.JSON(http.StatusOK, details)
}

func (h *EventHandler) GetCreatorEvents(c *gin.Context) {
	creator := c.Param("address")
	if !common.IsHexAddress(creator) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid creator address"})
		return
	}

	resp, err := h.events.GetCreatorEvents(c, creator)
	if err != nil {
		log.Printf("Error loading events for creator %s: %v", creator, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load creator events"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CancelListing withdraws a secondary-market listing owned by the session wallet.
func (h *EventHandler) CancelListing(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid event address"})
		return
	}
	ticketID, ok := parseTicketID(c.Param("ticketId"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid ticket ID"})
		return
	}

	txHash, err := h.events.CancelListing(c, address, ticketID)
	if err != nil {
		log.Printf("Error cancelling listing %d on %s: %v", ticketID, address, err)
		c.JSON(listingErrorStatus(err), gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Listing cancelled",
		"tx_hash": txHash,
	})
}

func listingErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrWalletNotConnected):
		return http.StatusUnauthorized
	case errors.Is(err, contracts.ErrExecutionReverted):
		return http.StatusConflict
	}
	return http.StatusBadGateway
}

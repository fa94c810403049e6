package handlers

import (
	"context"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"sticket-backend/checkin"
	"sticket-backend/models"
)

const msgInvalidEventAddress = "Invalid event address"

// CheckinLog is the durable audit log of check-in attempts.
type CheckinLog interface {
	List(ctx context.Context, eventAddress string, limit int) ([]models.CheckInAttempt, error)
}

type CheckinHandler struct {
	manager  *checkin.Manager
	auditLog CheckinLog
}

// NewCheckinHandler builds the check-in handler. auditLog may be nil when no
// database is configured.
func NewCheckinHandler(manager *checkin.Manager, auditLog CheckinLog) *CheckinHandler {
	return &CheckinHandler{
		manager:  manager,
		auditLog: auditLog,
	}
}

func (h *CheckinHandler) VerifyTicket(c *gin.Context) {
	eventAddress, ok := eventAddressParam(c)
	if !ok {
		return
	}
	ticketID, ok := parseTicketID(c.Param("ticketId"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid ticket ID"})
		return
	}

	ticket, err := h.manager.For(eventAddress).VerifyTicket(c, ticketID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": checkin.MsgNoEventAddress})
		return
	}
	if ticket == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": checkin.MsgTicketNotFound})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"ticket":  ticket,
	})
}

func (h *CheckinHandler) CheckIn(c *gin.Context) {
	eventAddress, ok := eventAddressParam(c)
	if !ok {
		return
	}

	var req models.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.TicketID < 0 || *req.TicketID > math.MaxUint32 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid ticket ID"})
		return
	}

	log.Printf("Checking in ticket: event=%s, ticket=%d", eventAddress, *req.TicketID)

	result := h.manager.For(eventAddress).MarkTicketUsed(c, uint32(*req.TicketID))
	respondWithResult(c, result)
}

func (h *CheckinHandler) CheckInQR(c *gin.Context) {
	eventAddress, ok := eventAddressParam(c)
	if !ok {
		return
	}

	var req models.QRCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.manager.For(eventAddress).ProcessQRCode(c, req.QRData)
	respondWithResult(c, result)
}

// GetCheckins returns the in-memory state of the event's check-in desk.
func (h *CheckinHandler) GetCheckins(c *gin.Context) {
	eventAddress, ok := eventAddressParam(c)
	if !ok {
		return
	}

	o, ok := h.manager.Lookup(eventAddress)
	if !ok {
		c.JSON(http.StatusOK, gin.H{
			"event_address": eventAddress,
			"history":       []models.CheckInHistoryEntry{},
			"stats":         models.CheckInStats{},
			"last_result":   nil,
			"processing":    false,
			"error":         "",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"event_address": o.EventAddress(),
		"history":       o.History(),
		"stats":         o.Stats(),
		"last_result":   o.LastResult(),
		"processing":    o.IsProcessing(),
		"error":         o.Error(),
	})
}

func (h *CheckinHandler) GetCheckinLog(c *gin.Context) {
	if h.auditLog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Check-in log is not configured"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	eventAddress, ok := eventAddressParam(c)
	if !ok {
		return
	}
	attempts, err := h.auditLog.List(c, eventAddress, limit)
	if err != nil {
		log.Printf("Error listing check-in attempts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, attempts)
}

// ResetCheckin clears the last result and error. The history is kept.
func (h *CheckinHandler) ResetCheckin(c *gin.Context) {
	eventAddress, ok := eventAddressParam(c)
	if !ok {
		return
	}
	if o, ok := h.manager.Lookup(eventAddress); ok {
		o.Reset()
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func respondWithResult(c *gin.Context, result models.CheckInResult) {
	c.JSON(checkInStatus(result), gin.H{
		"success": result.Success,
		"message": result.Message,
		"result":  result,
	})
}

func checkInStatus(result models.CheckInResult) int {
	if result.Success {
		return http.StatusOK
	}
	switch result.Message {
	case checkin.MsgWalletNotConnected:
		return http.StatusUnauthorized
	case checkin.MsgNotEventCreator:
		return http.StatusForbidden
	case checkin.MsgTicketNotFound:
		return http.StatusNotFound
	case checkin.MsgTicketAlreadyUsed, checkin.MsgTicketUsedOnChain, checkin.MsgCheckInInProgress:
		return http.StatusConflict
	case checkin.MsgNoEventAddress, checkin.MsgInvalidQRCode, checkin.MsgInvalidQRTicketID:
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

// eventAddressParam reads :address and rejects anything that is not a hex contract
// address, so no orchestrator is created for it.
func eventAddressParam(c *gin.Context) (string, bool) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msgInvalidEventAddress})
		return "", false
	}
	return address, true
}

func parseTicketID(value string) (uint32, bool) {
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(id), true
}

package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"sticket-backend/contracts"
	"sticket-backend/models"
	"sticket-backend/services"
)

type eventServiceStub struct {
	details   *models.EventDetails
	creator   *models.CreatorEventsResponse
	err       error
	cancelErr error
	cancelled []uint32
}

func (s *eventServiceStub) GetEventDetails(ctx context.Context, address string) (*models.EventDetails, error) {
	return s.details, s.err
}

func (s *eventServiceStub) GetCreatorEvents(ctx context.Context, creator string) (*models.CreatorEventsResponse, error) {
	return s.creator, s.err
}

func (s *eventServiceStub) CancelListing(ctx context.Context, address string, ticketID uint32) (string, error) {
	if s.cancelErr != nil {
		return "", s.cancelErr
	}
	s.cancelled = append(s.cancelled, ticketID)
	return "0xcancel", nil
}

func setupEventRouter(stub *eventServiceStub) *gin.Engine {
	h := NewEventHandler(stub)
	router := gin.New()
	api := router.Group("/api/v1")
	api.GET("/events/:address", h.GetEvent)
	api.GET("/creators/:address/events", h.GetCreatorEvents)
	api.POST("/events/:address/listings/:ticketId/cancel", h.CancelListing)
	return router
}

func TestEventHandler_GetEvent(t *testing.T) {
	stub := &eventServiceStub{details: &models.EventDetails{
		ContractID:   testEvent,
		Name:         "Lagos Jazz Night",
		PrimaryPrice: decimal.RequireFromString("2.5"),
	}}
	router := setupEventRouter(stub)

	w := performRequest(router, http.MethodGet, "/api/v1/events/"+testEvent, "")
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Lagos Jazz Night", body["name"])
	assert.Equal(t, "2.5", body["primary_price"])

	w = performRequest(router, http.MethodGet, "/api/v1/events/not-an-address", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	stub.err = errors.New("connection refused")
	w = performRequest(router, http.MethodGet, "/api/v1/events/"+testEvent, "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestEventHandler_GetCreatorEvents(t *testing.T) {
	stub := &eventServiceStub{creator: &models.CreatorEventsResponse{
		Events:           []models.CreatorEvent{{ID: 1, Name: "Lagos Jazz Night", TicketsMinted: 40}},
		TotalRevenue:     decimal.NewFromInt(100),
		TotalTicketsSold: 40,
	}}
	router := setupEventRouter(stub)

	w := performRequest(router, http.MethodGet, "/api/v1/creators/"+testCreator+"/events", "")
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "100", body["total_revenue"])
	assert.Equal(t, float64(40), body["total_tickets_sold"])
	assert.Len(t, body["events"], 1)

	w = performRequest(router, http.MethodGet, "/api/v1/creators/bob/events", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventHandler_CancelListing(t *testing.T) {
	stub := &eventServiceStub{}
	router := setupEventRouter(stub)
	path := "/api/v1/events/" + testEvent + "/listings/3/cancel"

	w := performRequest(router, http.MethodPost, path, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0xcancel", decode(t, w)["tx_hash"])
	assert.Equal(t, []uint32{3}, stub.cancelled)

	w = performRequest(router, http.MethodPost, "/api/v1/events/"+testEvent+"/listings/x/cancel", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, tc := range []struct {
		err  error
		code int
	}{
		{services.ErrWalletNotConnected, http.StatusUnauthorized},
		{fmt.Errorf("%w: not the seller", contracts.ErrExecutionReverted), http.StatusConflict},
		{errors.New("connection refused"), http.StatusBadGateway},
	} {
		stub.cancelErr = tc.err
		w = performRequest(router, http.MethodPost, path, "")
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
		assert.Equal(t, false, decode(t, w)["success"])
	}
}

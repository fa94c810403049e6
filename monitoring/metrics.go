package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sticket-backend/checkin"
	"sticket-backend/models"
)

var (
	checkInAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sticket_checkin_attempts_total",
			Help: "Total check-in attempts by outcome",
		},
		[]string{"status", "reason"},
	)

	checkInDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sticket_checkin_duration_seconds",
			Help:    "Duration of check-in attempts, including signing and confirmation",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"status"},
	)

	ticketVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sticket_ticket_verifications_total",
			Help: "Ticket reads by result",
		},
		[]string{"result"},
	)

	walletChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sticket_wallet_connection_checks_total",
			Help: "Wallet connection checks by status",
		},
		[]string{"status"},
	)

	walletConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sticket_wallet_connected",
			Help: "1 when the operator wallet session is connected",
		},
	)
)

// Monitor records check-in and wallet metrics.
type Monitor struct{}

func NewMonitor() *Monitor {
	return &Monitor{}
}

// TrackCheckIn counts an attempt. The reason label is the operator message for
// failures, which is a small fixed set apart from raw node errors.
func (m *Monitor) TrackCheckIn(result models.CheckInResult, duration time.Duration) {
	status := "failure"
	reason := reasonLabel(result.Message)
	if result.Success {
		status = "success"
		reason = ""
	}
	checkInAttempts.WithLabelValues(status, reason).Inc()
	checkInDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func (m *Monitor) TrackVerification(found bool) {
	result := "not_found"
	if found {
		result = "found"
	}
	ticketVerifications.WithLabelValues(result).Inc()
}

func (m *Monitor) TrackConnectionCheck(status string) {
	walletChecks.WithLabelValues(status).Inc()
}

func (m *Monitor) SetWalletConnected(connected bool) {
	if connected {
		walletConnected.Set(1)
		return
	}
	walletConnected.Set(0)
}

var knownReasons = map[string]string{
	checkin.MsgWalletNotConnected: "wallet_not_connected",
	checkin.MsgNoEventAddress:     "no_event_address",
	checkin.MsgTicketNotFound:     "ticket_not_found",
	checkin.MsgTicketAlreadyUsed:  "ticket_already_used",
	checkin.MsgTicketUsedOnChain:  "ticket_used_on_chain",
	checkin.MsgNotEventCreator:    "not_event_creator",
	checkin.MsgInvalidQRCode:      "invalid_qr",
	checkin.MsgInvalidQRTicketID:  "invalid_qr_ticket_id",
	checkin.MsgCheckInInProgress:  "in_progress",
}

func reasonLabel(message string) string {
	if reason, ok := knownReasons[message]; ok {
		return reason
	}
	return "other"
}

package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sticket-backend/models"
)

func startTestNATS(t *testing.T) string {
	t.Helper()
	opts := &natsserver.Options{Host: "127.0.0.1", Port: -1}
	srv, err := natsserver.NewServer(opts)
	require.NoError(t, err)
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

func subscribe(t *testing.T, url, subject string) chan *nats.Msg {
	t.Helper()
	nc, err := nats.Connect(url)
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	ch := make(chan *nats.Msg, 8)
	_, err = nc.ChanSubscribe(subject, ch)
	require.NoError(t, err)
	require.NoError(t, nc.Flush())
	return ch
}

func receive(t *testing.T, ch chan *nats.Msg) *nats.Msg {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published message")
		return nil
	}
}

func TestPublishersImplementPublisher(t *testing.T) {
	var _ Publisher = (*NATSPublisher)(nil)
	var _ Publisher = (*NoopPublisher)(nil)
}

func TestNoopPublisher(t *testing.T) {
	pub := &NoopPublisher{}
	assert.NoError(t, pub.Publish(context.Background(), SubjectCheckInSucceeded, CheckInEvent{}))
	assert.NoError(t, pub.Close())
}

func TestNATSPublisher_Publish(t *testing.T) {
	url := startTestNATS(t)
	ch := subscribe(t, url, SubjectCheckInSucceeded)

	pub, err := NewNATSPublisher(url)
	require.NoError(t, err)
	defer pub.Close()

	require.NoError(t, pub.Publish(context.Background(), SubjectCheckInSucceeded, map[string]int{"ticket_id": 42}))
	require.NoError(t, pub.conn.Flush())

	msg := receive(t, ch)
	assert.JSONEq(t, `{"ticket_id":42}`, string(msg.Data))
}

func TestNATSPublisher_ConnectError(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1", nats.MaxReconnects(0), nats.Timeout(200*time.Millisecond))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connecting to NATS")
}

func TestCheckInSink_RoutesBySuccess(t *testing.T) {
	url := startTestNATS(t)
	ch := subscribe(t, url, SubjectCheckInAll)

	pub, err := NewNATSPublisher(url)
	require.NoError(t, err)
	defer pub.Close()
	sink := NewCheckInSink(pub)
	ctx := context.Background()

	txHash := "0xabc"
	ok := models.CheckInAttempt{ID: uuid.New(), EventAddress: "0xevent", TicketID: 1, Success: true, Message: "Check-in successful!", TxHash: &txHash}
	used := models.CheckInAttempt{ID: uuid.New(), EventAddress: "0xevent", TicketID: 2, Message: "Ticket already used"}

	require.NoError(t, sink.RecordAttempt(ctx, ok))
	require.NoError(t, sink.RecordAttempt(ctx, used))
	require.NoError(t, pub.conn.Flush())

	first := receive(t, ch)
	assert.Equal(t, SubjectCheckInSucceeded, first.Subject)
	var event CheckInEvent
	require.NoError(t, json.Unmarshal(first.Data, &event))
	assert.Equal(t, ok.ID, event.Attempt.ID)
	require.NotNil(t, event.Attempt.TxHash)
	assert.Equal(t, "0xabc", *event.Attempt.TxHash)

	second := receive(t, ch)
	assert.Equal(t, SubjectCheckInFailed, second.Subject)
	require.NoError(t, json.Unmarshal(second.Data, &event))
	assert.Equal(t, uint32(2), event.Attempt.TicketID)
}

type failingPublisher struct{}

func (failingPublisher) Publish(ctx context.Context, subject string, event any) error {
	return errors.New("nats: connection closed")
}

func (failingPublisher) Close() error { return nil }

func TestCheckInSink_PublishError(t *testing.T) {
	err := NewCheckInSink(failingPublisher{}).RecordAttempt(context.Background(), models.CheckInAttempt{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), SubjectCheckInFailed)
}

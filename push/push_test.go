package push

import (
	"context"
	"errors"
	"sync"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUnregistered = errors.New("registration token not registered")

// fakeSender fails tokens according to fail, recording every send.
type fakeSender struct {
	mu    sync.Mutex
	fail  map[string]error
	seen  []string
	calls map[string]int
}

func newFakeSender(fail map[string]error) *fakeSender {
	return &fakeSender{fail: fail, calls: map[string]int{}}
}

func (f *fakeSender) Send(_ context.Context, msg *messaging.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, msg.Token)
	f.calls[msg.Token]++
	if err, ok := f.fail[msg.Token]; ok {
		return "", err
	}
	return "msg-" + msg.Token, nil
}

func newTestGateway(s Sender) *Gateway {
	g := NewWithSender(s)
	g.unregistered = func(err error) bool { return errors.Is(err, errUnregistered) }
	return g
}

func TestProbePartitionsTokens(t *testing.T) {
	sender := newFakeSender(map[string]error{
		"t1": errUnregistered,
		"t3": errors.New("gateway unavailable"),
	})
	g := newTestGateway(sender)

	res, err := g.Probe(context.Background(), []string{"t1", "t2", "t3", "t4"})
	require.NoError(t, err)

	assert.Equal(t, []string{"t2", "t4"}, res.Valid)
	assert.Equal(t, []string{"t1"}, res.Unregistered)
	assert.Len(t, sender.seen, 4, "every token gets exactly one probe")
}

func TestProbeIdempotent(t *testing.T) {
	sender := newFakeSender(map[string]error{"t1": errUnregistered})
	g := newTestGateway(sender)

	first, err := g.Probe(context.Background(), []string{"t1", "t2"})
	require.NoError(t, err)
	require.Equal(t, []string{"t1"}, first.Unregistered)

	// re-run against the already-pruned list
	second, err := g.Probe(context.Background(), first.Valid)
	require.NoError(t, err)
	assert.Empty(t, second.Unregistered)
	assert.Equal(t, first.Valid, second.Valid)
}

func TestProbeEmptyList(t *testing.T) {
	g := newTestGateway(newFakeSender(nil))
	res, err := g.Probe(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Valid)
	assert.Empty(t, res.Unregistered)
}

func TestProbeSilentPayload(t *testing.T) {
	msg := probeMessage("t1")
	assert.Nil(t, msg.Notification, "probe must not display anything")
	assert.Equal(t, "check", msg.Data["validation"])
	assert.Equal(t, "high", msg.Android.Priority)
	assert.True(t, msg.APNS.Payload.Aps.ContentAvailable)
}

func TestNotifySendsToEveryToken(t *testing.T) {
	sender := newFakeSender(nil)
	g := newTestGateway(sender)

	g.Notify(context.Background(), []string{"t1", "t2", "t3"}, "New Message", "bob: hi")

	assert.ElementsMatch(t, []string{"t1", "t2", "t3"}, sender.seen)
}

func TestNotifyRetriesTransientFailures(t *testing.T) {
	sender := newFakeSender(map[string]error{"t1": errors.New("gateway unavailable")})
	g := newTestGateway(sender)

	g.Notify(context.Background(), []string{"t1", "t2"}, "title", "body")

	assert.Equal(t, sendAttempts, sender.calls["t1"], "transient failures retry up to the budget")
	assert.Equal(t, 1, sender.calls["t2"])
}

func TestNotifyDoesNotRetryDeadTokens(t *testing.T) {
	sender := newFakeSender(map[string]error{"t1": errUnregistered})
	g := newTestGateway(sender)

	g.Notify(context.Background(), []string{"t1"}, "title", "body")

	assert.Equal(t, 1, sender.calls["t1"], "a dead token is a permanent failure")
}

func TestNotifyPayload(t *testing.T) {
	msg := notifyMessage("t1", "New Like on Your Post!", "Your post of Half Dome, Yosemite now has 3 likes.")
	require.NotNil(t, msg.Notification)
	assert.Equal(t, "New Like on Your Post!", msg.Notification.Title)
	assert.Contains(t, msg.Notification.Body, "3")
	assert.Equal(t, "default", msg.Android.Notification.Sound)
	assert.Equal(t, "default", msg.APNS.Payload.Aps.Sound)
}

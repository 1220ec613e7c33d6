// Package push wraps Firebase Cloud Messaging for the notification
// functions: silent probes to weed out dead device tokens, and the
// actual notification fan-out. The gateway is rate-limited and sends
// with bounded parallelism; transient delivery failures are retried
// with exponential backoff, everything else is logged and dropped.
package push

import (
	"context"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/devsashidhar/wander/log"
)

const (
	// Concurrent in-flight gateway calls per invocation.
	maxParallel = 8
	// Sustained gateway call rate and burst allowance.
	callsPerSecond = 50
	callBurst      = 10
	// Delivery attempts per token before giving up.
	sendAttempts = 3

	tokenLogField = "token"
	errorLogField = "errorMsg"
)

// Sender is the slice of messaging.Client the gateway needs.
type Sender interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

type Gateway struct {
	sender  Sender
	limiter *rate.Limiter

	// classifies a send error as "token no longer registered";
	// swappable because the SDK's error type cannot be built in tests
	unregistered func(error) bool
}

// New builds a gateway backed by the project's FCM messaging client.
func New(ctx context.Context) (*Gateway, error) {
	app, err := firebase.NewApp(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating messaging client: %w", err)
	}
	return NewWithSender(client), nil
}

// NewWithSender builds a gateway over any Sender. Tests and the cmd
// tools use this to inject fakes or pre-configured clients.
func NewWithSender(s Sender) *Gateway {
	return &Gateway{
		sender:       s,
		limiter:      rate.NewLimiter(rate.Limit(callsPerSecond), callBurst),
		unregistered: messaging.IsRegistrationTokenNotRegistered,
	}
}

// ProbeResult partitions a token list after validation. Tokens that
// failed with anything other than "not registered" appear in neither
// slice: they are kept in the store but skipped for this dispatch.
type ProbeResult struct {
	Valid        []string
	Unregistered []string
}

// Probe sends a silent data-only message to every token and classifies
// the outcomes. Re-probing an already-pruned list removes nothing more.
func (g *Gateway) Probe(ctx context.Context, tokens []string) (ProbeResult, error) {
	logger := log.LoggerFromContext(ctx)

	type class int
	const (
		classValid class = iota
		classUnregistered
		classFailed
	)
	classes := make([]class, len(tokens))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxParallel)
	for i, token := range tokens {
		eg.Go(func() error {
			if err := g.limiter.Wait(egCtx); err != nil {
				return err
			}
			_, err := g.sender.Send(egCtx, probeMessage(token))
			switch {
			case err == nil:
				classes[i] = classValid
			case g.unregistered(err):
				classes[i] = classUnregistered
				logger.Info("dead token detected", slog.String(tokenLogField, token))
			default:
				classes[i] = classFailed
				logger.Error("token probe failed", slog.String(tokenLogField, token), slog.String(errorLogField, err.Error()))
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return ProbeResult{}, fmt.Errorf("probing tokens: %w", err)
	}

	var res ProbeResult
	for i, token := range tokens {
		switch classes[i] {
		case classValid:
			res.Valid = append(res.Valid, token)
		case classUnregistered:
			res.Unregistered = append(res.Unregistered, token)
		}
	}
	return res, nil
}

// Notify fans the notification out to every token. Failures are logged
// and swallowed: the trigger has no caller to report them to, and a
// missed push is acceptable where a crashed invocation is not.
func (g *Gateway) Notify(ctx context.Context, tokens []string, title, body string) {
	logger := log.LoggerFromContext(ctx)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxParallel)
	for _, token := range tokens {
		eg.Go(func() error {
			_, err := backoff.Retry(egCtx, func() (string, error) {
				if err := g.limiter.Wait(egCtx); err != nil {
					return "", backoff.Permanent(err)
				}
				id, err := g.sender.Send(egCtx, notifyMessage(token, title, body))
				if err != nil && g.unregistered(err) {
					return "", backoff.Permanent(err)
				}
				return id, err
			}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(sendAttempts))
			if err != nil {
				logger.Error("notification send failed", slog.String(tokenLogField, token), slog.String(errorLogField, err.Error()))
			}
			return nil
		})
	}
	_ = eg.Wait()
}

// probeMessage is invisible on the device: data-only, high priority on
// android, content-available on APNS.
func probeMessage(token string) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Data:  map[string]string{"validation": "check"},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{ContentAvailable: true},
			},
		},
	}
}

func notifyMessage(token, title, body string) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Android: &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{Sound: "default"},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jstittsworth/matchup-tracker/internal/models"
	"github.com/jstittsworth/matchup-tracker/pkg/config"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"golang.org/x/time/rate"
)

// RunNotifier delivers pipeline run summaries to an external channel.
// Delivery is best effort; the pipeline never fails on a notifier error.
type RunNotifier interface {
	NotifyRunCompleted(result *models.PipelineRunResult) error
}

// NewRunNotifier builds the notifier selected by configuration
func NewRunNotifier(cfg *config.Config, logger *logrus.Logger) RunNotifier {
	switch cfg.NotifyProvider {
	case "webhook":
		return NewWebhookNotifier(cfg.NotificationWebhookURL, cfg.NotifyTimeout, logger)
	case "twilio":
		return NewTwilioNotifier(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, cfg.TwilioToNumber, logger)
	case "none":
		return nil
	default:
		return NewMockNotifier(logger)
	}
}

// WebhookNotifier POSTs run summaries as JSON to a configured endpoint.
// Calls go through a circuit breaker so a dead endpoint stops costing a
// timeout per run, and a rate limiter caps delivery bursts.
type WebhookNotifier struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	logger  *logrus.Logger
}

func NewWebhookNotifier(url string, timeout time.Duration, logger *logrus.Logger) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "run-webhook",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Webhook circuit breaker state changed")
		},
	})
	return &WebhookNotifier{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Every(10*time.Second), 5),
		logger:  logger,
	}
}

type webhookPayload struct {
	Text string                    `json:"text"`
	Run  *models.PipelineRunResult `json:"run"`
}

func (n *WebhookNotifier) NotifyRunCompleted(result *models.PipelineRunResult) error {
	if n.url == "" {
		return nil
	}
	if !n.limiter.Allow() {
		return fmt.Errorf("webhook notifications rate limited")
	}

	payload := webhookPayload{
		Text: summarizeRun(result),
		Run:  result,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	_, err = n.breaker.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), n.client.Timeout)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}

	n.logger.WithField("run_id", result.RunID).Debug("Webhook notification delivered")
	return nil
}

// TwilioNotifier sends a short SMS summary for runs that produced results or
// failed; quiet runs stay quiet.
type TwilioNotifier struct {
	client     *twilio.RestClient
	fromNumber string
	toNumber   string
	logger     *logrus.Logger
}

func NewTwilioNotifier(accountSID, authToken, fromNumber, toNumber string, logger *logrus.Logger) *TwilioNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioNotifier{
		client:     client,
		fromNumber: fromNumber,
		toNumber:   toNumber,
		logger:     logger,
	}
}

func (n *TwilioNotifier) NotifyRunCompleted(result *models.PipelineRunResult) error {
	if result.Success && result.ResultsSaved == 0 {
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(n.toNumber)
	params.SetFrom(n.fromNumber)
	params.SetBody(summarizeRun(result))

	resp, err := n.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio notification failed: %w", err)
	}
	if resp.Sid != nil {
		n.logger.WithFields(logrus.Fields{
			"run_id": result.RunID,
			"sid":    *resp.Sid,
		}).Debug("SMS notification sent")
	}
	return nil
}

// MockNotifier records notifications in memory. Default in development and
// the notifier used by tests.
type MockNotifier struct {
	mu       sync.Mutex
	received []*models.PipelineRunResult
	logger   *logrus.Logger
}

func NewMockNotifier(logger *logrus.Logger) *MockNotifier {
	return &MockNotifier{logger: logger}
}

func (n *MockNotifier) NotifyRunCompleted(result *models.PipelineRunResult) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.received = append(n.received, result)
	if n.logger != nil {
		n.logger.WithField("run_id", result.RunID).Info(summarizeRun(result))
	}
	return nil
}

// Received returns the notifications captured so far
func (n *MockNotifier) Received() []*models.PipelineRunResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*models.PipelineRunResult, len(n.received))
	copy(out, n.received)
	return out
}

func summarizeRun(result *models.PipelineRunResult) string {
	if result.Error != "" {
		return fmt.Sprintf("Pipeline run %s failed after %s: %s", result.RunID, result.Duration.Round(time.Second), result.Error)
	}
	summary := fmt.Sprintf("Pipeline run %s: %d rounds checked, %d results saved, %d presets updated in %s",
		result.RunID, result.RoundsChecked, result.ResultsSaved, result.PresetsUpdated, result.Duration.Round(time.Second))
	if rounds := describeRounds(result.Rounds); rounds != "" {
		summary += ", covering " + rounds
	}
	return summary
}

// describeRounds names the rounds a run actually ingested, e.g.
// "The Open Championship round 2".
func describeRounds(rounds []models.RoundOutcome) string {
	var parts []string
	for _, r := range rounds {
		if r.Skipped {
			continue
		}
		name := r.EventName
		if name == "" {
			name = r.EventID
		}
		parts = append(parts, fmt.Sprintf("%s round %d", name, r.RoundNum))
	}
	return strings.Join(parts, ", ")
}

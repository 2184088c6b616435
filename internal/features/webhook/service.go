package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	common_models "go-opsdesk/internal/common/models"
	"go-opsdesk/internal/config"
	"go-opsdesk/internal/features/audit"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const maxResponseBodyBytes = 1024

type WebhookService interface {
	// CreateWebhook persists a subscription and returns it together with the
	// plaintext secret. The secret is never retrievable again.
	CreateWebhook(ctx context.Context, workspaceID primitive.ObjectID, req *CreateWebhookRequest) (*Webhook, string, error)
	GetWebhook(ctx context.Context, workspaceID primitive.ObjectID, id string) (*Webhook, error)
	ListWebhooks(ctx context.Context, workspaceID primitive.ObjectID) ([]Webhook, error)
	UpdateWebhook(ctx context.Context, workspaceID primitive.ObjectID, id string, req *UpdateWebhookRequest) (*Webhook, error)
	DeleteWebhook(ctx context.Context, workspaceID primitive.ObjectID, id string) error
	ListDeliveries(ctx context.Context, workspaceID primitive.ObjectID, webhookID string, page, limit int64) ([]DeliveryLog, int64, error)

	// Trigger fans an event out to every matching active subscription in
	// parallel. It never returns an error: internal failures come back as a
	// graceful-fail summary so domain operations are not disturbed.
	Trigger(ctx context.Context, workspaceID primitive.ObjectID, event string, payload interface{}) TriggerSummary
	// TestWebhook runs one live delivery of a synthetic webhook.test event.
	TestWebhook(ctx context.Context, workspaceID primitive.ObjectID, id string) (*DeliveryResult, error)
}

type WebhookServiceImpl struct {
	Repo         WebhookRepository
	LogRepo      DeliveryLogRepository
	AuditService audit.AuditService
	Logger       *zap.Logger
	client       *http.Client
}

func NewWebhookService(
	repo WebhookRepository,
	logRepo DeliveryLogRepository,
	auditService audit.AuditService,
	cfg *config.Config,
	logger *zap.Logger,
) WebhookService {
	return &WebhookServiceImpl{
		Repo:         repo,
		LogRepo:      logRepo,
		AuditService: auditService,
		Logger:       logger,
		client: &http.Client{
			Timeout: time.Duration(cfg.WebhookTimeoutSeconds) * time.Second,
		},
	}
}

// Sign computes the hex HMAC-SHA256 of "{unixMillis}.{payload}" with the
// subscription secret. Receivers recompute this over the same concatenation.
func Sign(secret string, unixMillis int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", unixMillis)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (s *WebhookServiceImpl) CreateWebhook(ctx context.Context, workspaceID primitive.ObjectID, req *CreateWebhookRequest) (*Webhook, string, error) {
	if req.Name == "" {
		return nil, "", fmt.Errorf("webhook name is required")
	}
	if req.URL == "" {
		return nil, "", fmt.Errorf("webhook url is required")
	}
	if len(req.Events) == 0 {
		return nil, "", fmt.Errorf("at least one event is required")
	}
	for _, e := range req.Events {
		if !ValidEvent(e) {
			return nil, "", fmt.Errorf("unknown event: %s", e)
		}
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate secret: %w", err)
	}

	attempts := req.RetryAttempts
	if attempts < 1 {
		attempts = DefaultRetryAttempts
	}
	delay := req.RetryDelayMs
	if delay < 1 {
		delay = DefaultRetryDelayMs
	}

	w := &Webhook{
		WorkspaceID:   workspaceID,
		Name:          req.Name,
		URL:           req.URL,
		Secret:        secret,
		Events:        req.Events,
		IsActive:      true,
		RetryAttempts: attempts,
		RetryDelayMs:  delay,
	}
	if err := s.Repo.Create(ctx, w); err != nil {
		return nil, "", err
	}

	_ = s.AuditService.LogChange(ctx, workspaceID, common_models.AuditActionCreate, "webhook", w.ID.Hex(), map[string]common_models.Change{
		"name": {New: w.Name},
		"url":  {New: w.URL},
	})

	return w, secret, nil
}

func (s *WebhookServiceImpl) GetWebhook(ctx context.Context, workspaceID primitive.ObjectID, id string) (*Webhook, error) {
	return s.Repo.Get(ctx, workspaceID, id)
}

func (s *WebhookServiceImpl) ListWebhooks(ctx context.Context, workspaceID primitive.ObjectID) ([]Webhook, error) {
	return s.Repo.ListByWorkspace(ctx, workspaceID)
}

func (s *WebhookServiceImpl) UpdateWebhook(ctx context.Context, workspaceID primitive.ObjectID, id string, req *UpdateWebhookRequest) (*Webhook, error) {
	update := bson.M{}
	if req.Name != nil {
		update["name"] = *req.Name
	}
	if req.URL != nil {
		update["url"] = *req.URL
	}
	if req.Events != nil {
		for _, e := range req.Events {
			if !ValidEvent(e) {
				return nil, fmt.Errorf("unknown event: %s", e)
			}
		}
		update["events"] = req.Events
	}
	if req.IsActive != nil {
		update["is_active"] = *req.IsActive
	}
	if len(update) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	w, err := s.Repo.Update(ctx, workspaceID, id, update)
	if err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, workspaceID, common_models.AuditActionUpdate, "webhook", id, nil)

	return w, nil
}

func (s *WebhookServiceImpl) DeleteWebhook(ctx context.Context, workspaceID primitive.ObjectID, id string) error {
	if err := s.Repo.Delete(ctx, workspaceID, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, workspaceID, common_models.AuditActionDelete, "webhook", id, nil)
	return nil
}

func (s *WebhookServiceImpl) ListDeliveries(ctx context.Context, workspaceID primitive.ObjectID, webhookID string, page, limit int64) ([]DeliveryLog, int64, error) {
	return s.LogRepo.ListByWebhook(ctx, workspaceID, webhookID, page, limit)
}

func (s *WebhookServiceImpl) Trigger(ctx context.Context, workspaceID primitive.ObjectID, event string, payload interface{}) (summary TriggerSummary) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("webhook trigger panicked",
				zap.String("event", event),
				zap.Any("panic", r),
			)
			summary = TriggerSummary{Success: false, GracefulFail: true}
		}
	}()

	webhooks, err := s.Repo.ListActiveByEvent(ctx, workspaceID, event)
	if err != nil {
		s.Logger.Error("failed to load webhook subscriptions",
			zap.String("event", event),
			zap.Error(err),
		)
		return TriggerSummary{Success: false, GracefulFail: true}
	}
	if len(webhooks) == 0 {
		return TriggerSummary{Triggered: 0, Success: true}
	}

	// Targets are independent external services; deliver in parallel so one
	// slow endpoint cannot serialize the rest.
	results := make([]DeliveryResult, len(webhooks))
	var wg sync.WaitGroup
	for i := range webhooks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.deliver(ctx, &webhooks[i], event, payload)
		}(i)
	}
	wg.Wait()

	ok := true
	for _, r := range results {
		if !r.Success {
			ok = false
			break
		}
	}
	return TriggerSummary{
		Triggered: len(webhooks),
		Results:   results,
		Success:   ok,
	}
}

// deliver runs one full delivery sequence against a single subscription: one
// log row updated in place across attempts, exponential backoff between
// attempts, and exactly one counter update at the terminal step.
func (s *WebhookServiceImpl) deliver(ctx context.Context, w *Webhook, event string, payload interface{}) DeliveryResult {
	result := DeliveryResult{WebhookID: w.ID}

	log := &DeliveryLog{
		WorkspaceID: w.WorkspaceID,
		WebhookID:   w.ID,
		Event:       event,
		Payload:     payload,
		Status:      DeliveryPending,
	}
	if err := s.LogRepo.Create(ctx, log); err != nil {
		s.Logger.Error("failed to create delivery log",
			zap.String("webhook_id", w.ID.Hex()),
			zap.Error(err),
		)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		result.Error = fmt.Sprintf("payload marshal failed: %v", err)
		s.finishDelivery(ctx, w, log, &result)
		return result
	}

	attempts := w.RetryAttempts
	if attempts < 1 {
		attempts = DefaultRetryAttempts
	}
	delay := w.RetryDelayMs
	if delay < 1 {
		delay = DefaultRetryDelayMs
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Duration(delay) * time.Millisecond
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = 5 * time.Minute
	bo.MaxElapsedTime = 0

	operation := func() error {
		result.Attempts++
		statusCode, respBody, err := s.post(ctx, w, event, body)
		result.StatusCode = statusCode

		update := bson.M{"attempts": result.Attempts}
		if err != nil {
			result.Error = err.Error()
			update["error"] = result.Error
			update["status_code"] = statusCode
			update["response_body"] = respBody
			_ = s.LogRepo.Update(ctx, log.ID, update)
			return err
		}

		result.Success = true
		result.Error = ""
		update["status"] = DeliverySuccess
		update["status_code"] = statusCode
		update["response_body"] = respBody
		update["error"] = ""
		_ = s.LogRepo.Update(ctx, log.ID, update)
		return nil
	}

	err = backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(attempts-1)), ctx))
	if err != nil {
		result.Success = false
	}

	s.finishDelivery(ctx, w, log, &result)
	return result
}

// finishDelivery seals the log row and bumps the subscription counters once
// for the whole sequence.
func (s *WebhookServiceImpl) finishDelivery(ctx context.Context, w *Webhook, log *DeliveryLog, result *DeliveryResult) {
	if !result.Success {
		_ = s.LogRepo.Update(ctx, log.ID, bson.M{
			"status":   DeliveryFailed,
			"error":    result.Error,
			"attempts": result.Attempts,
		})
	}

	if err := s.Repo.RecordDelivery(ctx, w.ID, result.Success, result.Error); err != nil {
		s.Logger.Error("failed to record delivery stats",
			zap.String("webhook_id", w.ID.Hex()),
			zap.Error(err),
		)
	}

	s.Logger.Info("webhook delivery finished",
		zap.String("webhook_id", w.ID.Hex()),
		zap.String("event", log.Event),
		zap.Bool("success", result.Success),
		zap.Int("attempts", result.Attempts),
	)
}

// post performs a single signed HTTP attempt. Non-2xx responses are errors.
func (s *WebhookServiceImpl) post(ctx context.Context, w *Webhook, event string, body []byte) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}

	now := time.Now().UnixMilli()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", Sign(w.Secret, now, body))
	req.Header.Set("X-Webhook-Timestamp", strconv.FormatInt(now, 10))
	req.Header.Set("X-Webhook-Event", event)
	req.Header.Set("X-Webhook-Delivery", uuid.NewString())

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, string(respBody), fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.StatusCode, string(respBody), nil
}

func (s *WebhookServiceImpl) TestWebhook(ctx context.Context, workspaceID primitive.ObjectID, id string) (*DeliveryResult, error) {
	w, err := s.Repo.Get(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"event":      EventTest,
		"webhook_id": w.ID.Hex(),
		"message":    "This is a test delivery",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
	result := s.deliver(ctx, w, EventTest, payload)
	return &result, nil
}

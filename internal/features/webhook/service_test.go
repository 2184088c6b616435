package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	common_models "go-opsdesk/internal/common/models"
	"go-opsdesk/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeWebhookRepo struct {
	mu       sync.Mutex
	webhooks []Webhook
	records  []struct {
		id      primitive.ObjectID
		success bool
	}
}

func (f *fakeWebhookRepo) Create(ctx context.Context, w *Webhook) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w.ID.IsZero() {
		w.ID = primitive.NewObjectID()
	}
	f.webhooks = append(f.webhooks, *w)
	return nil
}

func (f *fakeWebhookRepo) Get(ctx context.Context, workspaceID primitive.ObjectID, id string) (*Webhook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.webhooks {
		if f.webhooks[i].ID.Hex() == id {
			w := f.webhooks[i]
			return &w, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (f *fakeWebhookRepo) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]Webhook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Webhook(nil), f.webhooks...), nil
}

func (f *fakeWebhookRepo) ListActiveByEvent(ctx context.Context, workspaceID primitive.ObjectID, event string) ([]Webhook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Webhook
	for _, w := range f.webhooks {
		if w.WorkspaceID == workspaceID && w.IsActive && w.Subscribed(event) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeWebhookRepo) Update(ctx context.Context, workspaceID primitive.ObjectID, id string, update bson.M) (*Webhook, error) {
	return nil, nil
}

func (f *fakeWebhookRepo) Delete(ctx context.Context, workspaceID primitive.ObjectID, id string) error {
	return nil
}

func (f *fakeWebhookRepo) RecordDelivery(ctx context.Context, id primitive.ObjectID, success bool, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, struct {
		id      primitive.ObjectID
		success bool
	}{id, success})
	for i := range f.webhooks {
		if f.webhooks[i].ID == id {
			f.webhooks[i].TotalCalls++
			if success {
				f.webhooks[i].SuccessfulCalls++
			} else {
				f.webhooks[i].FailedCalls++
				f.webhooks[i].LastError = lastError
			}
		}
	}
	return nil
}

type fakeDeliveryLogRepo struct {
	mu      sync.Mutex
	logs    []DeliveryLog
	updates map[string][]bson.M
}

func (f *fakeDeliveryLogRepo) Create(ctx context.Context, log *DeliveryLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if log.ID.IsZero() {
		log.ID = primitive.NewObjectID()
	}
	f.logs = append(f.logs, *log)
	return nil
}

func (f *fakeDeliveryLogRepo) Update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updates == nil {
		f.updates = make(map[string][]bson.M)
	}
	f.updates[id.Hex()] = append(f.updates[id.Hex()], update)
	return nil
}

func (f *fakeDeliveryLogRepo) ListByWebhook(ctx context.Context, workspaceID primitive.ObjectID, webhookID string, page, limit int64) ([]DeliveryLog, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]DeliveryLog(nil), f.logs...), int64(len(f.logs)), nil
}

type noopAudit struct{}

func (noopAudit) LogChange(ctx context.Context, workspaceID primitive.ObjectID, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	return nil
}

func (noopAudit) ListLogs(ctx context.Context, workspaceID primitive.ObjectID, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	return nil, nil
}

func newTestWebhookService(repo *fakeWebhookRepo, logRepo *fakeDeliveryLogRepo) WebhookService {
	return NewWebhookService(repo, logRepo, noopAudit{}, &config.Config{WebhookTimeoutSeconds: 5}, zap.NewNop())
}

func seedWebhook(repo *fakeWebhookRepo, workspaceID primitive.ObjectID, url string, events []string, attempts, delayMs int) Webhook {
	w := Webhook{
		ID:            primitive.NewObjectID(),
		WorkspaceID:   workspaceID,
		Name:          "test",
		URL:           url,
		Secret:        "shh",
		Events:        events,
		IsActive:      true,
		RetryAttempts: attempts,
		RetryDelayMs:  delayMs,
	}
	repo.webhooks = append(repo.webhooks, w)
	return w
}

func TestSignRoundTrip(t *testing.T) {
	payload := []byte(`{"hello":"world"}`)
	ts := int64(1756700000000)
	secret := "topsecret"

	got := Sign(secret, ts, payload)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10) + "." + string(payload)))
	want := hex.EncodeToString(mac.Sum(nil))

	if got != want {
		t.Errorf("signature mismatch: got %s want %s", got, want)
	}
}

func TestTriggerDeliversSignedPayload(t *testing.T) {
	workspaceID := primitive.NewObjectID()

	type captured struct {
		signature string
		timestamp string
		event     string
		body      []byte
	}
	var mu sync.Mutex
	var reqs []captured

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, captured{
			signature: r.Header.Get("X-Webhook-Signature"),
			timestamp: r.Header.Get("X-Webhook-Timestamp"),
			event:     r.Header.Get("X-Webhook-Event"),
			body:      body,
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	repo := &fakeWebhookRepo{}
	wh := seedWebhook(repo, workspaceID, srv.URL, []string{EventContactCreated}, 3, 10)
	svc := newTestWebhookService(repo, &fakeDeliveryLogRepo{})

	summary := svc.Trigger(context.Background(), workspaceID, EventContactCreated, map[string]string{"name": "Ada"})

	if !summary.Success || summary.Triggered != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}

	r := reqs[0]
	if r.event != EventContactCreated {
		t.Errorf("event header = %q", r.event)
	}

	ts, err := strconv.ParseInt(r.timestamp, 10, 64)
	if err != nil {
		t.Fatalf("bad timestamp header %q: %v", r.timestamp, err)
	}
	if want := Sign(wh.Secret, ts, r.body); r.signature != want {
		t.Errorf("receiver-side verification failed: got %s want %s", r.signature, want)
	}

	var payload map[string]string
	if err := json.Unmarshal(r.body, &payload); err != nil || payload["name"] != "Ada" {
		t.Errorf("payload = %s", r.body)
	}
}

func TestDeliverRetriesAndCountsOnce(t *testing.T) {
	workspaceID := primitive.NewObjectID()

	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	repo := &fakeWebhookRepo{}
	wh := seedWebhook(repo, workspaceID, srv.URL, []string{EventBookingCreated}, 3, 10)
	logRepo := &fakeDeliveryLogRepo{}
	svc := newTestWebhookService(repo, logRepo)

	summary := svc.Trigger(context.Background(), workspaceID, EventBookingCreated, map[string]string{"id": "b1"})

	if summary.Success {
		t.Error("summary should report failure")
	}
	if len(summary.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(summary.Results))
	}
	res := summary.Results[0]
	if res.Success {
		t.Error("delivery should have failed")
	}
	if res.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", res.Attempts)
	}
	if calls != 3 {
		t.Errorf("endpoint hit %d times, want 3", calls)
	}
	if res.StatusCode != http.StatusInternalServerError {
		t.Errorf("status code = %d", res.StatusCode)
	}

	// Counters move once per sequence, not once per attempt.
	if len(repo.records) != 1 {
		t.Fatalf("RecordDelivery called %d times, want 1", len(repo.records))
	}
	if repo.webhooks[0].FailedCalls != 1 || repo.webhooks[0].TotalCalls != 1 {
		t.Errorf("counters: total=%d failed=%d", repo.webhooks[0].TotalCalls, repo.webhooks[0].FailedCalls)
	}
	_ = wh

	// One delivery row for the whole sequence.
	if len(logRepo.logs) != 1 {
		t.Errorf("delivery log rows = %d, want 1", len(logRepo.logs))
	}
}

func TestDeliverSucceedsAfterTransientFailure(t *testing.T) {
	workspaceID := primitive.NewObjectID()

	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	repo := &fakeWebhookRepo{}
	seedWebhook(repo, workspaceID, srv.URL, []string{EventBookingCreated}, 3, 10)
	svc := newTestWebhookService(repo, &fakeDeliveryLogRepo{})

	summary := svc.Trigger(context.Background(), workspaceID, EventBookingCreated, nil)

	if !summary.Success {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.Results[0].Attempts != 2 {
		t.Errorf("attempts = %d, want 2", summary.Results[0].Attempts)
	}
	if repo.webhooks[0].SuccessfulCalls != 1 || repo.webhooks[0].FailedCalls != 0 {
		t.Errorf("counters: success=%d failed=%d", repo.webhooks[0].SuccessfulCalls, repo.webhooks[0].FailedCalls)
	}
}

func TestTriggerFanOutIsolation(t *testing.T) {
	workspaceID := primitive.NewObjectID()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	repo := &fakeWebhookRepo{}
	seedWebhook(repo, workspaceID, "http://127.0.0.1:1", []string{EventContactCreated}, 2, 10)
	healthy := seedWebhook(repo, workspaceID, srv.URL, []string{EventContactCreated}, 2, 10)
	svc := newTestWebhookService(repo, &fakeDeliveryLogRepo{})

	start := time.Now()
	summary := svc.Trigger(context.Background(), workspaceID, EventContactCreated, nil)
	elapsed := time.Since(start)

	if summary.Triggered != 2 {
		t.Fatalf("triggered = %d, want 2", summary.Triggered)
	}
	var healthyResult, deadResult *DeliveryResult
	for i := range summary.Results {
		if summary.Results[i].WebhookID == healthy.ID {
			healthyResult = &summary.Results[i]
		} else {
			deadResult = &summary.Results[i]
		}
	}
	if healthyResult == nil || !healthyResult.Success {
		t.Errorf("healthy endpoint must succeed despite sibling failure: %+v", healthyResult)
	}
	if deadResult == nil || deadResult.Success {
		t.Errorf("unreachable endpoint must fail: %+v", deadResult)
	}
	if summary.Success {
		t.Error("aggregate success must be false when any target fails")
	}
	// Parallel fan-out: the run should not take the sum of both sequences.
	if elapsed > 5*time.Second {
		t.Errorf("fan-out looks serialized: %v", elapsed)
	}
}

func TestTriggerNoSubscribers(t *testing.T) {
	svc := newTestWebhookService(&fakeWebhookRepo{}, &fakeDeliveryLogRepo{})

	summary := svc.Trigger(context.Background(), primitive.NewObjectID(), EventFormSubmitted, nil)

	if !summary.Success || summary.Triggered != 0 || summary.GracefulFail {
		t.Errorf("no subscribers must be a zero-triggered success: %+v", summary)
	}
}

func TestCreateWebhookGeneratesSecret(t *testing.T) {
	repo := &fakeWebhookRepo{}
	svc := newTestWebhookService(repo, &fakeDeliveryLogRepo{})
	workspaceID := primitive.NewObjectID()

	w, secret, err := svc.CreateWebhook(context.Background(), workspaceID, &CreateWebhookRequest{
		Name:   "crm sync",
		URL:    "https://example.com/hook",
		Events: []string{EventContactCreated, EventBookingCreated},
	})
	if err != nil {
		t.Fatalf("CreateWebhook: %v", err)
	}
	if len(secret) != 64 {
		t.Errorf("secret length = %d, want 64 hex chars", len(secret))
	}
	if w.RetryAttempts != DefaultRetryAttempts || w.RetryDelayMs != DefaultRetryDelayMs {
		t.Errorf("defaults not applied: attempts=%d delay=%d", w.RetryAttempts, w.RetryDelayMs)
	}
	if !w.IsActive {
		t.Error("new webhooks default to active")
	}

	_, secret2, err := svc.CreateWebhook(context.Background(), workspaceID, &CreateWebhookRequest{
		Name:   "other",
		URL:    "https://example.com/hook2",
		Events: []string{EventContactCreated},
	})
	if err != nil {
		t.Fatal(err)
	}
	if secret == secret2 {
		t.Error("secrets must be unique per webhook")
	}
}

func TestCreateWebhookRejectsUnknownEvent(t *testing.T) {
	svc := newTestWebhookService(&fakeWebhookRepo{}, &fakeDeliveryLogRepo{})

	_, _, err := svc.CreateWebhook(context.Background(), primitive.NewObjectID(), &CreateWebhookRequest{
		Name:   "bad",
		URL:    "https://example.com",
		Events: []string{"nonsense.event"},
	})
	if err == nil {
		t.Fatal("expected validation error for unknown event")
	}
}

func TestTestWebhookDeliversTestEvent(t *testing.T) {
	workspaceID := primitive.NewObjectID()

	var mu sync.Mutex
	var gotEvent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotEvent = r.Header.Get("X-Webhook-Event")
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	repo := &fakeWebhookRepo{}
	wh := seedWebhook(repo, workspaceID, srv.URL, []string{EventContactCreated}, 1, 10)
	svc := newTestWebhookService(repo, &fakeDeliveryLogRepo{})

	result, err := svc.TestWebhook(context.Background(), workspaceID, wh.ID.Hex())
	if err != nil {
		t.Fatalf("TestWebhook: %v", err)
	}
	if !result.Success || result.Attempts != 1 {
		t.Errorf("result = %+v", result)
	}
	if gotEvent != EventTest {
		t.Errorf("event header = %q, want %q", gotEvent, EventTest)
	}
}

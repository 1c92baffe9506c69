package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"FinSight/internal/model"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func sampleSummary() *model.TrainingSummary {
	return &model.TrainingSummary{
		ModelsTrained: []string{model.SubModelExpense, model.SubModelRisk},
		Reports: map[string]*model.TrainingReport{
			model.SubModelExpense: {ModelType: "expense_prediction", MAE: 12.345, TrainSamples: 48, TestSamples: 12},
			model.SubModelRisk: {ModelType: "risk_assessment", TrainSamples: 216, TestSamples: 54,
				Classification: &model.ClassificationReport{Accuracy: 0.9}},
		},
		Skipped:   map[string]string{model.SubModelIncome: "insufficient data for income model: have 10 rows, need at least 50"},
		Timestamp: time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC),
	}
}

func TestFormatTrainingSummary(t *testing.T) {
	msg := FormatTrainingSummary("alice", sampleSummary())
	for _, want := range []string{
		"Training complete",
		"Models trained: expense, risk",
		"expense: MAE 12.35 (train 48 / test 12)",
		"risk: accuracy 90.0%",
		"income: skipped",
		"2024-06-01 03:00",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	// Income is listed before expense.
	if strings.Index(msg, "income:") > strings.Index(msg, "expense:") {
		t.Errorf("sub-models out of order:\n%s", msg)
	}
}

func TestFormatEscapesUserInput(t *testing.T) {
	msg := FormatTrainingFailed("<bob>", errors.New("a < b"))
	if strings.Contains(msg, "<bob>") || !strings.Contains(msg, "&lt;bob&gt;") {
		t.Errorf("user ID not escaped: %s", msg)
	}
	if got := PlainText(msg); !strings.Contains(got, "<bob>") || strings.Contains(got, "<b>") {
		t.Errorf("PlainText = %q", got)
	}
}

func TestFormatInsights(t *testing.T) {
	r := &model.InsightReport{
		Summary: model.Summary{AvgMonthlyIncome: 3000, AvgMonthlyExpense: 2850, SavingsRate: 0.05,
			TopExpenseCategories: []string{"rent", "food"}},
		Predictions: &model.CashFlowForecast{Income: 3000, Expense: 3100, NetCashFlow: -100, HorizonDays: 30},
		Risk:        &model.RiskAssessment{RiskLevel: model.RiskHigh, RiskScore: 0.7},
		Recommendations: []model.Recommendation{
			{Priority: model.PriorityHigh, Title: "Increase savings", ActionItems: []string{"Cut dining out"}},
		},
		GeneratedAt: time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC),
	}
	msg := FormatInsights("alice", r)
	for _, want := range []string{"Savings rate: 5.0%", "rent, food", "Next 30 days", "net -100.00", "Risk:</b> high", "[high] Increase savings", "Cut dining out"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatStatus(t *testing.T) {
	msg := FormatStatus("alice", false, nil)
	if !strings.Contains(msg, "not trained") || !strings.Contains(msg, "No recent training result") {
		t.Errorf("unexpected status: %s", msg)
	}
	msg = FormatStatus("alice", true, sampleSummary())
	if !strings.Contains(msg, "Models: ready") || !strings.Contains(msg, "expense: MAE") {
		t.Errorf("unexpected status: %s", msg)
	}
}

func TestFormatRisk(t *testing.T) {
	a := &model.RiskAssessment{
		RiskLevel:     model.RiskMedium,
		RiskScore:     0.5,
		Probabilities: map[model.RiskLevel]float64{model.RiskLow: 0.2, model.RiskMedium: 0.5, model.RiskHigh: 0.3},
		Advice:        []string{"Keep an emergency fund"},
	}
	msg := FormatRisk("alice", a)
	if strings.Index(msg, "high:") > strings.Index(msg, "low:") {
		t.Errorf("probabilities not sorted:\n%s", msg)
	}
	if !strings.Contains(msg, "medium: 50.0%") || !strings.Contains(msg, "• Keep an emergency fund") {
		t.Errorf("unexpected message:\n%s", msg)
	}
}

type telegramStub struct {
	mu       sync.Mutex
	failures int
	texts    []string
}

func (s *telegramStub) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.failures > 0 {
			s.failures--
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		if payload["chat_id"] != "42" || payload["parse_mode"] != "HTML" {
			t.Errorf("payload = %v", payload)
		}
		s.texts = append(s.texts, payload["text"])
		_, _ = w.Write([]byte(`{"ok":true}`))
	}
}

func newTestTelegram(srv *httptest.Server) *TelegramNotifier {
	tn := NewTelegramNotifier("TOKEN", "42", "", quietLogger())
	tn.APIBase = srv.URL
	tn.Client = srv.Client()
	return tn
}

func TestTelegramNotifyTrainingComplete(t *testing.T) {
	stub := &telegramStub{}
	srv := httptest.NewServer(stub.handler(t))
	defer srv.Close()

	tn := newTestTelegram(srv)
	if err := tn.NotifyTrainingComplete(context.Background(), "alice", sampleSummary()); err != nil {
		t.Fatalf("NotifyTrainingComplete: %v", err)
	}
	if len(stub.texts) != 1 || !strings.Contains(stub.texts[0], "Training complete") {
		t.Fatalf("texts = %v", stub.texts)
	}
}

func TestTelegramSendWithRetry(t *testing.T) {
	stub := &telegramStub{failures: 1}
	srv := httptest.NewServer(stub.handler(t))
	defer srv.Close()

	tn := newTestTelegram(srv)
	if err := tn.SendWithRetry(context.Background(), "hello", 1); err != nil {
		t.Fatalf("SendWithRetry: %v", err)
	}
	if len(stub.texts) != 1 {
		t.Fatalf("texts = %v", stub.texts)
	}

	stub.failures = 5
	if err := tn.SendWithRetry(context.Background(), "hello", 0); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
}

func TestTelegramPollDispatchesCommands(t *testing.T) {
	var replies []string
	mux := http.NewServeMux()
	mux.HandleFunc("/botTOKEN/getUpdates", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") != "7" {
			t.Errorf("offset = %s", r.URL.Query().Get("offset"))
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":[
			{"update_id":7,"message":{"text":" /status alice "}},
			{"update_id":8},
			{"update_id":9,"message":{"text":"/noop"}}]}`))
	})
	mux.HandleFunc("/botTOKEN/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		replies = append(replies, payload["text"])
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tn := newTestTelegram(srv)
	var commands []string
	next, err := tn.poll(context.Background(), srv.Client(), 7, func(_ context.Context, cmd string) string {
		commands = append(commands, cmd)
		if cmd == "/noop" {
			return ""
		}
		return "reply to " + cmd
	})
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if next != 10 {
		t.Errorf("next offset = %d, want 10", next)
	}
	if len(commands) != 2 || commands[0] != "/status alice" {
		t.Errorf("commands = %v", commands)
	}
	if len(replies) != 1 || replies[0] != "reply to /status alice" {
		t.Errorf("replies = %v", replies)
	}
}

func TestEmailNotifier(t *testing.T) {
	n := NewEmailNotifier(EmailConfig{SenderEmail: "bot@finsight.local", Recipients: []string{"ops@finsight.local"}}, quietLogger())
	var sent []*email.Email
	n.send = func(e *email.Email) error {
		sent = append(sent, e)
		return nil
	}

	if err := n.NotifyTrainingFailed(context.Background(), "alice", errors.New("ledger unavailable")); err != nil {
		t.Fatal(err)
	}
	if len(sent) != 1 {
		t.Fatalf("sent %d emails", len(sent))
	}
	e := sent[0]
	if e.From != "bot@finsight.local" || e.Subject != "FinSight training failed for alice" {
		t.Errorf("email = %+v", e)
	}
	if body := string(e.Text); !strings.Contains(body, "ledger unavailable") || strings.Contains(body, "<b>") {
		t.Errorf("body = %q", body)
	}

	n.send = func(*email.Email) error { return errors.New("smtp down") }
	if err := n.NotifyTrainingComplete(context.Background(), "alice", sampleSummary()); err == nil {
		t.Fatal("expected send error")
	}
}

func TestEmailNotifierWithoutRecipients(t *testing.T) {
	n := NewEmailNotifier(EmailConfig{}, quietLogger())
	n.send = func(*email.Email) error {
		t.Fatal("send called without recipients")
		return nil
	}
	if err := n.NotifyTrainingComplete(context.Background(), "alice", nil); err != nil {
		t.Fatal(err)
	}
}

type failingNotifier struct{ calls int }

func (f *failingNotifier) NotifyTrainingComplete(context.Context, string, *model.TrainingSummary) error {
	f.calls++
	return errors.New("down")
}

func (f *failingNotifier) NotifyTrainingFailed(context.Context, string, error) error {
	f.calls++
	return errors.New("down")
}

func TestMultiTriesEveryChannel(t *testing.T) {
	a, b := &failingNotifier{}, &failingNotifier{}
	m := Multi{a, Noop{}, b}
	if err := m.NotifyTrainingComplete(context.Background(), "alice", nil); err == nil {
		t.Fatal("expected joined error")
	}
	if err := m.NotifyTrainingFailed(context.Background(), "alice", errors.New("x")); err == nil {
		t.Fatal("expected joined error")
	}
	if a.calls != 2 || b.calls != 2 {
		t.Errorf("calls = %d, %d", a.calls, b.calls)
	}
}

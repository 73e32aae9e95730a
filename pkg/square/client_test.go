package square

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	sq "github.com/square/square-go-sdk"
	sqcore "github.com/square/square-go-sdk/core"

	"github.com/angelmondragon/marketplace-engine/pkg/config"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
	"github.com/angelmondragon/marketplace-engine/pkg/logger"
)

func TestRedact(t *testing.T) {
	c := &Client{}
	out := c.redact("payment_token", "abc123")
	if out != "[REDACTED]" {
		t.Fatalf("expected redacted value, got %v", out)
	}
	// Non-sensitive keys should be preserved.
	if v := c.redact("status", "ok"); v != "ok" {
		t.Fatalf("unexpected redaction for safe key")
	}
}

func TestDomainCodeForStatus(t *testing.T) {
	tests := []struct {
		status int
		code   pkgerrors.Code
	}{
		{http.StatusUnauthorized, pkgerrors.CodeUnauthorized},
		{http.StatusForbidden, pkgerrors.CodeForbidden},
		{http.StatusNotFound, pkgerrors.CodeNotFound},
		{http.StatusConflict, pkgerrors.CodeConflict},
		{http.StatusTooManyRequests, pkgerrors.CodeRateLimit},
		{http.StatusBadRequest, pkgerrors.CodeValidation},
		{http.StatusUnprocessableEntity, pkgerrors.CodeStateConflict},
		{http.StatusInternalServerError, pkgerrors.CodeDependency},
	}
	for _, tt := range tests {
		if got := domainCodeForStatus(tt.status); got != tt.code {
			t.Fatalf("status %d expected %s got %s", tt.status, tt.code, got)
		}
	}
}

func TestMapSquareError(t *testing.T) {
	c := &Client{}
	table := []struct {
		name     string
		status   int
		payload  string
		wantCode pkgerrors.Code
	}{
		{
			name:     "authentication error",
			status:   http.StatusUnauthorized,
			payload:  `{"errors":[{"category":"AUTHENTICATION_ERROR","code":"UNAUTHORIZED"}]}`,
			wantCode: pkgerrors.CodeUnauthorized,
		},
		{
			name:     "idempotency key reused",
			status:   http.StatusConflict,
			payload:  `{"errors":[{"category":"API_ERROR","code":"IDEMPOTENCY_KEY_REUSED"}]}`,
			wantCode: pkgerrors.CodeIdempotency,
		},
	}
	for _, tt := range table {
		err := sqcore.NewAPIError(tt.status, errors.New(tt.payload))
		mapped := c.mapSquareError(err, "operation")
		if mapped == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
		typed := pkgerrors.As(mapped)
		if typed == nil {
			t.Fatalf("%s: result is not pkgerror", tt.name)
		}
		if typed.Code() != tt.wantCode {
			t.Fatalf("%s: expected code %s, got %s", tt.name, tt.wantCode, typed.Code())
		}
	}
}

func TestExtractSquareErrors(t *testing.T) {
	c := &Client{}
	payload := `{"errors":[{"category":"API_ERROR","code":"BAD_REQUEST","detail":"oops"}]}`
	apiErr := sqcore.NewAPIError(http.StatusBadRequest, errors.New(payload))
	got := c.extractSquareErrors(apiErr)
	if len(got) != 1 {
		t.Fatalf("expected 1 error, got %d", len(got))
	}
	if got[0].GetCode() != sq.ErrorCodeBadRequest {
		t.Fatalf("unexpected error code %s", got[0].GetCode())
	}
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"type":"payment.updated"}`)
	url := "https://api.example.com/api/v1/webhooks/square"
	header := Sign("secret", url, body)

	if !VerifySignature("secret", url, body, header) {
		t.Fatalf("expected signature to verify")
	}
	if VerifySignature("other", url, body, header) {
		t.Fatalf("expected wrong secret to fail")
	}
	if VerifySignature("secret", url, []byte(`{}`), header) {
		t.Fatalf("expected tampered body to fail")
	}
	if VerifySignature("secret", url, body, "") {
		t.Fatalf("expected empty header to fail")
	}
	c := &Client{webhookSecret: "secret"}
	if !c.VerifySignature(url, body, header) {
		t.Fatalf("expected client verification to pass")
	}
}

func TestPaymentAmount(t *testing.T) {
	amount := int64(12345)
	currency := sq.CurrencyUsd
	payment := &sq.Payment{AmountMoney: &sq.Money{Amount: &amount, Currency: &currency}}

	got, code := PaymentAmount(payment)
	if !got.Equal(decimal.RequireFromString("123.45")) {
		t.Fatalf("expected 123.45, got %s", got)
	}
	if code != "USD" {
		t.Fatalf("expected USD, got %q", code)
	}
	if zero, _ := PaymentAmount(nil); !zero.IsZero() {
		t.Fatalf("expected zero for nil payment")
	}
}

func TestNewClientValidation(t *testing.T) {
	ctx := context.Background()
	if _, err := NewClient(ctx, config.SquareConfig{AccessToken: "tok", WebhookSecret: "sig"}, nil); err != errLoggerRequired {
		t.Fatalf("expected logger error, got %v", err)
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	if _, err := NewClient(ctx, config.SquareConfig{WebhookSecret: "sig"}, logg); err != errAccessTokenRequired {
		t.Fatalf("expected access token error, got %v", err)
	}
	if _, err := NewClient(ctx, config.SquareConfig{AccessToken: "tok"}, logg); err != errWebhookSecretRequired {
		t.Fatalf("expected webhook secret error, got %v", err)
	}
	if _, err := NewClient(ctx, config.SquareConfig{AccessToken: "tok", WebhookSecret: "sig", Env: "staging"}, logg); err != errInvalidSquareEnv {
		t.Fatalf("expected env error, got %v", err)
	}
	c, err := NewClient(ctx, config.SquareConfig{AccessToken: "tok", WebhookSecret: "sig"}, logg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Environment() != "sandbox" {
		t.Fatalf("expected sandbox, got %q", c.Environment())
	}
}

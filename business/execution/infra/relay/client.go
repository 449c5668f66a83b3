// Package relay submits signed trade intents to a transaction relay and reads
// their status and the operator wallet balances.
package relay

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/dex-scanner/business/execution/domain"
	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/httpclient"
	"github.com/fd1az/dex-scanner/internal/logger"
	"github.com/fd1az/dex-scanner/internal/token"
)

const (
	tracerName     = "github.com/fd1az/dex-scanner/business/execution/infra/relay"
	defaultTimeout = 15 * time.Second
)

// Transaction statuses reported by the relay.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
)

// Config holds the relay settings.
type Config struct {
	URL string
	// SignerKey is the hex encoded secp256k1 operator key.
	SignerKey string
	Timeout   time.Duration
	// Tokens converts raw balances; nil uses the default registry.
	Tokens *token.Registry
}

// Client signs intents with the operator key and talks to the relay.
type Client struct {
	http    *httpclient.Client
	key     *ecdsa.PrivateKey
	address common.Address
	tokens  *token.Registry
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// New creates a relay client.
func New(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.URL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("relay url is empty"))
	}
	key, err := parsePrivateKey(cfg.SignerKey)
	if err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("signer key"), apperror.WithCause(err))
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Tokens == nil {
		cfg.Tokens = token.DefaultRegistry()
	}

	tracer := otel.Tracer(tracerName)
	hc, err := httpclient.New(
		httpclient.WithProviderName("relay"),
		httpclient.WithBaseURL(cfg.URL),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithTracer(tracer),
	)
	if err != nil {
		return nil, fmt.Errorf("create relay http client: %w", err)
	}

	return &Client{
		http:    hc,
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		tokens:  cfg.Tokens,
		logger:  log,
		tracer:  tracer,
	}, nil
}

func parsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimSpace(hexKey)
	if hexKey == "" {
		return nil, fmt.Errorf("private key missing")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

// Address returns the operator address derived from the signer key.
func (c *Client) Address() common.Address {
	return c.address
}

// Digest is the Keccak-256 hash of the intent's JSON encoding.
func Digest(intent domain.TradeIntent) ([]byte, error) {
	payload, err := json.Marshal(intent)
	if err != nil {
		return nil, fmt.Errorf("encode intent: %w", err)
	}
	return crypto.Keccak256(payload), nil
}

// Sign returns the 65 byte [R || S || V] signature of the intent digest.
func (c *Client) Sign(intent domain.TradeIntent) ([]byte, error) {
	digest, err := Digest(intent)
	if err != nil {
		return nil, err
	}
	return crypto.Sign(digest, c.key)
}

type submitRequest struct {
	Intent    domain.TradeIntent `json:"intent"`
	Signature string             `json:"signature"`
	Signer    string             `json:"signer"`
}

type submitResponse struct {
	Signature string `json:"signature"`
	Error     string `json:"error,omitempty"`
}

// SignAndSend signs intent and submits it once. The returned signature is the
// relay's transaction id.
func (c *Client) SignAndSend(ctx context.Context, intent domain.TradeIntent) (string, error) {
	ctx, span := c.tracer.Start(ctx, "relay.sign_and_send",
		trace.WithAttributes(
			attribute.String("intent_id", intent.ID),
			attribute.String("venue", intent.Venue),
			attribute.String("route", string(intent.Route)),
		),
	)
	defer span.End()

	sig, err := c.Sign(intent)
	if err != nil {
		return "", apperror.New(apperror.CodeSigningFailed, apperror.WithContext(intent.ID), apperror.WithCause(err))
	}

	resp, err := c.http.PostJSON(ctx, "v1/transactions", submitRequest{
		Intent:    intent,
		Signature: hexutil.Encode(sig),
		Signer:    c.address.Hex(),
	})
	if err != nil {
		return "", err
	}

	var out submitResponse
	if !resp.IsSuccess() {
		reason := string(resp.Body)
		if err := json.Unmarshal(resp.Body, &out); err == nil && out.Error != "" {
			reason = out.Error
		}
		return "", fmt.Errorf("relay rejected intent %s: HTTP %d %s", intent.ID, resp.StatusCode, reason)
	}
	if err := resp.Decode(&out); err != nil {
		return "", apperror.New(apperror.CodeMalformedResponse, apperror.WithContext("relay submit"), apperror.WithCause(err))
	}
	if out.Signature == "" {
		return "", apperror.New(apperror.CodeMalformedResponse, apperror.WithContext("relay submit: empty signature"))
	}

	span.SetAttributes(attribute.String("signature", out.Signature))
	return out.Signature, nil
}

type statusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Confirmed reports whether the relay has seen the transaction confirmed.
// A failed transaction is an error.
func (c *Client) Confirmed(ctx context.Context, signature string) (bool, error) {
	resp, err := c.http.Get(ctx, "v1/transactions/"+url.PathEscape(signature), nil)
	if err != nil {
		return false, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if !resp.IsSuccess() {
		return false, fmt.Errorf("relay status %s: HTTP %d", signature, resp.StatusCode)
	}

	var out statusResponse
	if err := resp.Decode(&out); err != nil {
		return false, apperror.New(apperror.CodeMalformedResponse, apperror.WithContext("relay status"), apperror.WithCause(err))
	}

	switch out.Status {
	case StatusConfirmed:
		return true, nil
	case StatusPending, "":
		return false, nil
	case StatusFailed:
		return false, fmt.Errorf("transaction %s failed: %s", signature, out.Error)
	default:
		return false, apperror.New(apperror.CodeMalformedResponse, apperror.WithContextf("relay status %q", out.Status))
	}
}

// balanceResponse carries the balance in base units (lamports for SOL).
type balanceResponse struct {
	Amount string `json:"amount"`
}

// Balance returns the operator wallet balance of symbol, converted from base
// units with the token's decimals.
func (c *Client) Balance(ctx context.Context, symbol string) (decimal.Decimal, error) {
	tok, ok := c.tokens.BySymbol(symbol)
	if !ok {
		return decimal.Zero, apperror.New(apperror.CodeUnknownToken, apperror.WithContext(symbol))
	}

	path := fmt.Sprintf("v1/balances/%s/%s", c.address.Hex(), url.PathEscape(strings.ToUpper(symbol)))
	resp, err := c.http.Get(ctx, path, nil)
	if err != nil {
		return decimal.Zero, err
	}
	if !resp.IsSuccess() {
		return decimal.Zero, fmt.Errorf("relay balance %s: HTTP %d", symbol, resp.StatusCode)
	}

	var out balanceResponse
	if err := resp.Decode(&out); err != nil {
		return decimal.Zero, apperror.New(apperror.CodeMalformedResponse, apperror.WithContext("relay balance"), apperror.WithCause(err))
	}
	raw, ok := new(big.Int).SetString(out.Amount, 10)
	if !ok || raw.Sign() < 0 {
		return decimal.Zero, apperror.New(apperror.CodeMalformedResponse, apperror.WithContextf("relay balance amount %q", out.Amount))
	}
	return tok.FromBaseUnits(raw), nil
}

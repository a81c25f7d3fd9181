// Package core is the typed HTTP client for the external escrow ledger
// service ("Core"). Every call is a single attempt with a bounded timeout;
// retry policy, if any, belongs to the caller.
package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/uniqdata/backend/internal/config"
	"github.com/uniqdata/backend/pkg/logger"
)

const defaultTimeout = 15 * time.Second

// ClientError wraps any failure talking to Core: transport errors, timeouts,
// non-2xx statuses and empty or undecodable bodies.
type ClientError struct {
	Op  string // "createEscrow", "cancelEscrow", "getSummary"
	Err error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("core %s: %v", e.Op, e.Err)
}

func (e *ClientError) Unwrap() error { return e.Err }

// Client calls the Core escrow API. It holds no state beyond the HTTP client.
type Client struct {
	baseURL string
	httpc   *http.Client
}

func NewClient(cfg *config.CoreConfig) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

// --- DTOs (Core API wire format) ---

type EscrowCreateRequest struct {
	ProjectID          string `json:"projectId"`
	ParticipantAddress string `json:"participantAddress"`
	AmountXRP          int64  `json:"amountXrp"`
}

type EscrowCreateResponse struct {
	TxHash        string `json:"txHash"`
	EscrowID      string `json:"escrowId"`
	OwnerAddress  string `json:"ownerAddress"`
	OfferSequence int64  `json:"offerSequence"`
}

type EscrowCancelRequest struct {
	OwnerAddress  string `json:"ownerAddress"`
	OfferSequence int64  `json:"offerSequence"`
}

type EscrowCancelResponse struct {
	TxHash string `json:"txHash"`
}

type SummaryResponse struct {
	EscrowWalletAddress string  `json:"escrow_wallet_address"`
	EscrowBalanceDrops  string  `json:"escrow_balance_drops"`
	EscrowBalanceXRP    float64 `json:"escrow_balance_xrp"`
	Network             string  `json:"network"`
}

// CreateEscrow reserves amountXRP on the ledger for a participant.
func (c *Client) CreateEscrow(ctx context.Context, projectID, participantAddress string, amountXRP int64) (*EscrowCreateResponse, error) {
	if projectID == "" || participantAddress == "" {
		return nil, &ClientError{Op: "createEscrow", Err: fmt.Errorf("projectId and participantAddress are required")}
	}
	if amountXRP <= 0 {
		return nil, &ClientError{Op: "createEscrow", Err: fmt.Errorf("amountXrp must be positive, got %d", amountXRP)}
	}

	logger.Info().
		Str("project_id", projectID).
		Str("participant_address", truncateAddr(participantAddress)).
		Int64("amount_xrp", amountXRP).
		Msg("core createEscrow request")

	var out EscrowCreateResponse
	req := EscrowCreateRequest{
		ProjectID:          projectID,
		ParticipantAddress: participantAddress,
		AmountXRP:          amountXRP,
	}
	if err := c.postJSON(ctx, "createEscrow", "/escrow", req, &out); err != nil {
		return nil, err
	}

	logger.Info().
		Str("project_id", projectID).
		Str("tx_hash", out.TxHash).
		Int64("offer_sequence", out.OfferSequence).
		Msg("core createEscrow ok")
	return &out, nil
}

// CancelEscrow releases a previously created escrow. offerSequence must be a
// sequence number issued by an earlier CreateEscrow.
func (c *Client) CancelEscrow(ctx context.Context, ownerAddress string, offerSequence int64) (*EscrowCancelResponse, error) {
	if ownerAddress == "" {
		return nil, &ClientError{Op: "cancelEscrow", Err: fmt.Errorf("ownerAddress is required")}
	}

	logger.Info().
		Str("owner_address", truncateAddr(ownerAddress)).
		Int64("offer_sequence", offerSequence).
		Msg("core cancelEscrow request")

	var out EscrowCancelResponse
	req := EscrowCancelRequest{OwnerAddress: ownerAddress, OfferSequence: offerSequence}
	if err := c.postJSON(ctx, "cancelEscrow", "/escrow/cancel", req, &out); err != nil {
		return nil, err
	}

	logger.Info().Str("tx_hash", out.TxHash).Msg("core cancelEscrow ok")
	return &out, nil
}

// GetSummary fetches the escrow wallet KPI snapshot. Callers are expected to
// tolerate failure; the dashboard degrades instead of propagating it.
func (c *Client) GetSummary(ctx context.Context) (*SummaryResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/summary", nil)
	if err != nil {
		return nil, &ClientError{Op: "getSummary", Err: err}
	}

	var out SummaryResponse
	if err := c.do("getSummary", httpReq, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) postJSON(ctx context.Context, op, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &ClientError{Op: op, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &ClientError{Op: op, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return c.do(op, httpReq, out)
}

func (c *Client) do(op string, req *http.Request, out interface{}) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		logger.Error().Err(err).Str("op", op).Str("url", req.URL.String()).Msg("core request failed")
		return &ClientError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ClientError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Error().Str("op", op).Int("status", resp.StatusCode).Msg("core returned non-success status")
		return &ClientError{Op: op, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	if len(body) == 0 {
		return &ClientError{Op: op, Err: fmt.Errorf("empty response body")}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &ClientError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// truncateAddr keeps wallet addresses out of logs beyond a recognizable prefix.
func truncateAddr(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:12] + "..."
}

package httporacle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/KeelLabsHQ/keelbridge/internal/core/ports"
)

// service asks a remote proof-of-reserve endpoint to approve deposit claims.
type service struct {
	baseUrl string
}

func NewService(url string) ports.DepositApprovalOracle {
	return &service{baseUrl: url}
}

type approveRequest struct {
	DepositID   string `json:"depositId"`
	TxID        string `json:"txid"`
	Vout        uint32 `json:"vout"`
	Recipient   string `json:"recipient"`
	GrossAmount uint64 `json:"grossAmount"`
}

type approveResponse struct {
	Approved bool `json:"approved"`
}

func (s *service) Approve(ctx context.Context, claim ports.DepositClaim) (bool, error) {
	url := strings.TrimRight(s.baseUrl, "/") + "/approve"

	body, err := json.Marshal(approveRequest{
		DepositID:   claim.DepositID,
		TxID:        claim.TxID,
		Vout:        claim.Vout,
		Recipient:   claim.Recipient,
		GrossAmount: claim.GrossAmount,
	})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("approve deposit: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return false, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out approveResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return false, fmt.Errorf("parse response: %w", err)
	}
	return out.Approved, nil
}

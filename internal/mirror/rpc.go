package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/AlphaSNetwork/AlphaSNetwork/internal/domain"
)

const submitMethod = "alphaSocial_submitEvent"

// RPCLedger submits events to a node over JSON-RPC 2.0 on HTTP.
type RPCLedger struct {
	url    string
	client *http.Client
	nextID atomic.Int64
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int64  `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcRespError   `json:"error"`
	ID      any             `json:"id"`
}

type rpcRespError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type submitParams struct {
	Kind    domain.EntityKind `json:"kind"`
	Digest  string            `json:"digest"`
	Payload json.RawMessage   `json:"payload,omitempty"`
}

type submitResult struct {
	TxHash string `json:"tx_hash"`
}

func NewRPCLedger(url string, timeout time.Duration) (*RPCLedger, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("ledger rpc url is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RPCLedger{url: url, client: &http.Client{Timeout: timeout}}, nil
}

func (l *RPCLedger) SubmitEvent(ctx context.Context, kind domain.EntityKind, payload []byte, digest string) (string, error) {
	params := submitParams{Kind: kind, Digest: digest}
	if len(payload) > 0 && json.Valid(payload) {
		params.Payload = payload
	}
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: submitMethod, Params: []any{params}, ID: l.nextID.Add(1)})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ledger http %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode ledger response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("%w (%d): %s", ErrLedgerRejected, out.Error.Code, out.Error.Message)
	}

	// Nodes answer either with a bare hash or with an object carrying tx_hash.
	var txRef string
	if err := json.Unmarshal(out.Result, &txRef); err != nil {
		var res submitResult
		if err := json.Unmarshal(out.Result, &res); err != nil {
			return "", fmt.Errorf("decode ledger result: %w", err)
		}
		txRef = res.TxHash
	}
	if txRef == "" {
		return "", errors.New("ledger returned empty transaction reference")
	}
	return txRef, nil
}

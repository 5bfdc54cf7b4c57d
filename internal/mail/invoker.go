package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mailsweep/mailsweep/internal/batch"
	"github.com/mailsweep/mailsweep/internal/infrastructure/monitoring/logging"
)

// HTTPInvoker implements batch.Invoker over the provider's REST API.
// Bulk deletes use the batchDelete endpoint; label modifications go through
// the multipart batch endpoint, one embedded modify request per message.
type HTTPInvoker struct {
	baseURL string
	userID  string
	tokens  TokenSource
	client  *http.Client
	logger  logging.Logger
}

// Options configures an HTTPInvoker.
type Options struct {
	BaseURL string
	UserID  string
	Tokens  TokenSource
	Timeout time.Duration
	Logger  logging.Logger
}

// NewHTTPInvoker builds an invoker. BaseURL and Tokens are required.
func NewHTTPInvoker(opts Options) (*HTTPInvoker, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("mail: base URL is required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("mail: invalid base URL: %w", err)
	}
	if opts.Tokens == nil {
		return nil, fmt.Errorf("mail: token source is required")
	}
	userID := opts.UserID
	if userID == "" {
		userID = "me"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HTTPInvoker{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		userID:  userID,
		tokens:  opts.Tokens,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

type batchDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BatchDelete removes ids in one round trip. The endpoint is all-or-nothing:
// any non-2xx status means no id was deleted.
func (h *HTTPInvoker) BatchDelete(ctx context.Context, ids []string) error {
	body, err := json.Marshal(batchDeleteRequest{IDs: ids})
	if err != nil {
		return fmt.Errorf("mail: encode batch delete: %w", err)
	}

	endpoint := fmt.Sprintf("%s/users/%s/messages/batchDelete", h.baseURL, url.PathEscape(h.userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mail: build batch delete request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := h.authorize(ctx, req); err != nil {
		return err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail: batch delete: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("mail: batch delete rejected: %s", readAPIError(resp))
}

// NewModifyBatch starts a multipart batch session for mod.
func (h *HTTPInvoker) NewModifyBatch(mod batch.LabelModification, onItem batch.ItemResultFunc) batch.ModifyBatch {
	return &modifySession{inv: h, mod: mod, onItem: onItem}
}

func (h *HTTPInvoker) authorize(ctx context.Context, req *http.Request) error {
	token, err := h.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("mail: obtain token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// apiErrorBody matches the provider's error envelope.
type apiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// readAPIError extracts the server's error message from resp, falling back to
// the raw body and finally the status line. The message text drives
// retryability classification upstream, so it is passed through verbatim.
func readAPIError(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return apiErrorMessage(resp.StatusCode, raw)
}

func apiErrorMessage(status int, raw []byte) string {
	var envelope apiErrorBody
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return fmt.Sprintf("%d: %s", status, msg)
	}
	return fmt.Sprintf("%d %s", status, http.StatusText(status))
}

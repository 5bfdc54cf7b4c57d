package mail

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/mailsweep/mailsweep/internal/batch"
	"github.com/mailsweep/mailsweep/internal/infrastructure/monitoring/logging"
)

type modifyRequestBody struct {
	AddLabelIDs    []string `json:"addLabelIds,omitempty"`
	RemoveLabelIDs []string `json:"removeLabelIds,omitempty"`
}

// modifySession accumulates message ids for one multipart batch round trip.
// Each queued id becomes an embedded modify request; the provider answers
// with one embedded response per request, correlated by Content-ID.
type modifySession struct {
	inv    *HTTPInvoker
	mod    batch.LabelModification
	onItem batch.ItemResultFunc
	ids    []string
}

func (s *modifySession) Queue(id string) error {
	if id == "" {
		return fmt.Errorf("mail: empty message id")
	}
	s.ids = append(s.ids, id)
	return nil
}

// Execute sends the batch. A returned error means the whole round trip
// failed and no per-item outcome was delivered; a nil return means every
// queued id received exactly one callback.
func (s *modifySession) Execute(ctx context.Context) error {
	if len(s.ids) == 0 {
		return nil
	}

	payload, err := json.Marshal(modifyRequestBody{
		AddLabelIDs:    s.mod.AddLabels,
		RemoveLabelIDs: s.mod.RemoveLabels,
	})
	if err != nil {
		return fmt.Errorf("mail: encode modify body: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for i, id := range s.ids {
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", "application/http")
		header.Set("Content-ID", fmt.Sprintf("<item-%d>", i))
		part, err := writer.CreatePart(header)
		if err != nil {
			return fmt.Errorf("mail: build batch part: %w", err)
		}
		fmt.Fprintf(part, "POST /users/%s/messages/%s/modify HTTP/1.1\r\n",
			url.PathEscape(s.inv.userID), url.PathEscape(id))
		fmt.Fprintf(part, "Content-Type: application/json\r\n")
		fmt.Fprintf(part, "Content-Length: %d\r\n\r\n", len(payload))
		part.Write(payload)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("mail: finalize batch body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.inv.baseURL+"/batch", &buf)
	if err != nil {
		return fmt.Errorf("mail: build batch request: %w", err)
	}
	req.Header.Set("Content-Type", "multipart/mixed; boundary="+writer.Boundary())
	if err := s.inv.authorize(ctx, req); err != nil {
		return err
	}

	resp, err := s.inv.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail: batch modify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mail: batch modify rejected: %s", readAPIError(resp))
	}
	return s.deliverOutcomes(resp)
}

// deliverOutcomes walks the multipart response and fires the item callback
// once per queued id. Parts are matched to ids through their Content-ID
// index; ids without a matching part are reported as failed so the caller's
// tally stays complete.
func (s *modifySession) deliverOutcomes(resp *http.Response) error {
	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return fmt.Errorf("mail: unexpected batch response content type %q", resp.Header.Get("Content-Type"))
	}

	responded := make(map[int]bool, len(s.ids))
	reader := multipart.NewReader(resp.Body, params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("mail: read batch response part: %w", err)
		}

		idx, ok := partIndex(part.Header.Get("Content-ID"))
		if !ok || idx < 0 || idx >= len(s.ids) {
			s.inv.logger.Warn("batch response part with unknown content id",
				logging.String("content_id", part.Header.Get("Content-ID")),
			)
			continue
		}
		responded[idx] = true

		status, raw, err := readEmbeddedResponse(part)
		if err != nil {
			s.onItem(s.ids[idx], fmt.Errorf("malformed batch response: %v", err))
			continue
		}
		if status >= 200 && status < 300 {
			s.onItem(s.ids[idx], nil)
		} else {
			s.onItem(s.ids[idx], fmt.Errorf("%s", apiErrorMessage(status, raw)))
		}
	}

	for i, id := range s.ids {
		if !responded[i] {
			s.onItem(id, fmt.Errorf("no response in batch reply"))
		}
	}
	return nil
}

// partIndex extracts N from Content-ID values like <response-item-N> or
// <item-N>.
func partIndex(contentID string) (int, bool) {
	trimmed := strings.Trim(contentID, "<>")
	trimmed = strings.TrimPrefix(trimmed, "response-")
	trimmed = strings.TrimPrefix(trimmed, "item-")
	var idx int
	if _, err := fmt.Sscanf(trimmed, "%d", &idx); err != nil {
		return 0, false
	}
	return idx, true
}

// readEmbeddedResponse parses the application/http payload of a batch part
// and returns its status code and body.
func readEmbeddedResponse(part io.Reader) (int, []byte, error) {
	inner, err := http.ReadResponse(bufio.NewReader(part), nil)
	if err != nil {
		return 0, nil, err
	}
	defer inner.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(inner.Body, 64<<10))
	if err != nil {
		return 0, nil, err
	}
	return inner.StatusCode, raw, nil
}

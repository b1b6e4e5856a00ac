package hawksoft

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tcdsagency/renewals-backend/internal/platform/httpx"
	"github.com/tcdsagency/renewals-backend/internal/platform/logger"
)

// Client is the HawkSoft Cloud API surface this service consumes. Every
// call is rate-limited upstream and must be treated as fallible; no
// caller may wrap one of these in a database transaction.
type Client interface {
	// SearchClients lists directory entries whose client code or name
	// starts with prefix.
	SearchClients(ctx context.Context, prefix string) ([]ClientSummary, error)

	// GetClient fetches the full client record, including the policy
	// list used to map attachment policy hex IDs to policy numbers.
	GetClient(ctx context.Context, clientNumber int) (*ClientDetail, error)

	// ListAttachments lists a client's attachments by cloud UUID.
	ListAttachments(ctx context.Context, clientUUID uuid.UUID) ([]Attachment, error)

	// DownloadAttachment returns the attachment payload as served: AL3
	// documents usually arrive gzip-compressed, but not always. The
	// caller decompresses with a raw fallback.
	DownloadAttachment(ctx context.Context, attachmentID string) ([]byte, error)

	// ListTasks lists agency tasks, newest first.
	ListTasks(ctx context.Context, opts ListTasksOptions) ([]Task, error)
}

type client struct {
	log        *logger.Logger
	httpClient *http.Client
	baseURL    string
	agencyID   string
	apiKey     string
	maxRetries int
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	apiKey := strings.TrimSpace(os.Getenv("HAWKSOFT_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing HAWKSOFT_API_KEY")
	}
	agencyID := strings.TrimSpace(os.Getenv("HAWKSOFT_AGENCY_ID"))
	if agencyID == "" {
		return nil, fmt.Errorf("missing HAWKSOFT_AGENCY_ID")
	}

	baseURL := strings.TrimSpace(os.Getenv("HAWKSOFT_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.hawksoft.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeoutSec := 60
	if v := os.Getenv("HAWKSOFT_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}
	maxRetries := 3
	if v := os.Getenv("HAWKSOFT_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &client{
		log:        log.With("service", "HawkSoftClient"),
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		baseURL:    baseURL,
		agencyID:   agencyID,
		apiKey:     apiKey,
		maxRetries: maxRetries,
	}, nil
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("X-Agency-Id", c.agencyID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &httpx.StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) do(ctx context.Context, method, path string, body any, out any) ([]byte, error) {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out != nil {
				if uErr := json.Unmarshal(raw, out); uErr != nil {
					return nil, fmt.Errorf("hawksoft decode error: %w", uErr)
				}
			}
			return raw, nil
		}

		if !httpx.IsRetryableError(err) {
			return nil, err
		}
		if attempt == c.maxRetries {
			return nil, err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 15*time.Second))
		c.log.Warn("HawkSoft request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		time.Sleep(sleepFor)
		backoff *= 2
	}

	return nil, fmt.Errorf("unreachable retry loop")
}

func (c *client) SearchClients(ctx context.Context, prefix string) ([]ClientSummary, error) {
	var out struct {
		Clients []ClientSummary `json:"clients"`
	}
	path := "/v1/clients?search=" + url.QueryEscape(prefix)
	if _, err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("search clients %q: %w", prefix, err)
	}
	return out.Clients, nil
}

func (c *client) GetClient(ctx context.Context, clientNumber int) (*ClientDetail, error) {
	var out ClientDetail
	path := fmt.Sprintf("/v1/clients/%d", clientNumber)
	if _, err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("get client %d: %w", clientNumber, err)
	}
	return &out, nil
}

func (c *client) ListAttachments(ctx context.Context, clientUUID uuid.UUID) ([]Attachment, error) {
	var out struct {
		Attachments []Attachment `json:"attachments"`
	}
	path := fmt.Sprintf("/v1/clients/%s/attachments", clientUUID)
	if _, err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("list attachments for %s: %w", clientUUID, err)
	}
	return out.Attachments, nil
}

func (c *client) DownloadAttachment(ctx context.Context, attachmentID string) ([]byte, error) {
	path := fmt.Sprintf("/v1/attachments/%s/content", url.PathEscape(attachmentID))
	raw, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("download attachment %s: %w", attachmentID, err)
	}
	return raw, nil
}

func (c *client) ListTasks(ctx context.Context, opts ListTasksOptions) ([]Task, error) {
	var out struct {
		Tasks []Task `json:"tasks"`
	}
	q := url.Values{}
	if opts.ModifiedSince != nil {
		q.Set("modifiedSince", opts.ModifiedSince.UTC().Format(time.RFC3339))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	path := "/v1/tasks"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}
	if _, err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return out.Tasks, nil
}

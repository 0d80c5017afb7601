package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"leadprep/internal"
	"leadprep/internal/config"
	"leadprep/internal/logging"
)

var (
	ErrMissingAPIKey = errors.New("missing GOHIGHLEVEL_API_KEY")
	ErrRateLimited   = errors.New("rate limited")
	ErrTransport     = errors.New("network failure")
)

// StatusError is a non-2xx, non-429 answer from the CRM.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	return fmt.Sprintf("crm rejected contact: status=%d body=%s", e.StatusCode, body)
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
	sleep      Sleeper
	log        *zap.Logger
}

func NewClient(cfg config.Config, log *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.CRMTimeout()},
		limiter:    NewRateLimiter(cfg.CRMRateLimitRPS),
		sleep:      sleepContext,
		log:        logging.OrNop(log),
	}
}

// SubmitResult describes one resolved submission, retries included.
type SubmitResult struct {
	StatusCode int
	Attempts   int
	Waited     time.Duration
	Response   map[string]any
}

// SubmitOne posts a single contact. A 429 is retried after the server's
// Retry-After delay at most CRMMaxRetries times; every other failure is final.
func (c *Client) SubmitOne(ctx context.Context, rec internal.CleanedRecord) (SubmitResult, error) {
	var result SubmitResult
	if strings.TrimSpace(c.cfg.CRMAPIKey) == "" {
		return result, ErrMissingAPIKey
	}

	payload, err := json.Marshal(ContactFromRecord(rec))
	if err != nil {
		return result, err
	}

	retries := 0
	for {
		if err := c.limiter.WaitTurn(ctx); err != nil {
			return result, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.CRMContactsURL, bytes.NewReader(payload))
		if err != nil {
			return result, err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.CRMAPIKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		result.Attempts++
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return result, fmt.Errorf("%w: %v", ErrTransport, err)
		}
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		result.StatusCode = resp.StatusCode
		if readErr != nil {
			return result, fmt.Errorf("%w: read response: %v", ErrTransport, readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			if retries >= c.cfg.CRMMaxRetries {
				return result, fmt.Errorf("%w: gave up after %d retries", ErrRateLimited, retries)
			}
			wait := retryAfter(resp.Header.Get("Retry-After"), c.cfg.DefaultRetryAfter(), time.Now())
			c.log.Warn("rate limit exceeded, retrying",
				zap.Int("contact_id", rec.ContactID),
				zap.Duration("retry_after", wait),
				zap.Int("retry", retries+1),
			)
			if err := c.sleep(ctx, wait); err != nil {
				return result, err
			}
			result.Waited += wait
			retries++
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return result, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		}

		if len(bytes.TrimSpace(body)) > 0 {
			var decoded map[string]any
			if err := json.Unmarshal(body, &decoded); err != nil {
				c.log.Warn("crm returned a non-json body", zap.Int("contact_id", rec.ContactID), zap.Error(err))
			} else {
				result.Response = decoded
			}
		}
		return result, nil
	}
}

const maxRetryAfter = time.Hour

// retryAfter reads delta-seconds or an HTTP date, capped at maxRetryAfter;
// anything else yields fallback.
func retryAfter(header string, fallback time.Duration, now time.Time) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(header); err == nil {
		if secs < 0 {
			return fallback
		}
		if secs > int(maxRetryAfter/time.Second) {
			return maxRetryAfter
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := at.Sub(now); d > 0 {
			return min(d.Round(time.Second), maxRetryAfter)
		}
		return 0
	}
	return fallback
}

package crm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadprep/internal"
	"leadprep/internal/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func response(status int, body string, header http.Header) *http.Response {
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     header,
	}
}

type sleepRecorder struct {
	waits []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return nil
}

func testClient(t *testing.T, rt roundTripFunc) (*Client, *sleepRecorder) {
	t.Helper()
	cfg, _ := config.Load()
	cfg.CRMAPIKey = "test-key"
	cfg.CRMContactsURL = "https://crm.example.test/v1/contacts/"
	cfg.CRMMaxRetries = 3
	cfg.CRMDefaultRetryAfterSec = 10
	cfg.CRMRateLimitRPS = 0
	cfg.DeliveryBatchSize = 100
	cfg.DeliveryPauseSec = 10

	rec := &sleepRecorder{}
	client := NewClient(cfg, nil)
	client.httpClient = &http.Client{Transport: rt}
	client.sleep = rec.sleep
	return client, rec
}

func sampleRecord(id int) internal.CleanedRecord {
	return internal.CleanedRecord{
		ContactID:       id,
		FirstName:       "Jo",
		LastName:        "Doe",
		BusinessEmail:   "jo@biz.example",
		MobilePhone:     "5551234567",
		PersonalAddress: "12 Elm St",
		PersonalCity:    "Springfield",
		PersonalState:   "IL",
		PersonalZip:     "62701",
		Tags:            []string{"reader", "programmatic", "sms"},
	}
}

func TestSubmitOneSendsMappedContact(t *testing.T) {
	client, _ := testClient(t, func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/contacts/", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var got map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "Jo", got["firstName"])
		assert.Equal(t, "jo@biz.example", got["email"])
		assert.Equal(t, "5551234567", got["phone"])
		assert.Equal(t, "12 Elm St", got["address1"])
		assert.Equal(t, "62701", got["postalCode"])
		assert.Equal(t, []any{"reader", "programmatic", "sms"}, got["tags"])
		return response(http.StatusOK, `{"contact":{"id":"abc"}}`, nil), nil
	})

	res, err := client.SubmitOne(context.Background(), sampleRecord(1))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotNil(t, res.Response["contact"])
}

func TestSubmitOneRetriesAfterRateLimit(t *testing.T) {
	attempt := 0
	client, rec := testClient(t, func(r *http.Request) (*http.Response, error) {
		attempt++
		if attempt == 1 {
			return response(http.StatusTooManyRequests, "", http.Header{"Retry-After": []string{"2"}}), nil
		}
		return response(http.StatusOK, `{}`, nil), nil
	})

	res, err := client.SubmitOne(context.Background(), sampleRecord(1))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, []time.Duration{2 * time.Second}, rec.waits)
}

func TestSubmitOneRateLimitExhausted(t *testing.T) {
	attempt := 0
	client, rec := testClient(t, func(r *http.Request) (*http.Response, error) {
		attempt++
		return response(http.StatusTooManyRequests, "", http.Header{"Retry-After": []string{"3"}}), nil
	})

	res, err := client.SubmitOne(context.Background(), sampleRecord(1))
	require.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 4, attempt)
	assert.Equal(t, 4, res.Attempts)
	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second, 3 * time.Second}, rec.waits)
	assert.Equal(t, 9*time.Second, res.Waited)
}

func TestSubmitOneDefaultRetryAfter(t *testing.T) {
	attempt := 0
	client, rec := testClient(t, func(r *http.Request) (*http.Response, error) {
		attempt++
		if attempt == 1 {
			return response(http.StatusTooManyRequests, "", nil), nil
		}
		return response(http.StatusCreated, `{}`, nil), nil
	})

	_, err := client.SubmitOne(context.Background(), sampleRecord(1))
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{10 * time.Second}, rec.waits)
}

func TestSubmitOneStatusError(t *testing.T) {
	attempt := 0
	client, rec := testClient(t, func(r *http.Request) (*http.Response, error) {
		attempt++
		return response(http.StatusUnprocessableEntity, `{"msg":"bad email"}`, nil), nil
	})

	_, err := client.SubmitOne(context.Background(), sampleRecord(1))
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnprocessableEntity, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "bad email")
	assert.Equal(t, 1, attempt)
	assert.Empty(t, rec.waits)
}

func TestSubmitOneTransportError(t *testing.T) {
	client, _ := testClient(t, func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("connection reset")
	})

	_, err := client.SubmitOne(context.Background(), sampleRecord(1))
	require.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestSubmitOneRequiresAPIKey(t *testing.T) {
	client, _ := testClient(t, func(r *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	client.cfg.CRMAPIKey = ""

	_, err := client.SubmitOne(context.Background(), sampleRecord(1))
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	fallback := 10 * time.Second

	assert.Equal(t, fallback, retryAfter("", fallback, now))
	assert.Equal(t, 7*time.Second, retryAfter(" 7 ", fallback, now))
	assert.Equal(t, fallback, retryAfter("-1", fallback, now))
	assert.Equal(t, fallback, retryAfter("soon", fallback, now))
	assert.Equal(t, 30*time.Second, retryAfter(now.Add(30*time.Second).Format(http.TimeFormat), fallback, now))
	assert.Equal(t, time.Duration(0), retryAfter(now.Add(-time.Minute).Format(http.TimeFormat), fallback, now))

	assert.Equal(t, time.Hour, retryAfter("3600", fallback, now))
	assert.Equal(t, time.Hour, retryAfter("10000000000", fallback, now))
	assert.Equal(t, time.Hour, retryAfter(now.Add(48*time.Hour).Format(http.TimeFormat), fallback, now))
}

func TestContactFromRecordEmptyTags(t *testing.T) {
	contact := ContactFromRecord(internal.CleanedRecord{FirstName: "A"})
	blob, err := json.Marshal(contact)
	require.NoError(t, err)
	assert.Contains(t, string(blob), `"tags":[]`)
}

package crm

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadprep/internal"
)

func records(n int) []internal.CleanedRecord {
	out := make([]internal.CleanedRecord, n)
	for i := range out {
		out[i] = sampleRecord(i + 1)
	}
	return out
}

func TestDeliverContinuesPastFailures(t *testing.T) {
	calls := 0
	client, rec := testClient(t, func(r *http.Request) (*http.Response, error) {
		calls++
		switch calls {
		case 1:
			return response(http.StatusOK, `{}`, nil), nil
		case 2:
			return nil, errors.New("dial tcp: i/o timeout")
		case 3, 4, 5, 6:
			return response(http.StatusTooManyRequests, "", http.Header{"Retry-After": []string{"3"}}), nil
		default:
			return response(http.StatusOK, `{}`, nil), nil
		}
	})

	summary, err := client.Deliver(context.Background(), records(4))
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	require.Len(t, summary.Outcomes, 4)

	assert.True(t, summary.Outcomes[0].Success)
	assert.False(t, summary.Outcomes[1].Success)
	assert.Contains(t, summary.Outcomes[1].Message, "network failure")
	assert.False(t, summary.Outcomes[2].Success)
	assert.Contains(t, summary.Outcomes[2].Message, "rate limited")
	assert.Equal(t, 4, summary.Outcomes[2].Attempts)
	assert.True(t, summary.Outcomes[3].Success)
	assert.Equal(t, 4, summary.Outcomes[3].Index)

	// only the exhausted record slept: three Retry-After waits
	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second, 3 * time.Second}, rec.waits)
	assert.Equal(t, "delivered 2 of 4 contacts (2 failed)", summary.String())
}

func TestDeliverPausesBetweenBatches(t *testing.T) {
	client, rec := testClient(t, func(r *http.Request) (*http.Response, error) {
		return response(http.StatusOK, `{}`, nil), nil
	})
	client.cfg.DeliveryBatchSize = 2
	client.cfg.DeliveryPauseSec = 5

	summary, err := client.Deliver(context.Background(), records(5))
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Succeeded)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, rec.waits)
}

func TestDeliverPausesRegardlessOfFailures(t *testing.T) {
	client, rec := testClient(t, func(r *http.Request) (*http.Response, error) {
		return response(http.StatusBadRequest, `{}`, nil), nil
	})
	client.cfg.DeliveryBatchSize = 1
	client.cfg.DeliveryPauseSec = 1

	summary, err := client.Deliver(context.Background(), records(3))
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Failed)
	assert.Len(t, rec.waits, 2)
}

func TestDeliverPreservesOrder(t *testing.T) {
	seen := []string{}
	client, _ := testClient(t, func(r *http.Request) (*http.Response, error) {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		seen = append(seen, buf.String())
		return response(http.StatusOK, `{}`, nil), nil
	})

	in := records(3)
	for i := range in {
		in[i].LastName = []string{"first", "second", "third"}[i]
	}
	_, err := client.Deliver(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, seen, 3)
	assert.Contains(t, seen[0], `"lastName":"first"`)
	assert.Contains(t, seen[1], `"lastName":"second"`)
	assert.Contains(t, seen[2], `"lastName":"third"`)
}

func TestDeliverStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	client, _ := testClient(t, func(r *http.Request) (*http.Response, error) {
		calls++
		cancel()
		return response(http.StatusOK, `{}`, nil), nil
	})

	summary, err := client.Deliver(ctx, records(3))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Len(t, summary.Outcomes, 1)
}

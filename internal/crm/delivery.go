package crm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"leadprep/internal"
)

// Outcome is the resolved state of one record after delivery.
type Outcome struct {
	Index      int    `json:"index"`
	ContactID  int    `json:"contactId"`
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode,omitempty"`
	Attempts   int    `json:"attempts"`
	Message    string `json:"message"`
}

type Summary struct {
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Outcomes  []Outcome `json:"outcomes"`
}

func (s Summary) String() string {
	return fmt.Sprintf("delivered %d of %d contacts (%d failed)", s.Succeeded, s.Total, s.Failed)
}

// Deliver submits records one at a time in order. A failed record never stops
// the run; after every DeliveryBatchSize records the caller is paused for
// DeliveryPauseSec. Only ctx cancellation ends the run early, in which case
// the outcomes gathered so far are returned with ctx.Err().
func (c *Client) Deliver(ctx context.Context, records []internal.CleanedRecord) (Summary, error) {
	summary := Summary{Total: len(records), Outcomes: make([]Outcome, 0, len(records))}
	batchSize := c.cfg.DeliveryBatchSize

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		index := i + 1
		res, err := c.SubmitOne(ctx, rec)
		outcome := Outcome{
			Index:      index,
			ContactID:  rec.ContactID,
			StatusCode: res.StatusCode,
			Attempts:   res.Attempts,
		}
		if err != nil {
			outcome.Message = err.Error()
			summary.Failed++
			c.log.Error("contact not created",
				zap.Int("index", index),
				zap.Int("contact_id", rec.ContactID),
				zap.Int("status", res.StatusCode),
				zap.Error(err),
			)
		} else {
			outcome.Success = true
			outcome.Message = "created"
			summary.Succeeded++
			c.log.Info("contact created",
				zap.Int("index", index),
				zap.Int("contact_id", rec.ContactID),
				zap.Int("attempts", res.Attempts),
			)
		}
		summary.Outcomes = append(summary.Outcomes, outcome)

		if batchSize > 0 && index%batchSize == 0 && index < len(records) {
			pause := c.cfg.DeliveryPause()
			c.log.Info("batch complete, pausing",
				zap.Int("processed", index),
				zap.Duration("pause", pause),
			)
			if err := c.sleep(ctx, pause); err != nil {
				return summary, err
			}
		}
	}

	c.log.Info(summary.String())
	return summary, nil
}

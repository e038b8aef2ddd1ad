package lens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lensforum/lensforum/src/webclient"
)

const (
	txPollAttempts = 10
	txPollDelay    = time.Second
)

// WaitForTransaction polls the indexer until the transaction is finalised.
// A FAILED status or exhausted attempts return an error; the write that
// produced the hash must not be treated as durable before this returns nil.
func (c *Client) WaitForTransaction(ctx context.Context, hash string) error {
	err := webclient.Poll(ctx, txPollAttempts, txPollDelay, func() (bool, error) {
		body, err := c.get(ctx, "/transactions/"+hash+"/status", nil)
		if err != nil {
			return false, fmt.Errorf("transaction status %s: %w", hash, err)
		}
		var status TxStatus
		if err := json.Unmarshal(body, &status); err != nil {
			return false, fmt.Errorf("parse transaction status: %w", err)
		}
		switch status.Status {
		case TxFinalized:
			return true, nil
		case TxFailed:
			return false, fmt.Errorf("transaction %s failed: %s", hash, status.Reason)
		default:
			return false, nil
		}
	})
	if errors.Is(err, webclient.ErrAttemptsExhausted) {
		return fmt.Errorf("transaction %s not finalised after %d attempts", hash, txPollAttempts)
	}
	return err
}

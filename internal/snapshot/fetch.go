package snapshot

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// LoadURL fetches a hosted JSON snapshot export (e.g. a Supabase storage
// object) and decodes it. Transient failures are retried by the client;
// anything that survives the retries fails the run before any writes.
func (s *Store) LoadURL(url string) (*Snapshot, error) {
	client := resty.New().
		SetTimeout(60 * time.Second). // exports of large hospitals take a while
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json")

	s.logger.Info("Fetching snapshot", zap.String("url", url))

	resp, err := client.R().Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrUnreadable, url, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("%w: fetch %s: status %d", ErrUnreadable, url, resp.StatusCode())
	}

	snap, err := decodeJSON(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrUnreadable, url, err)
	}
	snap.Source = url
	s.logLoaded(snap)
	return snap, nil
}

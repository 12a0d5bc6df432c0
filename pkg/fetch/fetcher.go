package fetch

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/site-crawler/pkg/config"
	"github.com/Sriram-PR/site-crawler/pkg/utils"
)

// Page is a completed fetch. FinalURL differs from the requested URL after redirects.
type Page struct {
	RequestURL  *url.URL
	FinalURL    *url.URL
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetcher issues GET requests with the crawl's User-Agent and optional retry
type Fetcher struct {
	client *http.Client
	cfg    *config.AppConfig
	log    *logrus.Entry
}

// NewFetcher creates a new Fetcher. cfg must already be validated.
func NewFetcher(client *http.Client, cfg *config.AppConfig, log *logrus.Entry) *Fetcher {
	return &Fetcher{
		client: client,
		cfg:    cfg,
		log:    log.WithField("component", "fetcher"),
	}
}

// Fetch GETs target and reads its body.
//
// A 2xx response returns the page and a nil error. Any other status returns the page
// (status set, body empty) with an error wrapping one of the HTTP status sentinels.
// A request that never produced a response returns a nil page and an error wrapping
// ErrTransport, or the bare context error when ctx ended.
func (f *Fetcher) Fetch(ctx context.Context, target *url.URL) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrRequestCreation, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, fetchErr := f.fetchWithRetry(ctx, req)
	if resp == nil {
		return nil, fetchErr
	}
	defer resp.Body.Close()

	page := &Page{
		RequestURL:  target,
		FinalURL:    resp.Request.URL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if fetchErr != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return page, fetchErr
	}

	limit := f.cfg.MaxPageSizeBytes
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w: %w", utils.ErrTransport, utils.ErrResponseBodyRead, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: %w: body exceeds %d bytes", utils.ErrTransport, utils.ErrResponseBodyRead, limit)
	}
	page.Body = body
	return page, nil
}

// fetchWithRetry performs req, retrying transient failures (network errors, 5xx, 429) with
// exponential backoff and jitter when MaxRetries > 0.
// A non-nil response is returned for every received status; the caller closes its body.
func (f *Fetcher) fetchWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	var lastStatus *http.Response // Last 5xx/429 response, kept so callers can read the status

	reqLog := f.log.WithField("url", req.URL.String())
	maxRetries := f.cfg.MaxRetries

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(f.cfg.InitialRetryDelay, f.cfg.MaxRetryDelay, attempt)
			reqLog.WithFields(logrus.Fields{"attempt": attempt, "max_retries": maxRetries, "delay": delay}).Warn("Retrying request...")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				closeResponse(lastStatus)
				return nil, ctx.Err()
			}
		}
		if ctx.Err() != nil {
			closeResponse(lastStatus)
			return nil, ctx.Err()
		}

		resp, err := f.client.Do(req.Clone(ctx))
		if err != nil {
			closeResponse(resp)
			if ctx.Err() != nil {
				closeResponse(lastStatus)
				return nil, ctx.Err()
			}
			reqLog.WithField("attempt", attempt).Debugf("Network error: %v", err)
			closeResponse(lastStatus)
			lastStatus = nil
			lastErr = fmt.Errorf("%w: %w", utils.ErrTransport, err)
			continue
		}

		statusCode := resp.StatusCode
		resLog := reqLog.WithFields(logrus.Fields{"status_code": statusCode, "attempt": attempt})

		switch {
		case statusCode >= 200 && statusCode < 300:
			closeResponse(lastStatus)
			resLog.Debug("Successfully fetched")
			return resp, nil

		case statusCode >= 500, statusCode == http.StatusTooManyRequests:
			sentinel := utils.ErrServerHTTPError
			if statusCode == http.StatusTooManyRequests {
				sentinel = utils.ErrClientHTTPError
			}
			lastErr = fmt.Errorf("%w: status %d %s", sentinel, statusCode, http.StatusText(statusCode))
			closeResponse(lastStatus)
			lastStatus = resp
			if attempt < maxRetries {
				resLog.Debug("Transient status, will retry")
			}
			continue

		case statusCode >= 400:
			closeResponse(lastStatus)
			return resp, fmt.Errorf("%w: status %d %s", utils.ErrClientHTTPError, statusCode, http.StatusText(statusCode))

		default:
			closeResponse(lastStatus)
			return resp, fmt.Errorf("%w: status %d %s", utils.ErrOtherHTTPError, statusCode, http.StatusText(statusCode))
		}
	}

	if maxRetries > 0 {
		reqLog.Debugf("All %d attempts failed. Last error: %v", maxRetries+1, lastErr)
		lastErr = fmt.Errorf("%w: %w", utils.ErrRetryFailed, lastErr)
	}
	return lastStatus, lastErr
}

// backoffDelay returns initial * 2^(attempt-1) capped at max, with +/-10% jitter
func backoffDelay(initial, maxDelay time.Duration, attempt int) time.Duration {
	delay := time.Duration(float64(initial) * math.Pow(2, float64(attempt-1)))
	if delay <= 0 || delay > maxDelay {
		delay = maxDelay
	}
	if delay/5 > 0 {
		delay += time.Duration(rand.Int63n(int64(delay/5))) - delay/10
	}
	if delay < 0 {
		delay = 0
	}
	return delay
}

func closeResponse(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	resp.Body.Close()
}

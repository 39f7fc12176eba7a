package launcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/antaressimulatorteam/antares-web-installer/installer/internal/installerr"
)

const (
	// DefaultHealthURL is the health endpoint of a locally running server.
	DefaultHealthURL = "http://127.0.0.1:8080/health"
	// DefaultPollInterval separates two health checks.
	DefaultPollInterval = time.Second
	// DefaultMaxWait bounds the whole health polling.
	DefaultMaxWait = 30 * time.Second

	requestTimeout = time.Second
)

var errServerExited = errors.New("server process exited")

// HealthChecker polls a server health endpoint until it answers 200 OK.
type HealthChecker struct {
	URL      string
	Interval time.Duration
	Client   *http.Client
}

// NewHealthChecker returns a checker polling url every DefaultPollInterval.
func NewHealthChecker(url string) *HealthChecker {
	return &HealthChecker{
		URL:      url,
		Interval: DefaultPollInterval,
		Client:   &http.Client{Timeout: requestTimeout},
	}
}

// WaitHealthy polls the health endpoint until it answers 200 OK, the server
// process exits, ctx is done or maxWait is spent. A refused connection or a
// non-200 answer costs one attempt.
func (h *HealthChecker) WaitHealthy(ctx context.Context, srv *Server, maxWait time.Duration, onAttempt func(attempt, maxAttempts int)) error {
	interval := h.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	maxAttempts := int(maxWait / interval)
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	attempt := 0
	operation := func() error {
		attempt++
		if onAttempt != nil {
			onAttempt(attempt, maxAttempts)
		}

		select {
		case <-srv.Done():
			return backoff.Permanent(errServerExited)
		default:
		}

		err := h.probe(ctx)
		if err == nil {
			return nil
		}
		log.Infof("attempt #%d: server is not available yet: %v", attempt, err)
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(maxAttempts-1)), ctx)
	err := backoff.Retry(operation, b)
	switch {
	case err == nil:
		log.Infof("server is now available at %s", h.URL)
		return nil
	case errors.Is(err, errServerExited):
		return installerr.New(installerr.KindServerStart, fmt.Errorf("%w: %v\n%s", errServerExited, srv.ExitError(), srv.OutputTail()),
			"server stopped unexpectedly: %v (output in %s)", srv.ExitError(), srv.LogPath())
	case ctx.Err() != nil:
		return installerr.Interrupted(ctx.Err())
	default:
		return installerr.New(installerr.KindServerStart, err,
			"server did not start in time: no healthy answer from %s after %d attempts", h.URL, maxAttempts)
	}
}

func (h *HealthChecker) probe(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, h.URL, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("invalid health url: %w", err))
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Debugf("failed to close health response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %s", resp.Status)
	}
	return nil
}

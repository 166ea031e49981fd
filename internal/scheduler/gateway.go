// Package scheduler hands batches of tasks to something that will run
// them: a shared scheduler daemon reached over HTTP, or an ephemeral pool
// of in-process executors for quick local runs.
package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/maxkimambo/gasrun/internal/config"
	"github.com/maxkimambo/gasrun/internal/errors"
	"github.com/maxkimambo/gasrun/internal/logger"
	"github.com/maxkimambo/gasrun/internal/store"
	"github.com/maxkimambo/gasrun/internal/task"
)

// submitPath is where the scheduler daemon accepts batches.
const submitPath = "/api/submit"

// benignWarning matches the parameter-typing notice the scheduler emits for
// every unset optional parameter. It carries no information.
var benignWarning = regexp.MustCompile(`^Parameter "[^"]+" with value "None" is not of type string\.?$`)

// Endpoint selects where a batch goes: a host and port, or Local.
type Endpoint struct {
	Host  string
	Port  int
	Local bool
}

// LocalEndpoint selects the in-process worker pool.
func LocalEndpoint() Endpoint {
	return Endpoint{Local: true}
}

// RemoteEndpoint selects the shared scheduler at host:port.
func RemoteEndpoint(host string, port int) Endpoint {
	return Endpoint{Host: host, Port: port}
}

func (e Endpoint) String() string {
	if e.Local {
		return "local"
	}
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

func (e Endpoint) submitURL() string {
	return "http://" + e.String() + submitPath
}

type submitRequest struct {
	Workers int         `json:"workers"`
	Tasks   []task.Spec `json:"tasks"`
}

type submitResponse struct {
	Accepted int      `json:"accepted"`
	Warnings []string `json:"warnings"`
	Error    string   `json:"error"`
}

// Gateway submits tasks for execution.
type Gateway struct {
	store      *store.Store
	client     *http.Client
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the HTTP client used for remote submissions.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.client = c }
}

// WithBackOff replaces the retry policy for transient failures.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(g *Gateway) { g.newBackOff = f }
}

// New creates a gateway. st backs local runs; cfg supplies the request
// timeout and retry count for remote ones.
func New(st *store.Store, cfg config.SchedulerConfig, opts ...Option) *Gateway {
	g := &Gateway{
		store:      st,
		client:     &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 10 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Submit hands tasks to the endpoint with the requested worker count. The
// remote path does not walk dependencies; the scheduler does.
func (g *Gateway) Submit(ctx context.Context, tasks []task.Task, workers int, endpoint Endpoint) error {
	if workers < 1 {
		return errors.NewConfigurationError("workers", fmt.Sprintf("%d is not a valid worker count", workers))
	}
	if len(tasks) == 0 {
		logger.Op.Debug("Nothing to submit")
		return nil
	}
	if endpoint.Local {
		return g.runLocal(ctx, tasks, workers)
	}
	return g.submitRemote(ctx, tasks, workers, endpoint)
}

func (g *Gateway) submitRemote(ctx context.Context, tasks []task.Task, workers int, endpoint Endpoint) error {
	if endpoint.Host == "" || endpoint.Port <= 0 {
		return errors.NewConfigurationError("scheduler", fmt.Sprintf("endpoint '%s' needs a host and port", endpoint))
	}

	specs := make([]task.Spec, 0, len(tasks))
	for _, t := range tasks {
		spec, err := task.SpecOf(t)
		if err != nil {
			return err
		}
		specs = append(specs, spec)
	}
	body, err := json.Marshal(submitRequest{Workers: workers, Tasks: specs})
	if err != nil {
		return errors.NewSubmissionError(endpoint.String(), err)
	}

	url := endpoint.submitURL()
	var resp submitResponse
	attempt := 0
	operation := func() error {
		attempt++
		r, err := g.post(ctx, url, body)
		if err != nil {
			return err
		}
		resp = *r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.Op.WithFields(map[string]interface{}{
			"endpoint": endpoint.String(),
			"attempt":  attempt,
			"wait":     wait.String(),
			"error":    err.Error(),
		}).Warn("Submission failed, retrying")
	}

	b := backoff.WithContext(backoff.WithMaxRetries(g.newBackOff(), g.maxRetries), ctx)
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		if _, ok := errors.As(err); ok {
			return err
		}
		return errors.NewSubmissionError(endpoint.String(), err)
	}

	g.logWarnings(resp.Warnings)
	logger.User.Submitf("Submitted %d tasks to %s (%d accepted, %d workers)", len(specs), endpoint, resp.Accepted, workers)
	return nil
}

// post sends one submission. Transient failures are returned as plain
// errors so they are retried; everything else is permanent.
func (g *Gateway) post(ctx context.Context, url string, body []byte) (*submitResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(errors.NewSubmissionError(url, err))
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(errors.NewSubmissionError(url, err))
		}
		return nil, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	if res.StatusCode >= 500 || res.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("scheduler returned %s", res.Status)
	}

	var out submitResponse
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &out); err != nil && res.StatusCode < 300 {
			return nil, backoff.Permanent(errors.NewSubmissionError(url, fmt.Errorf("decode response: %w", err)))
		}
	}

	if res.StatusCode >= 300 {
		reason := out.Error
		if reason == "" {
			reason = res.Status
		}
		return nil, backoff.Permanent(errors.NewSubmissionRejectedError(url, reason).
			WithContext("status", res.StatusCode))
	}
	if out.Error != "" {
		return nil, backoff.Permanent(errors.NewSubmissionRejectedError(url, out.Error))
	}
	return &out, nil
}

// logWarnings reports scheduler warnings, demoting the benign ones.
func (g *Gateway) logWarnings(warnings []string) {
	for _, w := range warnings {
		if benignWarning.MatchString(w) {
			logger.Op.Debugf("Scheduler warning (ignored): %s", w)
			continue
		}
		logger.Op.Warnf("Scheduler warning: %s", w)
	}
}

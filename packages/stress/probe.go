package stress

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	commenthttp "github.com/abdul-hamid-achik/commentclient/packages/http"
)

// Executor is the subset of the comments client a probe needs.
type Executor interface {
	PerformRequest(ctx context.Context, method, url string, payload map[string]any, opts ...commenthttp.RequestOption) (any, error)
}

// Probe sends Config.Count requests through an Executor. Every request is
// an independent call: failures are counted, never retried.
type Probe struct {
	config   *Config
	executor Executor
	limiter  *rate.Limiter
	sem      chan struct{}
	metrics  *Metrics
}

// NewProbe validates config and builds a probe.
func NewProbe(config *Config, executor Executor) (*Probe, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Probe{
		config:   config,
		executor: executor,
		sem:      make(chan struct{}, config.Concurrency),
		metrics:  NewMetrics(),
	}
	if config.Rate > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(config.Rate), 1)
	}
	return p, nil
}

// Run sends all requests and returns the summary. Cancelling ctx stops
// scheduling new requests; the summary covers what was sent.
func (p *Probe) Run(ctx context.Context) (*Summary, error) {
	p.metrics.Start()

	var (
		wg     sync.WaitGroup
		runErr error
	)
	for i := 0; i < p.config.Count; i++ {
		if err := p.wait(ctx); err != nil {
			runErr = err
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-p.sem }()
			p.execute(ctx)
		}()
	}

	wg.Wait()
	p.metrics.Stop()
	return p.metrics.GetSummary(), runErr
}

func (p *Probe) wait(ctx context.Context) error {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Probe) execute(ctx context.Context) {
	start := time.Now()
	_, err := p.executor.PerformRequest(ctx, p.config.Method, p.config.URL, p.config.Payload, commenthttp.WithRaw())
	outcome, status := classifyOutcome(err)
	p.metrics.Record(outcome, status, time.Since(start))
}

func classifyOutcome(err error) (Outcome, int) {
	if err == nil {
		return OutcomeSuccess, 0
	}

	var classified *commenthttp.Error
	if errors.As(err, &classified) {
		switch classified.Kind {
		case commenthttp.KindClientRequest:
			return OutcomeClientRequest, classified.StatusCode
		case commenthttp.KindServiceMaintenance:
			return OutcomeMaintenance, 0
		case commenthttp.KindServiceInternal:
			return OutcomeInternal, 0
		}
	}

	if commenthttp.IsTimeout(err) {
		return OutcomeTimeout, 0
	}
	return OutcomeTransport, 0
}

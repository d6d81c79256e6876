package verify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/zpix/proxyscore/internal/model"
	"github.com/zpix/proxyscore/internal/probe"
)

// Prober resolves a descriptor's effective public IP by routing one request
// through the proxy.
type Prober interface {
	Probe(ctx context.Context, d model.ProxyDescriptor) (string, error)
}

// ReputationLookup resolves geolocation and fraud score for a public IP.
type ReputationLookup interface {
	Lookup(ctx context.Context, ip, apiKey string) (model.ReputationRecord, error)
}

// Verifier fans a batch of descriptors out across bounded concurrency and
// drives each one through probe -> reputation lookup. Every dispatched
// descriptor lands in exactly one of the two output slices.
type Verifier struct {
	Prober     Prober
	Reputation ReputationLookup

	// Concurrency bounds the number of in-flight checks. Values below 1
	// are treated as 1.
	Concurrency int

	// PerProxyTimeout bounds each descriptor's probe.
	PerProxyTimeout time.Duration

	Log *slog.Logger
}

// outcome is the terminal state of one descriptor's pipeline.
type outcome struct {
	result  *model.CheckResult
	failure *model.CheckFailure
}

// Run checks every descriptor in batch and returns results ranked by fraud
// score (lowest, i.e. cleanest, first) plus the failure list. It returns only
// once every dispatched descriptor has reached a terminal state; a single bad
// proxy never aborts the batch.
//
// Cancelling ctx stops dispatching new work and lets in-flight checks finish
// or time out. Descriptors never dispatched appear in neither slice.
func (v *Verifier) Run(ctx context.Context, batch []model.ProxyDescriptor, apiKey string) ([]model.CheckResult, []model.CheckFailure) {
	concurrency := v.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	log := v.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	outcomes := make(chan outcome, len(batch))
	sem := make(chan struct{}, concurrency)
	wg := &sync.WaitGroup{}

dispatch:
	for _, d := range batch {
		if ctx.Err() != nil {
			log.Info("batch cancelled, dispatch stopped")
			break
		}

		// Acquire the slot before spawning so cancellation stops dispatch
		// instead of queueing the whole batch.
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			log.Info("batch cancelled, dispatch stopped")
			break dispatch
		}

		wg.Add(1)
		go func(d model.ProxyDescriptor) {
			defer wg.Done()
			defer func() { <-sem }()

			outcomes <- v.checkOne(ctx, d, apiKey)
		}(d)
	}

	wg.Wait()
	close(outcomes)

	results := make([]model.CheckResult, 0, len(batch))
	failures := make([]model.CheckFailure, 0)
	for o := range outcomes {
		if o.result != nil {
			results = append(results, *o.result)
		} else {
			failures = append(failures, *o.failure)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].FraudScore != results[j].FraudScore {
			return results[i].FraudScore < results[j].FraudScore
		}
		return results[i].Proxy.Address < results[j].Proxy.Address
	})

	log.Info("batch finished",
		"total", len(batch),
		"completed", len(results),
		"failed", len(failures),
	)
	return results, failures
}

// checkOne drives a single descriptor through the check state machine:
// probe first, reputation lookup only after a successful probe.
func (v *Verifier) checkOne(ctx context.Context, d model.ProxyDescriptor, apiKey string) outcome {
	log := v.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	probeCtx := ctx
	if v.PerProxyTimeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, v.PerProxyTimeout)
		defer cancel()
	}

	start := time.Now()
	publicIP, err := v.Prober.Probe(probeCtx, d)
	if err != nil {
		log.Debug("probe failed", "proxy", d.HostPort(), "err", err)
		return outcome{failure: probeFailure(d, err)}
	}
	latency := time.Since(start).Milliseconds()

	rec, err := v.Reputation.Lookup(ctx, publicIP, apiKey)
	if err != nil {
		log.Debug("reputation lookup failed", "proxy", d.HostPort(), "ip", publicIP, "err", err)
		return outcome{failure: &model.CheckFailure{
			Proxy:   d,
			Stage:   model.StageReputationQuery,
			Message: err.Error(),
		}}
	}

	log.Debug("proxy checked",
		"proxy", d.HostPort(),
		"ip", publicIP,
		"fraud_score", rec.FraudScore,
		"latency_ms", latency,
	)
	return outcome{result: &model.CheckResult{
		Proxy:      d,
		PublicIP:   publicIP,
		Location:   rec.Location,
		ISP:        rec.ISP,
		FraudScore: rec.FraudScore,
		Flags:      rec.Flags,
		LatencyMs:  latency,
	}}
}

// probeFailure maps a probe error onto a CheckFailure stage.
func probeFailure(d model.ProxyDescriptor, err error) *model.CheckFailure {
	stage := model.StageConnect

	var pe *probe.Error
	if errors.As(err, &pe) {
		switch pe.Kind {
		case probe.AuthFailed:
			stage = model.StageAuth
		case probe.Timeout:
			stage = model.StageTimeout
		case probe.MalformedResponse:
			stage = model.StageParse
		}
	} else if errors.Is(err, context.DeadlineExceeded) {
		stage = model.StageTimeout
	}

	return &model.CheckFailure{
		Proxy:   d,
		Stage:   stage,
		Message: err.Error(),
	}
}

package fetcher

import (
	"context"

	"github.com/apex/log"

	"github.com/nagiek/rendr/metrics"
	"github.com/nagiek/rendr/model"
)

// maybeRevalidate schedules a background freshness check of a cache hit when
// s asks for one and neither the throttle nor the gate holds it back.
// The caller already has its answer and never waits for the check.
func (f *Fetcher) maybeRevalidate(ctx context.Context, s model.Spec, candidate model.Resource) {
	if !s.Requirements().CheckFresh || !f.revalidate {
		return
	}
	if !f.throttle.ShouldCheckFresh(s) {
		f.metrics.Revalidation(metrics.RevalidationThrottled)
		return
	}
	if !f.gate.Allow(s.TypeName()) {
		f.metrics.Revalidation(metrics.RevalidationLimited)
		return
	}
	if !f.throttle.TryCheckFresh(s) {
		// Another hit on the same spec claimed the check first.
		f.metrics.Revalidation(metrics.RevalidationThrottled)
		return
	}

	f.bg.Add(1)
	go func() {
		defer f.bg.Done()
		f.revalidateOne(context.WithoutCancel(ctx), s, candidate)
	}()
}

// revalidateOne refetches s. A changed result replaces the cached one and is
// announced on the candidate's Refreshed signal. Failures are logged and
// dropped.
func (f *Fetcher) revalidateOne(ctx context.Context, s model.Spec, candidate model.Resource) {
	fresh, err := f.callRemote(ctx, s)
	if err != nil {
		f.metrics.Revalidation(metrics.RevalidationError)
		f.log.WithError(err).WithFields(log.Fields{
			"type":   s.TypeName(),
			"params": model.Fingerprint(s.Requirements().Params),
		}).Warn("background revalidation failed")
		return
	}

	switch c := candidate.(type) {
	case *model.Entity:
		e := fresh.(*model.Entity)
		if c.Equal(e) {
			f.metrics.Revalidation(metrics.RevalidationUnchanged)
			return
		}
		f.storeResource(ctx, e)
		f.metrics.Revalidation(metrics.RevalidationChanged)
		c.Refreshed().Notify(e)
	case *model.Collection:
		fc := fresh.(*model.Collection)
		if c.Equal(fc) {
			f.metrics.Revalidation(metrics.RevalidationUnchanged)
			return
		}
		f.storeResource(ctx, fc)
		f.metrics.Revalidation(metrics.RevalidationChanged)
		c.Refreshed().Notify(fc)
	}
}

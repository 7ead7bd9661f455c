package resilience

import (
	"context"

	"github.com/sells-group/trip-export/internal/publish"
	"github.com/sells-group/trip-export/internal/sheet"
)

// source retries table reads.
type source struct {
	src    sheet.Source
	policy Policy
}

func (s *source) Values(ctx context.Context, table string) ([][]string, error) {
	return Do(ctx, s.policy, func(ctx context.Context) ([][]string, error) {
		return s.src.Values(ctx, table)
	})
}

type listingSource struct {
	*source
	lister sheet.Lister
}

func (s *listingSource) Tables(ctx context.Context) ([]string, error) {
	return Do(ctx, s.policy, s.lister.Tables)
}

// Source wraps src so transient read failures are retried under p. The
// result implements sheet.Lister when src does.
func Source(src sheet.Source, p Policy) sheet.Source {
	if p.OnRetry == nil {
		p.OnRetry = LogRetries("sheet read")
	}
	s := &source{src: src, policy: p}
	if l, ok := src.(sheet.Lister); ok {
		return &listingSource{source: s, lister: l}
	}
	return s
}

// publisher retries whole publish calls. Only overwrite-mode publishers are
// safe to wrap since a retried create can leave a duplicate document.
type publisher struct {
	pub    publish.Publisher
	policy Policy
}

// Publisher wraps pub so transient publish failures are retried under p.
func Publisher(pub publish.Publisher, p Policy) publish.Publisher {
	if p.OnRetry == nil {
		p.OnRetry = LogRetries("publish " + pub.Target())
	}
	return &publisher{pub: pub, policy: p}
}

func (p *publisher) Target() string { return p.pub.Target() }

func (p *publisher) Publish(ctx context.Context, doc publish.Document) (publish.Ref, error) {
	return Do(ctx, p.policy, func(ctx context.Context) (publish.Ref, error) {
		return p.pub.Publish(ctx, doc)
	})
}

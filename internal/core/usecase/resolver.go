package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/docdesk/docdesk/internal/core/domain"
	"github.com/docdesk/docdesk/internal/core/ports"
)

// Cascade constants are fixed design values, not tunables: provenance
// semantics depend on them and tests pin them.
const (
	keywordConfidenceFloor  = 60
	semanticConfidenceFloor = 50
	relevanceExcerptLimit   = 1500
)

const (
	FetchFailureFatal = "fatal"
	FetchFailureSkip  = "skip"
)

type ResolverOptions struct {
	// Phase2Workers bounds the exhaustive-scan fan-out. 1 keeps the scan
	// strictly sequential.
	Phase2Workers int
	// Memoize reuses fetched content and verdicts within one resolution,
	// so the exhaustive scan does not re-pay keyword-phase calls. Nothing
	// is shared across requests.
	Memoize bool
	// FetchFailureMode decides whether a failed document fetch fails the
	// whole resolution (fatal) or skips the topic (skip). Temporary
	// upstream conditions skip in both modes.
	FetchFailureMode string
}

func (o ResolverOptions) normalize() ResolverOptions {
	out := o
	if out.Phase2Workers <= 0 {
		out.Phase2Workers = 1
	}
	if out.FetchFailureMode != FetchFailureSkip {
		out.FetchFailureMode = FetchFailureFatal
	}
	return out
}

// Resolver runs the two-phase relevance cascade: keyword candidates first
// with an immediate win above the keyword floor, then an exhaustive scan of
// the whole catalog keeping the single best verdict above the semantic
// floor. Earlier catalog entries win confidence ties.
type Resolver struct {
	fetcher ports.ContentFetcher
	oracle  ports.RelevanceOracle
	opts    ResolverOptions
}

func NewResolver(fetcher ports.ContentFetcher, oracle ports.RelevanceOracle, opts ResolverOptions) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		oracle:  oracle,
		opts:    opts.normalize(),
	}
}

func (r *Resolver) Resolve(ctx context.Context, query string, catalog domain.TopicCatalog) (domain.ResolutionOutcome, error) {
	memo := newResolutionMemo(r.opts.Memoize)
	stats := domain.ResolutionStats{}

	candidates := SelectCandidates(query, catalog)
	stats.KeywordCandidates = len(candidates)

	for _, candidate := range candidates {
		score, err := r.scoreTopic(ctx, query, candidate.Topic, candidate.DocumentRef, memo)
		if err != nil {
			return domain.ResolutionOutcome{}, err
		}
		score.addTo(&stats)
		if !score.scored {
			continue
		}
		if score.verdict.Relevant && score.verdict.Confidence > keywordConfidenceFloor {
			slog.Info("resolution_keyword_match",
				"topic", candidate.Topic,
				"confidence", score.verdict.Confidence,
			)
			return domain.ResolutionOutcome{
				Provenance: domain.ProvenanceKeywordMatch,
				Topic:      candidate.Topic,
				Content:    score.content,
				Confidence: score.verdict.Confidence,
				Stats:      stats,
			}, nil
		}
	}

	// The exhaustive scan covers every topic exactly once, so the per-topic
	// counters restart; only the candidate count carries over.
	stats = domain.ResolutionStats{KeywordCandidates: stats.KeywordCandidates}
	return r.scanAllTopics(ctx, query, catalog, memo, stats)
}

// scanAllTopics is the exhaustive phase. Every catalog entry is scored, even
// the ones the keyword phase already rejected; there is no short-circuit.
func (r *Resolver) scanAllTopics(
	ctx context.Context,
	query string,
	catalog domain.TopicCatalog,
	memo *resolutionMemo,
	stats domain.ResolutionStats,
) (domain.ResolutionOutcome, error) {
	entries := catalog.Entries()
	scores := make([]topicScore, len(entries))

	var err error
	if r.opts.Phase2Workers > 1 && len(entries) > 1 {
		err = r.scoreEntriesParallel(ctx, query, entries, memo, scores)
	} else {
		err = r.scoreEntriesSequential(ctx, query, entries, memo, scores)
	}
	if err != nil {
		return domain.ResolutionOutcome{}, err
	}

	// Reduce in catalog order with a strictly-greater comparison, so equal
	// confidence keeps the earliest entry regardless of completion order.
	bestIdx := -1
	bestConfidence := 0
	for i := range scores {
		scores[i].addTo(&stats)
		if !scores[i].scored || !scores[i].verdict.Relevant {
			continue
		}
		if scores[i].verdict.Confidence > bestConfidence {
			bestIdx = i
			bestConfidence = scores[i].verdict.Confidence
		}
	}

	if bestIdx >= 0 && bestConfidence > semanticConfidenceFloor {
		slog.Info("resolution_semantic_match",
			"topic", entries[bestIdx].Name,
			"confidence", bestConfidence,
		)
		return domain.ResolutionOutcome{
			Provenance: domain.ProvenanceSemanticSearch,
			Topic:      entries[bestIdx].Name,
			Content:    scores[bestIdx].content,
			Confidence: bestConfidence,
			Stats:      stats,
		}, nil
	}

	slog.Info("resolution_no_match",
		"topics_scored", stats.TopicsScored,
		"degraded_verdicts", stats.DegradedVerdicts,
	)
	return domain.ResolutionOutcome{
		Provenance:      domain.ProvenanceNoMatch,
		AvailableTopics: catalog.Names(),
		Stats:           stats,
	}, nil
}

func (r *Resolver) scoreEntriesSequential(
	ctx context.Context,
	query string,
	entries []domain.TopicEntry,
	memo *resolutionMemo,
	scores []topicScore,
) error {
	for i, entry := range entries {
		score, err := r.scoreTopic(ctx, query, entry.Name, entry.DocumentRef, memo)
		if err != nil {
			return err
		}
		scores[i] = score
	}
	return nil
}

func (r *Resolver) scoreEntriesParallel(
	ctx context.Context,
	query string,
	entries []domain.TopicEntry,
	memo *resolutionMemo,
	scores []topicScore,
) error {
	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	workers := r.opts.Phase2Workers
	if workers > len(entries) {
		workers = len(entries)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				score, err := r.scoreTopic(scanCtx, query, entries[i].Name, entries[i].DocumentRef, memo)
				if err != nil {
					errOnce.Do(func() {
						firstErr = err
						cancel()
					})
					return
				}
				scores[i] = score
			}
		}()
	}

feed:
	for i := range entries {
		select {
		case <-scanCtx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

type topicScore struct {
	topic   string
	content *domain.DocumentContent
	verdict domain.RelevanceVerdict
	scored  bool
}

func (s topicScore) addTo(stats *domain.ResolutionStats) {
	if !s.scored {
		stats.SkippedTopics++
		return
	}
	stats.TopicsScored++
	if s.verdict.Reason == domain.VerdictReasonUnparseable {
		stats.DegradedVerdicts++
	}
}

// scoreTopic fetches one document and asks the oracle for a verdict. Topics
// without text are skipped; oracle failures degrade to a zero verdict so one
// bad call never aborts the cascade.
func (r *Resolver) scoreTopic(
	ctx context.Context,
	query, topic, documentRef string,
	memo *resolutionMemo,
) (topicScore, error) {
	if err := ctx.Err(); err != nil {
		return topicScore{}, err
	}

	documentID := domain.DocumentID(documentRef)
	content, ok := memo.contentFor(documentID)
	if !ok {
		fetched, err := r.fetcher.FetchContent(ctx, documentID)
		if err != nil {
			if ctx.Err() != nil {
				return topicScore{}, ctx.Err()
			}
			if r.skipFetchError(err) {
				slog.Warn("document_fetch_skipped", "topic", topic, "error", err)
				return topicScore{topic: topic}, nil
			}
			if !domain.IsKind(err, domain.ErrContentFetch) {
				err = domain.WrapError(domain.ErrContentFetch, "fetch document", err)
			}
			return topicScore{}, err
		}
		content = fetched
		memo.storeContent(documentID, content)
	}

	if content == nil || strings.TrimSpace(content.Text) == "" {
		slog.Debug("document_empty_skipped", "topic", topic)
		return topicScore{topic: topic}, nil
	}

	verdict, ok := memo.verdictFor(documentID)
	if !ok {
		excerpt := content.Text
		if len(excerpt) > relevanceExcerptLimit {
			excerpt = excerpt[:relevanceExcerptLimit]
		}
		v, err := r.oracle.ScoreRelevance(ctx, query, excerpt)
		if err != nil {
			if ctx.Err() != nil {
				return topicScore{}, ctx.Err()
			}
			slog.Warn("oracle_verdict_degraded", "topic", topic, "error", err)
			v = domain.ZeroVerdict(domain.VerdictReasonUnparseable)
		}
		verdict = v
		memo.storeVerdict(documentID, verdict)
	}

	return topicScore{topic: topic, content: content, verdict: verdict, scored: true}, nil
}

func (r *Resolver) skipFetchError(err error) bool {
	if r.opts.FetchFailureMode == FetchFailureSkip {
		return true
	}
	return domain.IsKind(err, domain.ErrUnavailable)
}

// resolutionMemo caches content and verdicts for the lifetime of a single
// resolution. The verdict key is the document ID alone because the query is
// fixed for the request.
type resolutionMemo struct {
	enabled bool

	mu       sync.Mutex
	contents map[string]*domain.DocumentContent
	verdicts map[string]domain.RelevanceVerdict
}

func newResolutionMemo(enabled bool) *resolutionMemo {
	return &resolutionMemo{
		enabled:  enabled,
		contents: make(map[string]*domain.DocumentContent),
		verdicts: make(map[string]domain.RelevanceVerdict),
	}
}

func (m *resolutionMemo) contentFor(documentID string) (*domain.DocumentContent, bool) {
	if !m.enabled {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.contents[documentID]
	return content, ok
}

func (m *resolutionMemo) storeContent(documentID string, content *domain.DocumentContent) {
	if !m.enabled {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contents[documentID] = content
}

func (m *resolutionMemo) verdictFor(documentID string) (domain.RelevanceVerdict, bool) {
	if !m.enabled {
		return domain.RelevanceVerdict{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	verdict, ok := m.verdicts[documentID]
	return verdict, ok
}

func (m *resolutionMemo) storeVerdict(documentID string, verdict domain.RelevanceVerdict) {
	if !m.enabled {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verdicts[documentID] = verdict
}

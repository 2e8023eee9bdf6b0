// Package correlate reconciles capture-source observations of the same
// logical LLM exchange into exactly one canonical interaction record.
//
// Up to three independent capture channels may report the same exchange,
// concurrently and out of order. The correlator groups observations by
// correlation key and direction, merges them inside a bounded time window,
// and finalizes each window exactly once, on completion of the expected
// source set or on timer expiry, whichever comes first.
package correlate

import (
	"fmt"
	"hash/fnv"
	"os"
	"sync"
	"time"

	"github.com/leakwatch/leakwatch/internal/model"
)

const (
	// DefaultWindow is the merge window opened by the first observation
	// for a correlation key.
	DefaultWindow = 5 * time.Second

	// defaultShards spreads window state so unrelated keys never contend
	// on one lock.
	defaultShards = 16
)

// AnalyzeFunc classifies merged text and returns its analysis and risk
// score. It must be pure; the correlator may call it from any goroutine.
type AnalyzeFunc func(text string) (model.Analysis, int)

// Sink receives each finalized canonical interaction exactly once.
type Sink func(model.CanonicalInteraction)

// Config holds correlator tuning.
type Config struct {
	Window time.Duration
	Shards int
}

// Stats are cumulative correlator counters for diagnostics.
type Stats struct {
	Open      int
	Finalized uint64
	LateDrops uint64
}

type windowKey struct {
	key string
	dir model.Direction
}

// window is the evolving merge state for one (key, direction) pair.
type window struct {
	wk       windowKey
	provider string
	url      string
	method   string
	netText  string
	domText  string
	sources  map[model.SourceKind]bool
	openedAt time.Time
	timer    *time.Timer
}

type shard struct {
	mu     sync.Mutex
	open   map[windowKey]*window
	closed map[windowKey]time.Time
}

// Correlator owns the set of open merge windows, sharded by key.
type Correlator struct {
	window    time.Duration
	analyze   AnalyzeFunc
	emit      Sink
	shards    []*shard
	statsMu   sync.Mutex
	finalized uint64
	lateDrops uint64
}

// New creates a correlator. Finalized records flow to emit; analyze runs
// exactly once per record, at finalization.
func New(cfg Config, analyze AnalyzeFunc, emit Sink) *Correlator {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Shards <= 0 {
		cfg.Shards = defaultShards
	}
	shards := make([]*shard, cfg.Shards)
	for i := range shards {
		shards[i] = &shard{
			open:   make(map[windowKey]*window),
			closed: make(map[windowKey]time.Time),
		}
	}
	return &Correlator{
		window:  cfg.Window,
		analyze: analyze,
		emit:    emit,
		shards:  shards,
	}
}

// DeriveKey builds the fallback correlation key for observations that carry
// no source-issued identifier: a hash of provider, url, direction, and a
// time bucket as wide as the merge window, so near-simultaneous reports of
// one exchange land in the same key.
func DeriveKey(provider, url string, dir model.Direction, at time.Time, bucket time.Duration) string {
	if bucket <= 0 {
		bucket = DefaultWindow
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%d", provider, url, dir, at.Truncate(bucket).Unix())
	return fmt.Sprintf("k-%016x", h.Sum64())
}

// Observe feeds one capture-source observation into the correlator.
// The first observation for a (key, direction) opens a merge window;
// later ones within the window merge into it. Observations arriving after
// finalization are dropped with a diagnostic.
func (c *Correlator) Observe(obs model.Observation) {
	key := obs.CorrelationKey
	if key == "" {
		key = DeriveKey(obs.Provider, obs.URL, obs.Direction, obs.ObservedAt, c.window)
	}
	wk := windowKey{key: key, dir: obs.Direction}
	sh := c.shardFor(key)

	sh.mu.Lock()
	sh.purgeClosed(time.Now(), 2*c.window)

	if _, done := sh.closed[wk]; done {
		sh.mu.Unlock()
		c.statsMu.Lock()
		c.lateDrops++
		c.statsMu.Unlock()
		fmt.Fprintf(os.Stderr, "correlate: late observation for finalized key %s/%s dropped\n", key, obs.Direction)
		return
	}

	w, ok := sh.open[wk]
	if !ok {
		w = &window{
			wk:       wk,
			provider: obs.Provider,
			url:      obs.URL,
			sources:  make(map[model.SourceKind]bool),
			openedAt: obs.ObservedAt,
		}
		if w.openedAt.IsZero() {
			w.openedAt = time.Now()
		}
		sh.open[wk] = w
		w.timer = time.AfterFunc(c.window, func() { c.expire(sh, wk) })
	}

	w.merge(obs)

	var rec model.CanonicalInteraction
	complete := w.complete()
	if complete {
		rec = c.closeLocked(sh, w)
	}
	sh.mu.Unlock()

	if complete {
		c.emit(rec)
	}
}

// Flush finalizes every open window immediately. Used at shutdown so no
// observation is silently dropped.
func (c *Correlator) Flush() {
	for _, sh := range c.shards {
		sh.mu.Lock()
		var recs []model.CanonicalInteraction
		for _, w := range sh.open {
			recs = append(recs, c.closeLocked(sh, w))
		}
		sh.mu.Unlock()
		for _, rec := range recs {
			c.emit(rec)
		}
	}
}

// Stats returns a snapshot of the correlator counters.
func (c *Correlator) Stats() Stats {
	open := 0
	for _, sh := range c.shards {
		sh.mu.Lock()
		open += len(sh.open)
		sh.mu.Unlock()
	}
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return Stats{Open: open, Finalized: c.finalized, LateDrops: c.lateDrops}
}

// expire is the timer path: window deadline reached before all expected
// sources reported. This is the normal completion route, not an error.
func (c *Correlator) expire(sh *shard, wk windowKey) {
	sh.mu.Lock()
	w, ok := sh.open[wk]
	if !ok {
		sh.mu.Unlock()
		return
	}
	rec := c.closeLocked(sh, w)
	sh.mu.Unlock()
	c.emit(rec)
}

// closeLocked finalizes a window: removes it from the open set, remembers
// it as closed, and builds the canonical record. Classification and scoring
// run here, exactly once per record. Caller holds the shard lock.
func (c *Correlator) closeLocked(sh *shard, w *window) model.CanonicalInteraction {
	if w.timer != nil {
		w.timer.Stop()
	}
	delete(sh.open, w.wk)
	sh.closed[w.wk] = time.Now()

	c.statsMu.Lock()
	c.finalized++
	c.statsMu.Unlock()

	text := w.netText
	if text == "" {
		text = w.domText
	}

	analysis, score := c.analyze(text)

	kinds := make([]model.SourceKind, 0, len(w.sources))
	for _, k := range []model.SourceKind{model.SourceNetworkRequest, model.SourceNetworkResponse, model.SourceDOMExtract} {
		if w.sources[k] {
			kinds = append(kinds, k)
		}
	}

	return model.CanonicalInteraction{
		ID:          recordID(w.wk.key, w.openedAt),
		Timestamp:   w.openedAt,
		Provider:    w.provider,
		URL:         w.url,
		Direction:   w.wk.dir,
		Method:      w.method,
		Text:        text,
		Analysis:    analysis,
		RiskScore:   score,
		SourceKinds: kinds,
	}
}

// merge folds one observation into the window. Network-layer payloads take
// precedence for text; DOM-extracted text is a fallback only. The source
// set is unioned regardless of which text wins.
func (w *window) merge(obs model.Observation) {
	w.sources[obs.SourceKind] = true
	if obs.Method != "" {
		w.method = obs.Method
	}
	if w.provider == "" {
		w.provider = obs.Provider
	}
	if w.url == "" {
		w.url = obs.URL
	}

	switch obs.SourceKind {
	case model.SourceNetworkRequest, model.SourceNetworkResponse:
		if obs.Text != "" {
			w.netText = obs.Text
		}
	case model.SourceDOMExtract:
		if obs.Text != "" && w.domText == "" {
			w.domText = obs.Text
		}
	}
}

// complete reports whether every source kind expected for this direction
// has reported.
func (w *window) complete() bool {
	if !w.sources[model.SourceDOMExtract] {
		return false
	}
	switch w.wk.dir {
	case model.DirectionRequest:
		return w.sources[model.SourceNetworkRequest]
	case model.DirectionResponse:
		return w.sources[model.SourceNetworkResponse]
	}
	return false
}

func (c *Correlator) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[int(h.Sum32())%len(c.shards)]
}

// purgeClosed drops finalized-key markers older than ttl. The closed set
// only needs to outlive stragglers from the same exchange. Caller holds
// the shard lock.
func (sh *shard) purgeClosed(now time.Time, ttl time.Duration) {
	for wk, at := range sh.closed {
		if now.Sub(at) > ttl {
			delete(sh.closed, wk)
		}
	}
}

// recordID derives the stable record identifier from the correlation key
// and the window open timestamp.
func recordID(key string, at time.Time) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d", key, at.UnixNano())
	return fmt.Sprintf("i-%016x", h.Sum64())
}

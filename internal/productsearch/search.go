// Package productsearch runs the order screen's product lookup: keystrokes are
// debounced, committed text is sent to the suggest endpoint, and only the
// newest commit's results are kept.
package productsearch

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"

	"github.com/five82/tally/internal/debounce"
	"github.com/five82/tally/internal/obs"
	"github.com/five82/tally/internal/posapi"
	"github.com/five82/tally/internal/query"
)

// DefaultLimit caps the number of suggestions requested.
const DefaultLimit = 10

// Suggester is the product suggest endpoint.
type Suggester interface {
	SuggestProducts(ctx context.Context, query string, limit int) ([]posapi.Product, error)
}

// Results is what the search panel shows.
type Results struct {
	Query    string
	Products []posapi.Product
	Loading  bool
	Err      error
}

// Option customises a Searcher.
type Option func(*Searcher)

// WithQuiet sets the debounce quiet period.
func WithQuiet(d time.Duration) Option {
	return func(s *Searcher) { s.quiet = d }
}

// WithLimit sets the suggestion limit.
func WithLimit(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithClock replaces the debounce clock.
func WithClock(c clock.WithDelayedExecution) Option {
	return func(s *Searcher) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(logger logr.Logger) Option {
	return func(s *Searcher) { s.logger = logger }
}

// OnResults registers a callback receiving every results change. It runs
// outside the searcher's lock.
func OnResults(fn func(Results)) Option {
	return func(s *Searcher) { s.onResults = fn }
}

// Searcher owns the debounce channel and the suggest query for one screen.
type Searcher struct {
	search    *query.Search[posapi.Product]
	channel   *debounce.Channel
	quiet     time.Duration
	limit     int
	clock     clock.WithDelayedExecution
	logger    logr.Logger
	onResults func(Results)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	epoch   uint64
	results Results
	closed  bool
}

// New returns a Searcher using api. Close it when the screen goes away.
func New(api Suggester, opts ...Option) *Searcher {
	s := &Searcher{
		quiet:  debounce.DefaultQuiet,
		limit:  DefaultLimit,
		logger: logr.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.search = query.NewSearch("suggest products", func(ctx context.Context, req query.Request) (query.Page[posapi.Product], error) {
		products, err := api.SuggestProducts(ctx, req.Text, req.PageSize)
		if err != nil {
			return query.Page[posapi.Product]{}, err
		}
		return query.Page[posapi.Product]{Rows: products, Total: len(products)}, nil
	})
	s.ctx, s.cancel = context.WithCancel(context.Background())

	var debounceOpts []debounce.Option
	if s.clock != nil {
		debounceOpts = append(debounceOpts, debounce.WithClock(s.clock))
	}
	s.channel = debounce.New(s.quiet, s.commit, debounceOpts...)
	return s
}

// Type records the search box's current text.
func (s *Searcher) Type(text string) { s.channel.Push(text) }

// Flush commits the typed text immediately, as on Enter.
func (s *Searcher) Flush() bool { return s.channel.Flush() }

// Committed returns the last committed text.
func (s *Searcher) Committed() string { return s.channel.LastCommitted() }

// Results returns a copy of the current results.
func (s *Searcher) Results() Results {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Reset drops pending keystrokes, the last commit, results and errors.
// A debounced commit already under way completes first and its suggestions
// are ignored when they return.
func (s *Searcher) Reset() {
	s.channel.Reset()
	s.mu.Lock()
	s.epoch++
	s.results = Results{}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)
}

// Close stops the debounce timer, cancels in-flight suggestions and waits
// for them to return.
func (s *Searcher) Close() {
	s.channel.Close()
	s.mu.Lock()
	s.epoch++
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}

func (s *Searcher) commit(text string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.epoch++
	epoch := s.epoch
	if !query.Searchable(text, query.MinSearchLength) {
		s.results = Results{Query: text}
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.publish(snap)
		return
	}
	s.results = Results{Query: text, Products: s.results.Products, Loading: true}
	snap := s.snapshotLocked()
	s.wg.Add(1)
	s.mu.Unlock()
	s.publish(snap)

	go s.run(epoch, text)
}

func (s *Searcher) run(epoch uint64, text string) {
	defer s.wg.Done()
	log := s.logger.WithValues("query", text, "epoch", epoch)
	log.V(obs.DEBUG).Info("suggesting products")

	page, err := s.search.Execute(s.ctx, query.Request{Text: text, PageSize: s.limit})

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		log.V(obs.DEBUG).Info("discarding stale suggestions")
		return
	}
	if err != nil {
		s.results = Results{Query: text, Err: err}
	} else {
		s.results = Results{Query: text, Products: page.Rows}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		log.Error(err, "product suggest failed")
	}
	s.publish(snap)
}

func (s *Searcher) snapshotLocked() Results {
	r := s.results
	if len(r.Products) > 0 {
		r.Products = append([]posapi.Product(nil), r.Products...)
	}
	return r
}

func (s *Searcher) publish(r Results) {
	if s.onResults != nil {
		s.onResults(r)
	}
}

package history

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.klb.dev/clipq/internal/apperr"
	"go.klb.dev/clipq/internal/model"
)

const (
	DefaultPageSize    = 200
	DefaultIndexLimit  = 500
	DefaultRecentLimit = 100
	DefaultBatchSize   = 500
	DefaultDebounce    = 250 * time.Millisecond
)

// Options tunes a Store. Zero values select the defaults above.
type Options struct {
	PageSize    int
	IndexLimit  int
	RecentLimit int
	BatchSize   int
	Debounce    time.Duration

	// Retention returns the retention period in days; zero or less keeps
	// everything. It is read at the start of every LoadInitial.
	Retention func() int

	Now func() time.Time

	// Dispatch runs fn on the goroutine that owns the Store. The debounced
	// search reload is delivered through it. Without it the reload runs on
	// the timer goroutine, which is only safe when nothing else touches the
	// Store.
	Dispatch func(fn func())
}

func (o *Options) setDefaults() {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.IndexLimit <= 0 {
		o.IndexLimit = DefaultIndexLimit
	}
	if o.RecentLimit <= 0 {
		o.RecentLimit = DefaultRecentLimit
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Retention == nil {
		o.Retention = func() int { return 0 }
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Dispatch == nil {
		o.Dispatch = func(fn func()) { fn() }
	}
}

// Store is the in-memory view over Records. Like queue.Queue it is owned by a
// single goroutine and does no locking of its own.
type Store struct {
	records Records
	opts    Options

	items     []Entry
	pinned    []Entry
	favorites []Entry

	query       string
	offset      int
	canLoadMore bool

	pending   *string
	timer     *time.Timer
	searchGen uint64
}

// New returns an empty Store; call LoadInitial (or Bootstrap) to populate it.
func New(records Records, opts Options) *Store {
	opts.setDefaults()
	return &Store{records: records, opts: opts}
}

// Items returns the loaded window, newest first.
func (s *Store) Items() []Entry { return slices.Clone(s.items) }

// Pinned returns the pinned index, newest first.
func (s *Store) Pinned() []Entry { return slices.Clone(s.pinned) }

// Favorites returns the favorite index, newest first.
func (s *Store) Favorites() []Entry { return slices.Clone(s.favorites) }

// CanLoadMore reports whether the last page fetched was full.
func (s *Store) CanLoadMore() bool { return s.canLoadMore }

// Query returns the active search query.
func (s *Store) Query() string { return s.query }

// Record inserts a durable entry mirroring item and, once stored, adds it to
// the front of every window it belongs to. An item already in the log is
// left alone.
func (s *Store) Record(ctx context.Context, item model.Item) error {
	e := EntryFromItem(item)
	if err := s.records.Insert(ctx, e); err != nil {
		if apperr.Is(err, apperr.Duplicate) {
			slog.Debug("history: entry already recorded", "id", e.ID)
			return nil
		}
		slog.Error("history: record failed", "id", e.ID, "err", err)
		return err
	}

	if s.query == "" || (Filter{Search: s.query}).Match(e) {
		s.items = prepend(s.items, e)
		s.offset++
	}
	if e.IsPinned {
		s.pinned = prepend(s.pinned, e)
	}
	if e.IsFavorite {
		s.favorites = prepend(s.favorites, e)
	}
	return nil
}

// Bootstrap seeds an empty log with items, typically the restored queue, and
// reloads. It does nothing once the log holds any entry.
func (s *Store) Bootstrap(ctx context.Context, items []model.Item) error {
	if len(items) == 0 {
		return nil
	}
	n, err := s.records.Count(ctx)
	if err != nil {
		slog.Warn("history: bootstrap count failed", "err", err)
		return err
	}
	if n > 0 {
		return nil
	}

	entries := make([]Entry, len(items))
	for i, it := range items {
		entries[i] = EntryFromItem(it)
	}
	if err := s.records.Insert(ctx, entries...); err != nil {
		slog.Error("history: bootstrap failed", "entries", len(entries), "err", err)
		return err
	}
	slog.Info("history: seeded from queue", "entries", len(entries))

	s.LoadInitial(ctx)
	s.LoadPinned(ctx)
	s.LoadFavorites(ctx)
	return nil
}

// LoadInitial prunes expired entries and reloads the first page under the
// current query.
func (s *Store) LoadInitial(ctx context.Context) {
	s.prune(ctx)

	page := s.fetch(ctx, Filter{Search: s.query, Limit: s.opts.PageSize})
	s.items = page
	s.offset = len(page)
	s.canLoadMore = len(page) == s.opts.PageSize
}

// LoadMore appends the next page.
func (s *Store) LoadMore(ctx context.Context) {
	if !s.canLoadMore {
		return
	}
	page := s.fetch(ctx, Filter{Search: s.query, Offset: s.offset, Limit: s.opts.PageSize})
	s.offset += len(page)
	s.canLoadMore = len(page) == s.opts.PageSize

	for _, e := range page {
		if !slices.ContainsFunc(s.items, byID(e.ID)) {
			s.items = append(s.items, e)
		}
	}
}

// LoadPinned reloads the pinned index.
func (s *Store) LoadPinned(ctx context.Context) {
	s.pinned = s.fetch(ctx, Filter{Pinned: true, Limit: s.opts.IndexLimit})
}

// LoadFavorites reloads the favorite index.
func (s *Store) LoadFavorites(ctx context.Context) {
	s.favorites = s.fetch(ctx, Filter{Favorite: true, Limit: s.opts.IndexLimit})
}

// UpdateSearch schedules a switch to query after the debounce interval. The
// window keeps serving the current query until the reload runs, and a later
// call within the interval replaces the pending one.
func (s *Store) UpdateSearch(ctx context.Context, query string) {
	q := strings.TrimSpace(query)
	target := s.query
	if s.pending != nil {
		target = *s.pending
	}
	if q == target {
		return
	}
	s.stopSearch()
	if q == s.query {
		return
	}
	s.pending = &q
	gen := s.searchGen

	ctx = context.WithoutCancel(ctx)
	s.timer = time.AfterFunc(s.opts.Debounce, func() {
		s.opts.Dispatch(func() {
			if gen != s.searchGen {
				return
			}
			s.pending, s.timer = nil, nil
			s.query = q
			s.LoadInitial(ctx)
		})
	})
}

// ApplySearch sets the query and reloads right away, cancelling any pending
// debounced reload.
func (s *Store) ApplySearch(ctx context.Context, query string) {
	s.stopSearch()
	s.query = strings.TrimSpace(query)
	s.LoadInitial(ctx)
}

// Close cancels a pending search reload.
func (s *Store) Close() { s.stopSearch() }

func (s *Store) stopSearch() {
	s.searchGen++
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Remove deletes one entry.
func (s *Store) Remove(ctx context.Context, id string) error {
	if err := s.records.Delete(ctx, id); err != nil {
		slog.Error("history: delete failed", "id", id, "err", err)
		return err
	}
	s.drop(id)
	return nil
}

// ClearAll deletes the whole log in bounded batches. If a batch fails the
// in-memory view is kept as it was; the next LoadInitial reconciles it.
func (s *Store) ClearAll(ctx context.Context) error {
	deleted := 0
	for {
		batch, err := s.records.Fetch(ctx, Filter{Limit: s.opts.BatchSize})
		if err != nil {
			slog.Error("history: clear fetch failed", "deleted", deleted, "err", err)
			return err
		}
		if len(batch) == 0 {
			break
		}
		if err := s.records.Delete(ctx, ids(batch)...); err != nil {
			slog.Error("history: clear delete failed", "deleted", deleted, "err", err)
			return err
		}
		deleted += len(batch)
		if len(batch) < s.opts.BatchSize {
			break
		}
	}
	slog.Info("history: cleared", "deleted", deleted)

	s.items, s.pinned, s.favorites = nil, nil, nil
	s.offset = 0
	s.canLoadMore = false
	return nil
}

// SetPinned stores the pinned flag of id and updates the pinned index.
func (s *Store) SetPinned(ctx context.Context, id string, pinned bool) error {
	e, err := s.mutate(ctx, id, func(e *Entry) { e.IsPinned = pinned })
	if err != nil {
		return err
	}
	s.pinned = s.reindex(s.pinned, e, pinned)
	return nil
}

// SetFavorite stores the favorite flag of id and updates the favorite index.
func (s *Store) SetFavorite(ctx context.Context, id string, favorite bool) error {
	e, err := s.mutate(ctx, id, func(e *Entry) { e.IsFavorite = favorite })
	if err != nil {
		return err
	}
	s.favorites = s.reindex(s.favorites, e, favorite)
	return nil
}

// SetCategory stores the category of id. An empty categoryID clears it.
func (s *Store) SetCategory(ctx context.Context, id, categoryID string) error {
	_, err := s.mutate(ctx, id, func(e *Entry) { e.CategoryID = categoryID })
	return err
}

// MarkAsPasted stamps the paste time on each id. Ids are processed
// independently; failures are logged and skipped.
func (s *Store) MarkAsPasted(ctx context.Context, ids []string) {
	now := s.opts.Now()
	for _, id := range ids {
		if _, err := s.mutate(ctx, id, func(e *Entry) { e.LastPastedAt = now }); err != nil {
			slog.Warn("history: mark pasted failed", "id", id, "err", err)
		}
	}
}

// RecentlyPasted queries the entries that were pasted, most recent paste
// first.
func (s *Store) RecentlyPasted(ctx context.Context) []Entry {
	return s.fetch(ctx, Filter{Pasted: true, Order: ByLastPasted, Limit: s.opts.RecentLimit})
}

// Get fetches a single entry from the durable log.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	found, err := s.records.Fetch(ctx, Filter{ID: id, Limit: 1})
	if err != nil {
		return Entry{}, err
	}
	if len(found) == 0 {
		return Entry{}, apperr.New(apperr.NotFound, "history entry "+id)
	}
	return found[0], nil
}

// mutate applies fn to the durable entry and, after a successful update,
// to every loaded copy.
func (s *Store) mutate(ctx context.Context, id string, fn func(*Entry)) (Entry, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	fn(&e)
	if err := s.records.Update(ctx, e); err != nil {
		slog.Error("history: update failed", "id", id, "err", err)
		return Entry{}, err
	}

	for _, window := range [][]Entry{s.items, s.pinned, s.favorites} {
		if i := slices.IndexFunc(window, byID(id)); i >= 0 {
			window[i] = e
		}
	}
	return e, nil
}

// reindex inserts e into index at its newest-first position, or removes it.
func (s *Store) reindex(index []Entry, e Entry, member bool) []Entry {
	index = slices.DeleteFunc(index, byID(e.ID))
	if !member {
		return index
	}
	at, _ := slices.BinarySearchFunc(index, e, func(a, b Entry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	index = slices.Insert(index, at, e)
	if len(index) > s.opts.IndexLimit {
		index = index[:s.opts.IndexLimit]
	}
	return index
}

func (s *Store) prune(ctx context.Context) {
	days := s.opts.Retention()
	if days <= 0 {
		return
	}
	cutoff := s.opts.Now().AddDate(0, 0, -days)

	pruned := 0
	for {
		batch, err := s.records.Fetch(ctx, Filter{Unpinned: true, Before: cutoff, Limit: s.opts.BatchSize})
		if err != nil {
			slog.Warn("history: prune fetch failed", "err", err)
			break
		}
		if len(batch) == 0 {
			break
		}
		gone := ids(batch)
		if err := s.records.Delete(ctx, gone...); err != nil {
			slog.Warn("history: prune delete failed", "err", err)
			break
		}
		for _, id := range gone {
			s.drop(id)
		}
		pruned += len(batch)
		if len(batch) < s.opts.BatchSize {
			break
		}
	}
	if pruned > 0 {
		slog.Info("history: pruned expired entries", "deleted", pruned, "retention_days", days)
	}
}

func (s *Store) fetch(ctx context.Context, f Filter) []Entry {
	found, err := s.records.Fetch(ctx, f)
	if err != nil {
		slog.Warn("history: fetch failed", "err", err)
		return nil
	}
	return found
}

func (s *Store) drop(id string) {
	n := len(s.items)
	s.items = slices.DeleteFunc(s.items, byID(id))
	if len(s.items) < n && s.offset > 0 {
		s.offset--
	}
	s.pinned = slices.DeleteFunc(s.pinned, byID(id))
	s.favorites = slices.DeleteFunc(s.favorites, byID(id))
}

func prepend(window []Entry, e Entry) []Entry {
	window = slices.DeleteFunc(window, byID(e.ID))
	return slices.Insert(window, 0, e)
}

func byID(id string) func(Entry) bool {
	return func(e Entry) bool { return e.ID == id }
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

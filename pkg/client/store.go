package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"ridesharing/internal/dto"
	"ridesharing/internal/entities"

	"github.com/patrickmn/go-cache"
)

const (
	SortAsc  = "asc"
	SortDesc = "desc"

	defaultPageSize = 20
)

// ErrRefreshFailed wraps the error of the re-fetch that follows a committed
// mutation. The write itself succeeded and the returned record is valid.
var ErrRefreshFailed = errors.New("view refresh failed")

// SortState is the active ordering of a Store.
type SortState struct {
	Field string
	Dir   string
}

// Store is the local view of one entity. Lists are replaced wholesale on every
// fetch, except in infinite scroll mode where pages after the first are
// appended. Single records are cached per id and dropped whenever the id is
// mutated or the list is re-fetched.
type Store[D dto.Identified] struct {
	client   *Client
	entity   entities.Definition
	infinite bool

	// calls serializes server round trips.
	calls sync.Mutex

	mu        sync.RWMutex
	items     []D
	loading   bool
	sort      SortState
	page      int
	size      int
	total     int64
	lastAlert *Alert
	lastErr   error

	byID *cache.Cache
}

// NewStore creates a store for entity. Paginated entities use infinite scroll.
func NewStore[D dto.Identified](c *Client, entity entities.Definition) *Store[D] {
	return &Store[D]{
		client:   c,
		entity:   entity,
		infinite: entity.Paginated,
		sort:     SortState{Field: "id", Dir: SortAsc},
		size:     defaultPageSize,
		byID:     cache.New(5*time.Minute, 10*time.Minute),
	}
}

// Items returns a copy of the cached sequence.
func (s *Store[D]) Items() []D {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]D(nil), s.items...)
}

func (s *Store[D]) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store[D]) Sort() SortState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sort
}

func (s *Store[D]) Page() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}

func (s *Store[D]) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Total is the server's item count for paginated entities, the list length otherwise.
func (s *Store[D]) Total() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// LastAlert is the alert of the most recent call that carried one.
func (s *Store[D]) LastAlert() *Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAlert
}

// LastError is the error of the most recent call, nil after a success.
func (s *Store[D]) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// FetchPage loads one page in the given order and makes it the current view.
func (s *Store[D]) FetchPage(ctx context.Context, page, size int, sortField, sortDir string) error {
	s.calls.Lock()
	defer s.calls.Unlock()
	return s.fetch(ctx, page, size, SortState{Field: sortField, Dir: sortDir})
}

// Refresh re-fetches the current view. In infinite scroll mode the view
// restarts from the first page.
func (s *Store[D]) Refresh(ctx context.Context) error {
	s.calls.Lock()
	defer s.calls.Unlock()
	return s.refresh(ctx)
}

// ToggleSort flips the direction when field is already the sort field.
// Another field sorts ascending from the first page. The view is re-fetched
// and the new order is kept only when the server accepts it.
func (s *Store[D]) ToggleSort(ctx context.Context, field string) error {
	s.calls.Lock()
	defer s.calls.Unlock()

	s.mu.RLock()
	page, size, next := s.page, s.size, s.sort
	s.mu.RUnlock()
	if next.Field == field {
		if next.Dir == SortAsc {
			next.Dir = SortDesc
		} else {
			next.Dir = SortAsc
		}
	} else {
		next = SortState{Field: field, Dir: SortAsc}
		page = 0
	}
	if s.infinite {
		page = 0
	}
	return s.fetch(ctx, page, size, next)
}

// ApplyQuery overrides the initial sort, page and size from a raw query
// string such as "sort=startTime,desc&page=2". Malformed values and fields
// the entity cannot be sorted by are ignored. Nothing is fetched.
func (s *Store[D]) ApplyQuery(rawQuery string) {
	q, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if raw := q.Get("sort"); raw != "" {
		field, dir, ok := strings.Cut(raw, ",")
		field = strings.TrimSpace(field)
		dir = strings.ToLower(strings.TrimSpace(dir))
		_, sortable := s.entity.Column(field)
		if ok && sortable && (dir == SortAsc || dir == SortDesc) {
			s.sort = SortState{Field: field, Dir: dir}
		}
	}
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p >= 0 {
		s.page = p
	}
	if n, err := strconv.Atoi(q.Get("size")); err == nil && n > 0 {
		s.size = n
	}
}

// FetchOne returns a single record, from the per-id cache when possible.
func (s *Store[D]) FetchOne(ctx context.Context, id int64) (D, error) {
	key := strconv.FormatInt(id, 10)
	if x, found := s.byID.Get(key); found {
		return x.(D), nil
	}

	s.calls.Lock()
	defer s.calls.Unlock()

	var out D
	resp, err := s.client.Do(ctx, http.MethodGet, s.path(id), "", nil, &out)
	s.record(resp, err)
	if err != nil {
		return out, err
	}
	s.byID.Set(key, out, cache.DefaultExpiration)
	return out, nil
}

// Create stores a new record and re-fetches the view.
func (s *Store[D]) Create(ctx context.Context, d D) (D, error) {
	return s.mutate(ctx, http.MethodPost, s.path(0), "", d)
}

// Update replaces a record and re-fetches the view.
func (s *Store[D]) Update(ctx context.Context, d D) (D, error) {
	id := d.GetID()
	if id == nil {
		var zero D
		return zero, fmt.Errorf("update %s: missing id", s.entity.Name)
	}
	return s.mutate(ctx, http.MethodPut, s.path(*id), "", d)
}

// PartialUpdate sends only the non-nil fields of d as a merge patch and
// re-fetches the view.
func (s *Store[D]) PartialUpdate(ctx context.Context, d D) (D, error) {
	id := d.GetID()
	if id == nil {
		var zero D
		return zero, fmt.Errorf("partial update %s: missing id", s.entity.Name)
	}
	return s.mutate(ctx, http.MethodPatch, s.path(*id), MIMEMergePatch, d)
}

// Delete removes a record and re-fetches the view.
func (s *Store[D]) Delete(ctx context.Context, id int64) error {
	s.calls.Lock()
	defer s.calls.Unlock()

	resp, err := s.client.Do(ctx, http.MethodDelete, s.path(id), "", nil, nil)
	s.record(resp, err)
	s.byID.Delete(strconv.FormatInt(id, 10))
	if err != nil {
		return err
	}
	return s.refreshAfterWrite(ctx)
}

func (s *Store[D]) mutate(ctx context.Context, method, path, contentType string, d D) (D, error) {
	s.calls.Lock()
	defer s.calls.Unlock()

	var out D
	resp, err := s.client.Do(ctx, method, path, contentType, d, &out)
	s.record(resp, err)
	if id := d.GetID(); id != nil {
		s.byID.Delete(strconv.FormatInt(*id, 10))
	}
	if err != nil {
		return out, err
	}
	return out, s.refreshAfterWrite(ctx)
}

// refreshAfterWrite re-fetches the view once the server committed a write.
func (s *Store[D]) refreshAfterWrite(ctx context.Context) error {
	if err := s.refresh(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	return nil
}

func (s *Store[D]) refresh(ctx context.Context) error {
	s.mu.RLock()
	page, size, sort := s.page, s.size, s.sort
	s.mu.RUnlock()
	if s.infinite {
		page = 0
	}
	return s.fetch(ctx, page, size, sort)
}

// fetch requires s.calls to be held.
func (s *Store[D]) fetch(ctx context.Context, page, size int, sort SortState) error {
	if size <= 0 {
		size = defaultPageSize
	}
	if sort.Dir != SortDesc {
		sort.Dir = SortAsc
	}

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	q := url.Values{}
	if sort.Field != "" {
		q.Set("sort", sort.Field+","+sort.Dir)
	}
	if s.entity.Paginated {
		q.Set("page", strconv.Itoa(page))
		q.Set("size", strconv.Itoa(size))
	}
	path := s.path(0)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var items []D
	resp, err := s.client.Do(ctx, http.MethodGet, path, "", nil, &items)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if resp != nil && resp.Alert != nil {
		s.lastAlert = resp.Alert
	}
	s.lastErr = err
	if err != nil {
		return err
	}

	if s.infinite && page > 0 {
		s.items = append(s.items, items...)
	} else {
		s.items = items
	}
	s.page, s.size, s.sort = page, size, sort
	s.total = int64(len(s.items))
	if raw := resp.Header.Get("X-Total-Count"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			s.total = n
		}
	}

	s.byID.Flush()
	for _, item := range s.items {
		if id := item.GetID(); id != nil {
			s.byID.Set(strconv.FormatInt(*id, 10), item, cache.DefaultExpiration)
		}
	}
	return nil
}

func (s *Store[D]) record(resp *Response, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if resp != nil && resp.Alert != nil {
		s.lastAlert = resp.Alert
	}
	s.lastErr = err
}

func (s *Store[D]) path(id int64) string {
	if id == 0 {
		return "/api/" + s.entity.Plural
	}
	return fmt.Sprintf("/api/%s/%d", s.entity.Plural, id)
}

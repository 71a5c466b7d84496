// Package repositorytest provides in-memory repositories for tests.
package repositorytest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"roundtable-ingestor/internal/entity"
	"roundtable-ingestor/internal/ingestor/dto"
	"roundtable-ingestor/internal/ingestor/repository"
)

// FeedSources is an in-memory repository.FeedSourceRepository.
type FeedSources struct {
	mu      sync.Mutex
	nextID  uint
	sources []entity.FeedSource
}

func NewFeedSources() *FeedSources {
	return &FeedSources{}
}

func (r *FeedSources) Upsert(_ context.Context, source *entity.FeedSource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.sources {
		if r.sources[i].URL == source.URL {
			r.sources[i].Name = source.Name
			r.sources[i].Region = source.Region
			source.ID = r.sources[i].ID
			return nil
		}
	}
	r.nextID++
	source.ID = r.nextID
	r.sources = append(r.sources, *source)
	return nil
}

func (r *FeedSources) FindActive(context.Context) ([]entity.FeedSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.FeedSource
	for _, s := range r.sources {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *FeedSources) UpdateLastFetchedAt(_ context.Context, id uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.sources {
		if r.sources[i].ID == id {
			r.sources[i].LastFetchedAt = &at
			return nil
		}
	}
	return fmt.Errorf("feed source %d not found", id)
}

func (r *FeedSources) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.sources)), nil
}

// SetActive toggles a stored source.
func (r *FeedSources) SetActive(url string, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.sources {
		if r.sources[i].URL == url {
			r.sources[i].IsActive = active
		}
	}
}

// All returns a copy of every stored source.
func (r *FeedSources) All() []entity.FeedSource {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.FeedSource(nil), r.sources...)
}

// RawArticles is an in-memory repository.RawArticleRepository. Update fails
// once its context is done, as a database call would.
type RawArticles struct {
	mu       sync.Mutex
	nextID   uint
	articles []entity.RawArticle
	// UpdateErr, when set, is returned by every Update call.
	UpdateErr error
}

func NewRawArticles() *RawArticles {
	return &RawArticles{}
}

func (r *RawArticles) FindBySourceURL(_ context.Context, sourceURL string) (*entity.RawArticle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.articles {
		if a.SourceURL == sourceURL {
			a := a
			return &a, nil
		}
	}
	return nil, nil
}

func (r *RawArticles) FindByID(_ context.Context, id uint) (*entity.RawArticle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.articles {
		if a.ID == id {
			a := a
			return &a, nil
		}
	}
	return nil, nil
}

func (r *RawArticles) Create(_ context.Context, article *entity.RawArticle) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.articles {
		if a.SourceURL == article.SourceURL {
			return false, nil
		}
	}
	r.nextID++
	article.ID = r.nextID
	article.CreatedAt = time.Now()
	r.articles = append(r.articles, *article)
	return true, nil
}

func (r *RawArticles) Update(ctx context.Context, article *entity.RawArticle, expected entity.RawArticleStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	for i := range r.articles {
		if r.articles[i].ID != article.ID {
			continue
		}
		if r.articles[i].Status != expected {
			return fmt.Errorf("%w: id=%d expected=%s", repository.ErrStaleStatus, article.ID, expected)
		}
		r.articles[i] = *article
		return nil
	}
	return fmt.Errorf("%w: id=%d expected=%s", repository.ErrStaleStatus, article.ID, expected)
}

func (r *RawArticles) FindByStatus(_ context.Context, status entity.RawArticleStatus, limit int) ([]entity.RawArticle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.RawArticle
	for _, a := range r.articles {
		if a.Status == status {
			out = append(out, a)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *RawArticles) CountByStatus(context.Context) (map[entity.RawArticleStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[entity.RawArticleStatus]int64)
	for _, s := range entity.AllRawArticleStatuses {
		counts[s] = 0
	}
	for _, a := range r.articles {
		counts[a.Status]++
	}
	return counts, nil
}

// All returns a copy of every stored article in insertion order.
func (r *RawArticles) All() []entity.RawArticle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.RawArticle(nil), r.articles...)
}

// Put stores article as is, assigning an ID when it has none.
func (r *RawArticles) Put(article entity.RawArticle) entity.RawArticle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if article.ID == 0 {
		r.nextID++
		article.ID = r.nextID
	}
	r.articles = append(r.articles, article)
	return article
}

// Policies is an in-memory repository.PolicyRepository. Transactions are not isolated.
type Policies struct {
	mu          sync.Mutex
	nextID      uint
	nextEventID uint
	policies    []entity.Policy
	events      []entity.PolicyEvent
}

func NewPolicies() *Policies {
	return &Policies{}
}

func (r *Policies) Transaction(_ context.Context, fn func(repo repository.PolicyRepository) error) error {
	return fn(r)
}

func (r *Policies) Create(_ context.Context, policy *entity.Policy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	policy.ID = r.nextID
	policy.CreatedAt = time.Now()
	policy.UpdatedAt = policy.CreatedAt
	for i := range policy.Events {
		r.nextEventID++
		policy.Events[i].ID = r.nextEventID
		policy.Events[i].PolicyID = policy.ID
		r.events = append(r.events, policy.Events[i])
	}
	stored := *policy
	stored.Events = nil
	r.policies = append(r.policies, stored)
	return nil
}

func (r *Policies) FindByTitleMatch(_ context.Context, normalizedTitles ...string) (*entity.Policy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.policies {
		for _, t := range normalizedTitles {
			if t != "" && (p.NormalizedShortTitle == t || p.NormalizedTitle == t) {
				p := p
				return &p, nil
			}
		}
	}
	return nil, nil
}

func (r *Policies) AppendEvent(_ context.Context, event *entity.PolicyEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextEventID++
	event.ID = r.nextEventID
	r.events = append(r.events, *event)
	return nil
}

func (r *Policies) UpdateStatus(_ context.Context, id uint, status entity.PolicyStatus, nextMilestone *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.policies {
		if r.policies[i].ID == id {
			r.policies[i].Status = status
			r.policies[i].NextMilestone = nextMilestone
			r.policies[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("policy %d not found", id)
}

func (r *Policies) Touch(_ context.Context, id uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.policies {
		if r.policies[i].ID == id {
			r.policies[i].UpdatedAt = at
			return nil
		}
	}
	return fmt.Errorf("policy %d not found", id)
}

func (r *Policies) FindActive(_ context.Context, limit int) ([]entity.Policy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Policy
	for i := len(r.policies) - 1; i >= 0; i-- {
		p := r.policies[i]
		if !p.IsActive {
			continue
		}
		p.Events = r.eventsOf(p.ID)
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *Policies) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.policies)), nil
}

// All returns every stored policy with its events, oldest first.
func (r *Policies) All() []entity.Policy {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Policy, len(r.policies))
	for i, p := range r.policies {
		p.Events = r.eventsOf(p.ID)
		out[i] = p
	}
	return out
}

// eventsOf returns the events of a policy, newest first.
func (r *Policies) eventsOf(policyID uint) []entity.PolicyEvent {
	var events []entity.PolicyEvent
	for _, e := range r.events {
		if e.PolicyID == policyID {
			events = append(events, e)
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].ID > events[j].ID })
	return events
}

// Articles is an in-memory repository.ArticleRepository.
type Articles struct {
	mu       sync.Mutex
	articles []entity.Article
}

func NewArticles() *Articles {
	return &Articles{}
}

func (r *Articles) Create(_ context.Context, article *entity.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	article.ID = uint(len(r.articles) + 1)
	r.articles = append(r.articles, *article)
	return nil
}

func (r *Articles) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.articles)), nil
}

func (r *Articles) All() []entity.Article {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.Article(nil), r.articles...)
}

// IngestionRuns is an in-memory repository.IngestionRunRepository.
type IngestionRuns struct {
	mu   sync.Mutex
	runs []entity.IngestionRun
}

func NewIngestionRuns() *IngestionRuns {
	return &IngestionRuns{}
}

func (r *IngestionRuns) Create(_ context.Context, run *entity.IngestionRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run.ID = uint(len(r.runs) + 1)
	r.runs = append(r.runs, *run)
	return nil
}

func (r *IngestionRuns) Update(_ context.Context, run *entity.IngestionRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.runs {
		if r.runs[i].ID == run.ID {
			r.runs[i] = *run
			return nil
		}
	}
	return fmt.Errorf("ingestion run %d not found", run.ID)
}

func (r *IngestionRuns) FindRecent(_ context.Context, limit int) ([]entity.IngestionRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.IngestionRun
	for i := len(r.runs) - 1; i >= 0; i-- {
		out = append(out, r.runs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Feeds is a scripted repository.FeedRepository keyed by feed URL.
type Feeds struct {
	mu     sync.Mutex
	items  map[string][]dto.FetchedArticle
	errs   map[string]error
	Called []string
}

func NewFeeds() *Feeds {
	return &Feeds{items: map[string][]dto.FetchedArticle{}, errs: map[string]error{}}
}

func (r *Feeds) Set(feedURL string, items ...dto.FetchedArticle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[feedURL] = items
	delete(r.errs, feedURL)
}

func (r *Feeds) Fail(feedURL string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[feedURL] = err
}

func (r *Feeds) FetchFeed(_ context.Context, feedURL, sourceName string) ([]dto.FetchedArticle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Called = append(r.Called, feedURL)
	if err := r.errs[feedURL]; err != nil {
		return []dto.FetchedArticle{}, err
	}
	out := make([]dto.FetchedArticle, len(r.items[feedURL]))
	for i, item := range r.items[feedURL] {
		item.SourceName = sourceName
		out[i] = item
	}
	return out, nil
}

// Contents is a scripted repository.ContentRepository keyed by page URL.
type Contents struct {
	mu      sync.Mutex
	content map[string]string
	errs    map[string]error
	Hits    map[string]int
}

func NewContents() *Contents {
	return &Contents{content: map[string]string{}, errs: map[string]error{}, Hits: map[string]int{}}
}

func (r *Contents) Set(pageURL, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.content[pageURL] = content
}

func (r *Contents) Fail(pageURL string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[pageURL] = err
}

func (r *Contents) FetchContent(_ context.Context, pageURL string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Hits[pageURL]++
	if err := r.errs[pageURL]; err != nil {
		return "", err
	}
	return r.content[pageURL], nil
}

// AI is a scripted repository.AIRepository.
type AI struct {
	mu     sync.Mutex
	Fn     func(ctx context.Context, input dto.SummaryInput) (*dto.PolicySummary, error)
	Inputs []dto.SummaryInput
}

func (r *AI) SummarizePolicy(ctx context.Context, input dto.SummaryInput) (*dto.PolicySummary, error) {
	r.mu.Lock()
	r.Inputs = append(r.Inputs, input)
	fn := r.Fn
	r.mu.Unlock()
	return fn(ctx, input)
}

// RunLock is a repository.RunLockRepository that can be held from a test.
type RunLock struct {
	mu   sync.Mutex
	held bool
}

func (l *RunLock) Acquire(context.Context) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return nil, false, nil
	}
	l.held = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.held = false
		return nil
	}, true, nil
}

// Hold marks the lock as taken by someone else.
func (l *RunLock) Hold() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = true
}

var (
	_ repository.FeedSourceRepository   = (*FeedSources)(nil)
	_ repository.RawArticleRepository   = (*RawArticles)(nil)
	_ repository.PolicyRepository       = (*Policies)(nil)
	_ repository.ArticleRepository      = (*Articles)(nil)
	_ repository.IngestionRunRepository = (*IngestionRuns)(nil)
	_ repository.FeedRepository         = (*Feeds)(nil)
	_ repository.ContentRepository      = (*Contents)(nil)
	_ repository.AIRepository           = (*AI)(nil)
	_ repository.RunLockRepository      = (*RunLock)(nil)
)

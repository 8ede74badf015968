package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/tahircanyildiz/blog-website/internal/apperror"
	"github.com/tahircanyildiz/blog-website/internal/model"
	"github.com/tahircanyildiz/blog-website/internal/repository"
)

var (
	_ repository.UserRepository     = (*fakeUserRepo)(nil)
	_ repository.BlogRepository     = (*fakeBlogRepo)(nil)
	_ repository.AboutRepository    = (*fakeAboutRepo)(nil)
	_ repository.ContactRepository  = (*fakeContactRepo)(nil)
	_ repository.SettingsRepository = (*fakeSettingsRepo)(nil)
)

// Fakes are in-memory implementations of the repository interfaces.
// Using fakes (not a mock framework) keeps tests easy to read: you can see
// exactly what the fake does. Each one has an err field to simulate a database
// failure.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// -------------------------------------------------------------------------
// users
// -------------------------------------------------------------------------

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*model.User
	nextID int
	err    error
	// createCalls counts Create invocations, successful or not.
	createCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.users {
		if existing.Username == u.Username || existing.Email == u.Email ||
			(u.GitHubID != 0 && existing.GitHubID == u.GitHubID) {
			return apperror.Conflict("duplicate")
		}
	}
	f.nextID++
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	u.CreatedAt = time.Now()
	copied := *u
	f.users[u.ID] = &copied
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, apperror.NotFound("user", id)
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Email == email })
}

func (f *fakeUserRepo) FindByGitHubID(_ context.Context, id int64) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.GitHubID == id })
}

func (f *fakeUserRepo) find(match func(*model.User) bool) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFoundMessage("user not found")
}

func (f *fakeUserRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	for _, u := range f.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) LinkGitHub(_ context.Context, id string, githubID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.GitHubID = githubID
	return nil
}

// -------------------------------------------------------------------------
// blogs
// -------------------------------------------------------------------------

type fakeBlogRepo struct {
	mu     sync.Mutex
	posts  map[string]*model.BlogPost
	nextID int
	err    error
}

func newFakeBlogRepo() *fakeBlogRepo {
	return &fakeBlogRepo{posts: make(map[string]*model.BlogPost)}
}

func (f *fakeBlogRepo) slugTaken(slug, exceptID string) bool {
	for id, p := range f.posts {
		if p.Slug == slug && id != exceptID {
			return true
		}
	}
	return false
}

func (f *fakeBlogRepo) Create(_ context.Context, p *model.BlogPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.slugTaken(p.Slug, "") {
		return apperror.Conflict("a blog post with this title already exists")
	}
	f.nextID++
	p.ID = fmt.Sprintf("post-%d", f.nextID)
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	copied := *p
	f.posts[p.ID] = &copied
	return nil
}

func (f *fakeBlogRepo) GetByID(_ context.Context, id string) (*model.BlogPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.posts[id]
	if !ok {
		return nil, apperror.NotFound("blog post", id)
	}
	copied := *p
	return &copied, nil
}

func (f *fakeBlogRepo) List(_ context.Context) ([]model.BlogSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.BlogSummary, 0, len(f.posts))
	for _, p := range f.posts {
		out = append(out, model.BlogSummary{
			ID: p.ID, Title: p.Title, ShortDescription: p.ShortDescription,
			PublishDate: p.PublishDate, Slug: p.Slug, Tags: p.Tags, ViewCount: p.ViewCount,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishDate.After(out[j].PublishDate) })
	return out, nil
}

func (f *fakeBlogRepo) IncrementViewCount(_ context.Context, id string) (*model.BlogPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.posts[id]
	if !ok {
		return nil, apperror.NotFound("blog post", id)
	}
	p.ViewCount++
	copied := *p
	return &copied, nil
}

func (f *fakeBlogRepo) Update(_ context.Context, p *model.BlogPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	existing, ok := f.posts[p.ID]
	if !ok {
		return apperror.NotFound("blog post", p.ID)
	}
	if f.slugTaken(p.Slug, p.ID) {
		return apperror.Conflict("a blog post with this title already exists")
	}
	p.UpdatedAt = time.Now()
	copied := *p
	copied.ViewCount = existing.ViewCount
	f.posts[p.ID] = &copied
	return nil
}

func (f *fakeBlogRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[id]; !ok {
		return apperror.NotFound("blog post", id)
	}
	delete(f.posts, id)
	return nil
}

// -------------------------------------------------------------------------
// about
// -------------------------------------------------------------------------

type fakeAboutRepo struct {
	about *model.About
	saves int
	err   error
}

func (f *fakeAboutRepo) Get(_ context.Context) (*model.About, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.about == nil {
		return nil, apperror.NotFoundMessage("about information not found")
	}
	copied := *f.about
	return &copied, nil
}

func (f *fakeAboutRepo) Save(_ context.Context, a *model.About) error {
	if f.err != nil {
		return f.err
	}
	f.saves++
	now := time.Now()
	if f.about == nil {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	copied := *a
	f.about = &copied
	return nil
}

// -------------------------------------------------------------------------
// contacts
// -------------------------------------------------------------------------

type fakeContactRepo struct {
	msgs   []*model.ContactMessage
	nextID int
	err    error
}

func (f *fakeContactRepo) Create(_ context.Context, m *model.ContactMessage) error {
	if f.err != nil {
		return f.err
	}
	f.nextID++
	m.ID = fmt.Sprintf("msg-%d", f.nextID)
	m.CreatedAt = time.Now()
	copied := *m
	f.msgs = append(f.msgs, &copied)
	return nil
}

func (f *fakeContactRepo) List(_ context.Context) ([]model.ContactMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.ContactMessage, 0, len(f.msgs))
	for i := len(f.msgs) - 1; i >= 0; i-- {
		out = append(out, *f.msgs[i])
	}
	return out, nil
}

func (f *fakeContactRepo) MarkRead(_ context.Context, id string) (*model.ContactMessage, error) {
	for _, m := range f.msgs {
		if m.ID == id {
			m.IsRead = true
			copied := *m
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("contact message", id)
}

func (f *fakeContactRepo) Delete(_ context.Context, id string) error {
	for i, m := range f.msgs {
		if m.ID == id {
			f.msgs = append(f.msgs[:i], f.msgs[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("contact message", id)
}

// -------------------------------------------------------------------------
// settings
// -------------------------------------------------------------------------

type fakeSettingsRepo struct {
	settings *model.Settings
	creates  int
	err      error
}

func (f *fakeSettingsRepo) GetOrCreate(_ context.Context) (*model.Settings, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.settings == nil {
		f.creates++
		f.settings = &model.Settings{SocialMedia: []model.SocialLink{}, CreatedAt: time.Now()}
	}
	copied := *f.settings
	copied.SocialMedia = append([]model.SocialLink{}, f.settings.SocialMedia...)
	return &copied, nil
}

func (f *fakeSettingsRepo) Save(_ context.Context, s *model.Settings) error {
	if f.err != nil {
		return f.err
	}
	copied := *s
	f.settings = &copied
	return nil
}

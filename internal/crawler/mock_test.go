package crawler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	mu    sync.Mutex
	cache map[string][]byte
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{cache: make(map[string][]byte)}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, errors.New("cache miss")
}

func (m *MockCacheService) Set(key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = value
	return nil
}

var errMockTimeout = errors.New("mock: wait timed out")

// mockSession serves canned pages. Element waits and clicks are answered
// from the current page's markup, and onClick swaps pages the way the real
// site does.
type mockSession struct {
	pages   map[string]string            // url → html
	frames  map[string]map[string]string // url → iframe id → text
	onClick map[string]string            // selector → html shown after the click

	current    string
	html       string
	userAgents []string
	visited    []string
	clicked    []string
	releases   int
	closed     int
	failHTML   error
}

func newMockSession() *mockSession {
	return &mockSession{
		pages:   make(map[string]string),
		frames:  make(map[string]map[string]string),
		onClick: make(map[string]string),
	}
}

func (m *mockSession) doc() *goquery.Document {
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader(m.html))
	return doc
}

func (m *mockSession) SetUserAgent(_ context.Context, ua string) error {
	m.userAgents = append(m.userAgents, ua)
	return nil
}

func (m *mockSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.visited = append(m.visited, url)
	m.current = url
	m.html = m.pages[url]
	return nil
}

func (m *mockSession) WaitPresent(ctx context.Context, sel string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.doc().Find(sel).Length() == 0 {
		return errMockTimeout
	}
	return nil
}

func (m *mockSession) Click(ctx context.Context, sel string, timeout time.Duration) error {
	if err := m.WaitPresent(ctx, sel, timeout); err != nil {
		return err
	}
	m.clicked = append(m.clicked, sel)
	if next, ok := m.onClick[sel]; ok {
		m.html = next
	}
	return nil
}

func (m *mockSession) ClickNth(_ context.Context, sel string, i int) error {
	if i >= m.doc().Find(sel).Length() {
		return errors.New("no such element")
	}
	m.clicked = append(m.clicked, sel)
	return nil
}

func (m *mockSession) Count(_ context.Context, sel string) (int, error) {
	return m.doc().Find(sel).Length(), nil
}

func (m *mockSession) HTML(context.Context) (string, error) {
	if m.failHTML != nil {
		return "", m.failHTML
	}
	return m.html, nil
}

func (m *mockSession) FrameText(_ context.Context, id string) (*string, error) {
	text, ok := m.frames[m.current][id]
	if !ok {
		return nil, nil
	}
	return &text, nil
}

func (m *mockSession) Release(context.Context) error {
	m.releases++
	m.html = ""
	return nil
}

func (m *mockSession) Close() error {
	m.closed++
	return nil
}

var _ Session = (*mockSession)(nil)

// recorder collects record-local failures
type recorder struct {
	errs []string
}

func (r *recorder) LogError(source string, err error) {
	r.errs = append(r.errs, source+": "+err.Error())
}

// doc parses an HTML fixture
func doc(html string) *goquery.Selection {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		panic(err)
	}
	return d.Selection
}

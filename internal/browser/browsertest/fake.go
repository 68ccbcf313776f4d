// Package browsertest contains an in-memory, scripted browser.Browser.
package browsertest

import (
	"context"
	"fmt"
	"sync"

	"flightscraper/internal/browser"
)

type SentKeys struct {
	XPath string
	Keys  string
}

// Fake is a scripted browser: elements exist when their XPath has a non-zero count
// or some text, and clicks can be hooked to change the page.
type Fake struct {
	mutex sync.Mutex

	counts    map[string]int
	texts     map[string][]string
	clickErrs map[string]error
	document  string

	// BeforeClick runs before every click, a non-nil error fails the click.
	BeforeClick func(f *Fake, xpath string) error
	// OnClick runs after every successful click, it may script the next state of the page.
	OnClick func(f *Fake, xpath string)
	// OnScroll runs after every scroll.
	OnScroll func(f *Fake, dy int)

	visited   []string
	clicks    []string
	keys      []SentKeys
	scrolls   []int
	maximized bool
	closed    bool
}

func NewFake() *Fake {
	return &Fake{
		counts:    map[string]int{},
		texts:     map[string][]string{},
		clickErrs: map[string]error{},
	}
}

// SetCount makes `n` elements match the XPath.
func (f *Fake) SetCount(xpath string, n int) *Fake {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.counts[xpath] = n
	return f
}

// SetTexts makes the XPath match one element per text.
func (f *Fake) SetTexts(xpath string, texts ...string) *Fake {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.texts[xpath] = texts
	f.counts[xpath] = len(texts)
	return f
}

// Remove makes the XPath match nothing.
func (f *Fake) Remove(xpath string) *Fake {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	delete(f.texts, xpath)
	delete(f.counts, xpath)
	return f
}

// FailClick makes every click on the XPath fail with err.
func (f *Fake) FailClick(xpath string, err error) *Fake {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.clickErrs[xpath] = err
	return f
}

func (f *Fake) SetDocument(document string) *Fake {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.document = document
	return f
}

func (f *Fake) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.visited = append(f.visited, url)
	return nil
}

func (f *Fake) Maximize(ctx context.Context) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.maximized = true
	return nil
}

func (f *Fake) Count(ctx context.Context, xpath string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.counts[xpath], nil
}

func (f *Fake) Click(ctx context.Context, xpath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mutex.Lock()
	before := f.BeforeClick
	f.mutex.Unlock()
	if before != nil {
		if err := before(f, xpath); err != nil {
			return err
		}
	}

	f.mutex.Lock()
	if err, ok := f.clickErrs[xpath]; ok {
		f.mutex.Unlock()
		return err
	}
	if f.counts[xpath] == 0 {
		f.mutex.Unlock()
		return fmt.Errorf("click %s: %w", xpath, browser.ErrElementNotFound)
	}
	f.clicks = append(f.clicks, xpath)
	hook := f.OnClick
	f.mutex.Unlock()

	if hook != nil {
		hook(f, xpath)
	}
	return nil
}

func (f *Fake) SendKeys(ctx context.Context, xpath, keys string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.counts[xpath] == 0 {
		return fmt.Errorf("send keys to %s: %w", xpath, browser.ErrElementNotFound)
	}
	f.keys = append(f.keys, SentKeys{XPath: xpath, Keys: keys})
	return nil
}

func (f *Fake) Texts(ctx context.Context, xpath string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]string(nil), f.texts[xpath]...), nil
}

func (f *Fake) ScrollBy(ctx context.Context, dy int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mutex.Lock()
	f.scrolls = append(f.scrolls, dy)
	hook := f.OnScroll
	f.mutex.Unlock()

	if hook != nil {
		hook(f, dy)
	}
	return nil
}

func (f *Fake) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.document, nil
}

func (f *Fake) Close() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.closed = true
	return nil
}

func (f *Fake) Visited() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]string(nil), f.visited...)
}

func (f *Fake) Clicks() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]string(nil), f.clicks...)
}

// ClickCount is the number of successful clicks on the XPath.
func (f *Fake) ClickCount(xpath string) int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	n := 0
	for _, c := range f.clicks {
		if c == xpath {
			n++
		}
	}
	return n
}

func (f *Fake) Keys() []SentKeys {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]SentKeys(nil), f.keys...)
}

func (f *Fake) Scrolls() []int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]int(nil), f.scrolls...)
}

func (f *Fake) Maximized() bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.maximized
}

func (f *Fake) Closed() bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.closed
}

// Launcher hands out scripted sessions in order, one per Launch call.
type Launcher struct {
	mutex    sync.Mutex
	sessions []*Fake
	launched []*Fake
	// Err fails every launch when set.
	Err error
}

func NewLauncher(sessions ...*Fake) *Launcher {
	return &Launcher{sessions: sessions}
}

func (l *Launcher) Launch(ctx context.Context) (browser.Browser, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.Err != nil {
		return nil, l.Err
	}
	if len(l.sessions) == 0 {
		return nil, fmt.Errorf("no scripted browser session left")
	}
	session := l.sessions[0]
	l.sessions = l.sessions[1:]
	l.launched = append(l.launched, session)
	return session, nil
}

func (l *Launcher) Launched() []*Fake {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return append([]*Fake(nil), l.launched...)
}

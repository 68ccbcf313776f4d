package browser

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"flightscraper/internal/telemetry"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

const (
	report_chrome_launch   = "chrome.launch"
	report_chrome_navigate = "chrome.navigate"
	report_chrome_maximize = "chrome.maximize"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type ChromeConfig struct {
	// Headful shows the browser window, sessions are headless by default.
	Headful bool `json:"headful"`
	// RemoteUrl is a DevTools websocket url (ws://host:9222), when set no local
	// browser is started.
	RemoteUrl string `json:"remote_url"`
	UserAgent string `json:"user_agent"`
	// ActionTimeoutMs bounds every single browser action, defaults to 30s.
	ActionTimeoutMs int `json:"action_timeout_ms"`
}

// ChromeLauncher starts chrome sessions through the DevTools protocol.
type ChromeLauncher struct {
	cfg ChromeConfig
	tel telemetry.API
}

func NewChromeLauncher(cfg ChromeConfig, tel telemetry.API) ChromeLauncher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.ActionTimeoutMs <= 0 {
		cfg.ActionTimeoutMs = 30_000
	}
	return ChromeLauncher{
		cfg: cfg,
		tel: telemetry.NewScopedAPI("browser", tel),
	}
}

func (l ChromeLauncher) Launch(ctx context.Context) (Browser, error) {
	var allocCtx context.Context
	var cancelAlloc context.CancelFunc

	// the session outlives the call that launched it, only Close ends it
	parent := context.WithoutCancel(ctx)

	if l.cfg.RemoteUrl != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(parent, l.cfg.RemoteUrl)
	} else {
		opts := append(
			chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", !l.cfg.Headful),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.UserAgent(l.cfg.UserAgent),
		)
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(parent, opts...)
	}
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// running no actions starts the browser
	err := chromedp.Run(tabCtx)
	if err != nil {
		cancelTab()
		cancelAlloc()
		l.tel.ReportBroken(report_chrome_launch, err)
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return &chrome{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		timeout:     time.Duration(l.cfg.ActionTimeoutMs) * time.Millisecond,
		tel:         l.tel,
	}, nil
}

type chrome struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	timeout     time.Duration
	tel         telemetry.API
}

// run executes the actions on the tab, they are cancelled if either the caller's ctx
// is done or the action timeout is exceeded.
func (c *chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (c *chrome) nodes(ctx context.Context, xpath string) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	err := c.run(ctx, chromedp.Nodes(xpath, &nodes, chromedp.BySearch, chromedp.AtLeast(0)))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", xpath, err)
	}
	return nodes, nil
}

func (c *chrome) Navigate(ctx context.Context, url string) error {
	c.tel.ReportDebug(report_chrome_navigate, "url", url)
	err := c.run(ctx, chromedp.Navigate(url))
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (c *chrome) Maximize(ctx context.Context) error {
	err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		windowId, _, err := cdpbrowser.GetWindowForTarget().Do(ctx)
		if err != nil {
			return err
		}
		return cdpbrowser.SetWindowBounds(windowId, &cdpbrowser.Bounds{
			WindowState: cdpbrowser.WindowStateMaximized,
		}).Do(ctx)
	}))
	if err == nil {
		return nil
	}

	// headless shells have no window to maximize
	c.tel.ReportDebug(report_chrome_maximize, "fallback to viewport", err)
	return c.run(ctx, chromedp.EmulateViewport(1920, 1080))
}

func (c *chrome) Count(ctx context.Context, xpath string) (int, error) {
	nodes, err := c.nodes(ctx, xpath)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

func (c *chrome) Click(ctx context.Context, xpath string) error {
	nodes, err := c.nodes(ctx, xpath)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return fmt.Errorf("click %s: %w", xpath, ErrElementNotFound)
	}
	err = c.run(ctx, chromedp.MouseClickNode(nodes[0]))
	if err != nil {
		return fmt.Errorf("click %s: %w", xpath, err)
	}
	return nil
}

func (c *chrome) SendKeys(ctx context.Context, xpath, keys string) error {
	nodes, err := c.nodes(ctx, xpath)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return fmt.Errorf("send keys to %s: %w", xpath, ErrElementNotFound)
	}
	err = c.run(ctx, chromedp.SendKeys([]cdp.NodeID{nodes[0].NodeID}, keys, chromedp.ByNodeID))
	if err != nil {
		return fmt.Errorf("send keys to %s: %w", xpath, err)
	}
	return nil
}

const textsScript = `(() => {
	const result = document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
	const out = [];
	for (let i = 0; i < result.snapshotLength; i++) {
		const node = result.snapshotItem(i);
		out.push(node.innerText !== undefined ? node.innerText : node.textContent);
	}
	return out;
})()`

func (c *chrome) Texts(ctx context.Context, xpath string) ([]string, error) {
	var texts []string
	err := c.run(ctx, chromedp.Evaluate(fmt.Sprintf(textsScript, strconv.Quote(xpath)), &texts))
	if err != nil {
		return nil, fmt.Errorf("read texts of %s: %w", xpath, err)
	}
	return texts, nil
}

func (c *chrome) ScrollBy(ctx context.Context, dy int) error {
	return c.run(ctx, chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", dy), nil))
}

func (c *chrome) HTML(ctx context.Context) (string, error) {
	var document string
	err := c.run(ctx, chromedp.OuterHTML("html", &document, chromedp.ByQuery))
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return document, nil
}

func (c *chrome) Close() error {
	err := chromedp.Cancel(c.ctx)
	c.cancelTab()
	c.cancelAlloc()
	return err
}

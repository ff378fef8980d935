package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/spigell/autofiller/internal/dom"
)

const defaultTimeout = 30 * time.Second

// Options is the browser section of the config file.
type Options struct {
	Bin        string        `mapstructure:"bin"`
	Headless   bool          `mapstructure:"headless"`
	Timeout    time.Duration `mapstructure:"timeout"`
	ProfileDir string        `mapstructure:"profile-dir"`
}

// Page is a live page in a browser driven over the DevTools protocol.
type Page struct {
	browser *rod.Browser
	page    *rod.Page
	timeout time.Duration
	logger  *zap.Logger
}

// Open launches a browser and navigates to url.
func Open(ctx context.Context, url string, opts Options, logger *zap.Logger) (*Page, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bin := opts.Bin
	if bin == "" {
		bin, _ = launcher.LookPath()
	}

	l := launcher.New().Context(ctx).Headless(opts.Headless)
	if bin != "" {
		l = l.Bin(bin)
	}
	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	p, err := b.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("open %s: %w", url, err)
	}

	if err := p.Timeout(opts.Timeout).WaitLoad(); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("wait for %s: %w", url, err)
	}

	logger.Debug("page loaded", zap.String("url", url))

	return &Page{browser: b, page: p, timeout: opts.Timeout, logger: logger}, nil
}

// Document snapshots the rendered page into an offline document.
func (p *Page) Document() (*dom.Document, error) {
	page := p.page.Timeout(p.timeout)

	info, err := page.Info()
	if err != nil {
		return nil, fmt.Errorf("page info: %w", err)
	}

	src, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("page html: %w", err)
	}

	return dom.ParseString(src, info.URL)
}

const applyChangesJS = `(changes) => {
	let applied = 0;
	for (const c of changes) {
		const el = document.querySelectorAll(c.selector)[c.index];
		if (!el) continue;
		if (c.kind === 'checkbox' || c.kind === 'radio') {
			el.checked = c.checked;
		} else if (c.kind === 'select') {
			el.selectedIndex = c.selectedIndex;
		} else {
			el.value = c.value;
			el.dispatchEvent(new Event('input', { bubbles: true }));
		}
		el.dispatchEvent(new Event('change', { bubbles: true }));
		applied++;
	}
	return applied;
}`

// Apply replays changes recorded on the offline document into the live page and
// returns how many controls were found.
func (p *Page) Apply(changes []Change) (int, error) {
	if len(changes) == 0 {
		return 0, nil
	}

	res, err := p.page.Timeout(p.timeout).Eval(applyChangesJS, changes)
	if err != nil {
		return 0, fmt.Errorf("apply changes: %w", err)
	}

	applied := res.Value.Int()
	if applied < len(changes) {
		p.logger.Warn("some controls were not found in the live page",
			zap.Int("changes", len(changes)),
			zap.Int("applied", applied),
		)
	}

	return applied, nil
}

// Close shuts the browser down.
func (p *Page) Close() error {
	var errs []error
	if p.page != nil {
		errs = append(errs, p.page.Close())
	}
	if p.browser != nil {
		errs = append(errs, p.browser.Close())
	}

	return errors.Join(errs...)
}

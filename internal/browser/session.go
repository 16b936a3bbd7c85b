// Package browser owns the Playwright browser the tools drive and exposes the
// narrow page surface they need.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	EngineChromium = "chromium"
	EngineFirefox  = "firefox"
	EngineWebKit   = "webkit"
)

// Config describes how the browser is launched.
type Config struct {
	Engine   string        `mapstructure:"engine"`
	Headless bool          `mapstructure:"headless"`
	SlowMo   time.Duration `mapstructure:"slow-mo"`
	// Install downloads the driver and browsers before launching.
	Install bool `mapstructure:"install"`
}

// Session is a running browser shared by all tools.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	logger  *zap.Logger
}

// Launch starts Playwright and the configured browser.
func Launch(ctx context.Context, cfg Config, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	engine := strings.ToLower(strings.TrimSpace(cfg.Engine))
	if engine == "" {
		engine = EngineChromium
	}

	if cfg.Install {
		logger.Info("installing playwright driver", zap.String("engine", engine))
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{engine}}); err != nil {
			return nil, fmt.Errorf("installing playwright: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}

	var browserType playwright.BrowserType
	switch engine {
	case EngineChromium:
		browserType = pw.Chromium
	case EngineFirefox:
		browserType = pw.Firefox
	case EngineWebKit:
		browserType = pw.WebKit
	default:
		_ = pw.Stop()
		return nil, fmt.Errorf("unsupported browser engine: %s", cfg.Engine)
	}

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	}
	if cfg.SlowMo > 0 {
		opts.SlowMo = playwright.Float(float64(cfg.SlowMo.Milliseconds()))
	}

	b, err := browserType.Launch(opts)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launching %s: %w", engine, err)
	}

	logger.Info("browser launched",
		zap.String("engine", engine),
		zap.Bool("headless", cfg.Headless),
		zap.String("version", b.Version()),
	)

	return &Session{pw: pw, browser: b, logger: logger}, nil
}

// CurrentPage returns the most recently opened page of the first browser
// context. A context and a page are created when none exist yet.
func (s *Session) CurrentPage(ctx context.Context) (Page, error) {
	if s == nil || s.browser == nil {
		return nil, errors.New("browser session is not started")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	contexts := s.browser.Contexts()
	if len(contexts) == 0 {
		bctx, err := s.browser.NewContext()
		if err != nil {
			return nil, fmt.Errorf("creating browser context: %w", err)
		}

		page, err := bctx.NewPage()
		if err != nil {
			return nil, fmt.Errorf("opening page: %w", err)
		}

		s.logger.Debug("opened page in new browser context")
		return WrapPage(page), nil
	}

	bctx := contexts[0]
	pages := bctx.Pages()
	if len(pages) == 0 {
		page, err := bctx.NewPage()
		if err != nil {
			return nil, fmt.Errorf("opening page: %w", err)
		}

		s.logger.Debug("opened page in existing browser context")
		return WrapPage(page), nil
	}

	return WrapPage(pages[len(pages)-1]), nil
}

// Close shuts down the browser and the Playwright driver.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}

	var err error
	if s.browser != nil {
		err = multierr.Append(err, s.browser.Close())
	}
	if s.pw != nil {
		err = multierr.Append(err, s.pw.Stop())
	}

	return err
}

// Package domaudit renders the page in headless Chrome and inspects
// the live DOM for deceptive design: blocking overlays, countdown
// timers, preselected opt-ins, obstructed dismiss controls.
package domaudit

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/trustlens/trustlens/pkg/duration"
	"github.com/trustlens/trustlens/pkg/finding"
	"github.com/trustlens/trustlens/pkg/registry"
)

func init() {
	registry.Register(New(Config{}))
}

const (
	viewportWidth  = 1366
	viewportHeight = 768
)

// Config tunes the browser session.
type Config struct {
	ChromiumPath string
	NoSandbox    bool
	NavTimeout   time.Duration
}

// Module drives one headless Chrome tab per audit. Deep tier: the
// browser is a shared resource and must not run concurrently with
// itself.
type Module struct {
	cfg Config
}

// New creates the DOM inspection check.
func New(cfg Config) *Module {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = duration.BrowserNavigate
	}
	return &Module{cfg: cfg}
}

func (m *Module) Name() string        { return "domaudit" }
func (m *Module) Tier() registry.Tier { return registry.TierDeep }

func (m *Module) Analyze(ctx context.Context, target *registry.Target) ([]finding.Finding, error) {
	pageURL, err := url.Parse(target.URL)
	if err != nil {
		return nil, fmt.Errorf("parse target url: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("window-size", fmt.Sprintf("%d,%d", viewportWidth, viewportHeight)),
	)
	if m.cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	if m.cfg.ChromiumPath != "" {
		opts = append(opts, chromedp.ExecPath(m.cfg.ChromiumPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	navCtx, navCancel := context.WithTimeout(browserCtx, m.cfg.NavTimeout)
	defer navCancel()

	// Off-origin POSTs fired during load are an exfiltration signal;
	// capture them while the page renders.
	beacons := watchBeacons(navCtx, pageURL.Hostname())

	var report probeReport
	err = chromedp.Run(navCtx,
		chromedp.EmulateViewport(viewportWidth, viewportHeight),
		chromedp.Navigate(target.URL),
		chromedp.Sleep(2*time.Second), // let late overlays mount
		chromedp.Evaluate(domProbeJS, &report),
	)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", target.URL, err)
	}

	out := convertReport(m.Name(), report)
	for _, host := range beacons() {
		f := finding.New(m.Name(), "credential_harvesting", finding.High, 0.6,
			fmt.Sprintf("page POSTs to foreign origin %s during load", host))
		f.SubType = "exfil_beacon"
		f.AddEvidence("origin", host)
		out = append(out, f)
	}
	return out, nil
}

// watchBeacons records off-origin POST targets seen on the network and
// returns a function collecting the distinct hosts.
func watchBeacons(ctx context.Context, pageHost string) func() []string {
	seen := make(map[string]bool)
	var hosts []string
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		req, ok := ev.(*network.EventRequestWillBeSent)
		if !ok || req.Request.Method != "POST" {
			return
		}
		u, err := url.Parse(req.Request.URL)
		if err != nil {
			return
		}
		host := u.Hostname()
		if host == "" || strings.EqualFold(host, pageHost) || seen[host] {
			return
		}
		seen[host] = true
		hosts = append(hosts, host)
	})
	return func() []string { return hosts }
}

// probeReport is what domProbeJS returns.
type probeReport struct {
	ViewportW float64       `json:"vw"`
	ViewportH float64       `json:"vh"`
	Items     []observation `json:"items"`
}

// observation is one suspicious element found in the DOM.
type observation struct {
	Kind   string  `json:"kind"`
	Detail string  `json:"detail"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	W      float64 `json:"w"`
	H      float64 `json:"h"`
}

// convertReport turns raw DOM observations into findings with
// normalized viewport locations.
func convertReport(source string, report probeReport) []finding.Finding {
	vw, vh := report.ViewportW, report.ViewportH
	if vw <= 0 || vh <= 0 {
		vw, vh = viewportWidth, viewportHeight
	}

	var out []finding.Finding
	for _, obs := range report.Items {
		var f finding.Finding
		switch obs.Kind {
		case "overlay":
			f = finding.New(source, "deceptive_overlay", finding.Medium, 0.8,
				"full-page overlay blocks interaction: "+obs.Detail)
		case "obstructed_dismiss":
			f = finding.New(source, "deceptive_overlay", finding.Medium, 0.75,
				"dismiss control is hidden or nearly unclickable: "+obs.Detail)
			f.SubType = "obstructed_dismiss"
		case "countdown":
			f = finding.New(source, "countdown_timer", finding.Medium, 0.75,
				"countdown timer pressures the visitor: "+obs.Detail)
		case "preselected":
			f = finding.New(source, "preselected_optin", finding.Low, 0.85,
				"opt-in checkbox is preselected: "+obs.Detail)
		case "scarcity":
			f = finding.New(source, "pressure_tactic", finding.Low, 0.7,
				"scarcity claim on page: "+obs.Detail)
			f.SubType = "scarcity_claim"
		default:
			continue
		}
		f.Location = finding.Normalize(obs.X, obs.Y, obs.W, obs.H, vw, vh)
		f.AddEvidence("element", obs.Detail)
		out = append(out, f)
	}
	return out
}

// domProbeJS walks the rendered DOM and reports suspicious elements
// with their bounding boxes. It must stay side-effect free.
const domProbeJS = `(() => {
  const items = [];
  const vw = window.innerWidth, vh = window.innerHeight;
  const push = (kind, detail, r) =>
    items.push({kind, detail: detail.slice(0, 120), x: r.x, y: r.y, w: r.width, h: r.height});

  const countdownRe = /\b\d{1,2}:\d{2}(:\d{2})?\b/;
  const urgencyRe = /(hurry|expires|ends (in|soon)|left in stock|only \d+|limited time)/i;
  const scarcityRe = /(only \d+ (left|remaining)|\d+ (people|others) (viewing|looking)|selling fast)/i;

  for (const el of document.querySelectorAll('body *')) {
    const style = getComputedStyle(el);
    if (style.display === 'none') continue;
    const r = el.getBoundingClientRect();

    if ((style.position === 'fixed' || style.position === 'sticky') &&
        (parseInt(style.zIndex) || 0) >= 1000 &&
        r.width * r.height > vw * vh * 0.5) {
      push('overlay', 'z-index ' + style.zIndex + ' ' + el.tagName.toLowerCase(), r);
      continue;
    }

    const text = (el.childElementCount === 0 ? el.textContent : '').trim();
    if (text) {
      if (countdownRe.test(text) && urgencyRe.test(text)) push('countdown', text, r);
      else if (scarcityRe.test(text)) push('scarcity', text, r);
    }

    if (el.matches('input[type=checkbox]') && el.checked &&
        !/required|terms|agree/i.test(el.name || '')) {
      push('preselected', el.name || el.id || 'unnamed checkbox', r);
    }

    if (/close|dismiss|reject|decline/i.test(el.getAttribute('aria-label') || el.textContent || '') &&
        el.matches('button, a, [role=button]') &&
        (r.width < 8 || r.height < 8 || parseFloat(style.opacity) < 0.2)) {
      push('obstructed_dismiss', (el.getAttribute('aria-label') || el.textContent).trim(), r);
    }
  }
  return {vw, vh, items};
})()`

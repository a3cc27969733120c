// Package mixedcontent finds plain-HTTP subresources on HTTPS pages.
package mixedcontent

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/trustlens/trustlens/pkg/finding"
	"github.com/trustlens/trustlens/pkg/registry"
)

func init() {
	registry.Register(New())
}

// active maps tags whose HTTP sources can execute or frame content.
// Everything else (img, audio, video, source) is passive.
var active = map[string]string{
	"script": "script",
	"iframe": "iframe",
	"embed":  "script",
	"object": "script",
	"link":   "script", // stylesheets can inject content
}

// Module scans an HTTPS page for subresources loaded over plain HTTP.
type Module struct{}

// New creates the mixed-content check.
func New() *Module { return &Module{} }

func (m *Module) Name() string        { return "mixedcontent" }
func (m *Module) Tier() registry.Tier { return registry.TierFast }

func (m *Module) Analyze(ctx context.Context, target *registry.Target) ([]finding.Finding, error) {
	pageURL, err := url.Parse(target.URL)
	if err != nil {
		return nil, fmt.Errorf("parse target url: %w", err)
	}
	if pageURL.Scheme != "https" || !target.HasContent() {
		// Mixed content is only meaningful on a secure page.
		return nil, nil
	}

	refs, err := httpSubresources(target.Content)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	var out []finding.Finding
	for _, ref := range refs {
		subType, sev := "passive", finding.Low
		if st, ok := active[ref.tag]; ok {
			subType, sev = st, finding.High
		}
		f := finding.New(m.Name(), "mixed_content", sev, 0.95,
			fmt.Sprintf("https page loads <%s> from %s", ref.tag, ref.src))
		f.SubType = subType
		f.AddEvidence("tag", ref.tag)
		f.AddEvidence("url", ref.src)
		out = append(out, f)
	}
	return out, nil
}

type subresource struct {
	tag string
	src string
}

// httpSubresources collects src/href references that use the http
// scheme explicitly. Protocol-relative and https references are fine.
func httpSubresources(content string) ([]subresource, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	var refs []subresource
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if src := insecureRef(n); src != "" {
				refs = append(refs, subresource{tag: n.Data, src: src})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return refs, nil
}

func insecureRef(n *html.Node) string {
	var attrName string
	switch n.Data {
	case "script", "iframe", "img", "audio", "video", "embed", "source":
		attrName = "src"
	case "link":
		attrName = "href"
	case "object":
		attrName = "data"
	default:
		return ""
	}
	for _, a := range n.Attr {
		if !strings.EqualFold(a.Key, attrName) {
			continue
		}
		v := strings.TrimSpace(a.Val)
		if strings.HasPrefix(strings.ToLower(v), "http://") {
			return v
		}
	}
	return ""
}

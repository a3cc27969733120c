// Package forms audits HTML forms for credential-capture risks.
package forms

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

// Module parses the fetched page and flags forms that submit passwords
// insecurely: over plain HTTP, or to a different origin than the page.
type Module struct{}

// New creates the form check.
func New() *Module { return &Module{} }

func (m *Module) Name() string        { return "forms" }
func (m *Module) Tier() registry.Tier { return registry.TierFast }

// formInfo is one parsed <form> element.
type formInfo struct {
	action      string
	method      string
	hasPassword bool
}

func (m *Module) Analyze(ctx context.Context, target *registry.Target) ([]finding.Finding, error) {
	if !target.HasContent() {
		return nil, nil
	}
	pageURL, err := url.Parse(target.URL)
	if err != nil {
		return nil, fmt.Errorf("parse target url: %w", err)
	}

	parsed, err := parseForms(target.Content)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	var out []finding.Finding
	for _, form := range parsed {
		if !form.hasPassword {
			continue
		}
		action := resolveAction(pageURL, form.action)
		if action == nil {
			continue
		}

		if action.Scheme == "http" {
			f := finding.New(m.Name(), "insecure_form", finding.High, 0.95,
				fmt.Sprintf("password form submits over plain HTTP to %s", action.Redacted()))
			f.SubType = "password_over_http"
			f.AddEvidence("action", action.String())
			out = append(out, f)
		}

		if !sameOrigin(pageURL, action) {
			f := finding.New(m.Name(), "credential_harvesting", finding.Critical, 0.7,
				fmt.Sprintf("password form posts to foreign origin %s", action.Host))
			f.SubType = "lookalike_form"
			f.AddEvidence("page_origin", pageURL.Host)
			f.AddEvidence("action_origin", action.Host)
			out = append(out, f)
		} else if form.method != "" && !strings.EqualFold(form.method, "post") {
			f := finding.New(m.Name(), "insecure_form", finding.Medium, 0.9,
				"password form uses GET, credentials end up in URLs and logs")
			f.SubType = "get_method"
			f.AddEvidence("method", form.method)
			out = append(out, f)
		}
	}
	return out, nil
}

// parseForms walks the document and collects every form together with
// whether it contains a password input.
func parseForms(content string) ([]*formInfo, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	var forms []*formInfo
	var walk func(n *html.Node, current *formInfo)
	walk = func(n *html.Node, current *formInfo) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "form":
				current = &formInfo{
					action: attr(n, "action"),
					method: attr(n, "method"),
				}
				forms = append(forms, current)
			case "input":
				if current != nil && strings.EqualFold(attr(n, "type"), "password") {
					current.hasPassword = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, current)
		}
	}
	walk(doc, nil)
	return forms, nil
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

// resolveAction resolves a form action against the page URL. An empty
// action submits to the page itself.
func resolveAction(page *url.URL, action string) *url.URL {
	action = strings.TrimSpace(action)
	if action == "" {
		return page
	}
	ref, err := url.Parse(action)
	if err != nil {
		return nil
	}
	return page.ResolveReference(ref)
}

func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Hostname(), b.Hostname())
}

package registry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/trustlens/trustlens/pkg/defaults"
	"github.com/trustlens/trustlens/pkg/finding"
)

// safeModules are the only tengo stdlib modules available to check
// scripts. No file I/O, no network, no OS access.
var safeModules = stdlib.GetModuleMap("text", "fmt", "math", "times")

// ScriptModule wraps a tengo script as a Module. Scripts are pure
// functions over the target snapshot: they cannot reach the network,
// so they always classify as fast-tier unless they declare otherwise.
type ScriptModule struct {
	name     string
	tier     Tier
	compiled *tengo.Compiled
}

// LoadScript compiles a .tengo file and extracts its metadata. The
// script must define: name (string) and analyze (function taking a
// target map and returning an array of finding maps). Optional: tier
// (string, default "fast").
//
// Loading evaluates the script's top level, which is metadata binding,
// not module execution: it is how tengo materializes the name, tier
// and analyze declarations so they can be inspected. The analyze
// function itself is never invoked until the executor schedules the
// module. Scripts must keep their top level declarative for the same
// reason.
func LoadScript(path string) (*ScriptModule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read check script %s: %w", path, err)
	}

	meta := tengo.NewScript(data)
	meta.SetImports(safeModules)
	meta.SetMaxAllocs(defaults.MaxScriptAllocs)

	bound, err := meta.Run()
	if err != nil {
		return nil, fmt.Errorf("compile check script %s: %w", path, err)
	}

	nameVar := bound.Get("name")
	if nameVar.IsUndefined() {
		return nil, fmt.Errorf("check script %s: missing 'name' variable", path)
	}
	if bound.Get("analyze").IsUndefined() {
		return nil, fmt.Errorf("check script %s: missing 'analyze' function", path)
	}

	tier := TierFast
	if tv := bound.Get("tier"); !tv.IsUndefined() {
		tier = Tier(tv.String()).Normalize()
	}

	// Wrapper compiled once; Analyze clones it per call so concurrent
	// executions never share VM state.
	wrapper := tengo.NewScript([]byte(string(data) + "\n__findings__ := analyze(__target__)\n"))
	wrapper.SetImports(safeModules)
	wrapper.SetMaxAllocs(defaults.MaxScriptAllocs)
	if err := wrapper.Add("__target__", map[string]interface{}{}); err != nil {
		return nil, fmt.Errorf("check script %s: %w", path, err)
	}
	compiled, err := wrapper.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile check script %s: %w", path, err)
	}

	return &ScriptModule{
		name:     "script." + nameVar.String(),
		tier:     tier,
		compiled: compiled,
	}, nil
}

// Name implements Module.
func (s *ScriptModule) Name() string { return s.name }

// Tier implements Module.
func (s *ScriptModule) Tier() Tier { return s.tier }

// Analyze implements Module by running the script's analyze function
// against a snapshot of the target.
func (s *ScriptModule) Analyze(ctx context.Context, target *Target) ([]finding.Finding, error) {
	headers := make(map[string]interface{}, len(target.Headers))
	for k, v := range target.Headers {
		headers[k] = v
	}

	vm := s.compiled.Clone()
	if err := vm.Set("__target__", map[string]interface{}{
		"url":     target.URL,
		"content": target.Content,
		"headers": headers,
	}); err != nil {
		return nil, err
	}
	if err := vm.RunContext(ctx); err != nil {
		return nil, fmt.Errorf("script %s: %w", s.name, err)
	}

	raw, _ := vm.Get("__findings__").Value().([]interface{})
	findings := make([]finding.Finding, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		f := finding.New(
			s.name,
			str(m, "category"),
			finding.Severity(str(m, "severity")),
			num(m, "confidence"),
			str(m, "description"),
		)
		f.SubType = str(m, "sub_type")
		if f.Severity == "" {
			f.Severity = finding.Info
		}
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("script %s: %w", s.name, err)
		}
		findings = append(findings, f)
	}
	return findings, nil
}

func str(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func num(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

// DiscoverScripts loads every *.tengo file in dir as a module and
// registers it. A script that fails to compile is logged and skipped —
// discovery never fails wholesale because of one broken script. A
// missing directory is not an error. Discovery only inspects scripts;
// no analyze function is invoked. Re-running against the same registry
// logs duplicates and keeps the first registration, so discovery is
// idempotent.
func (r *Registry) DiscoverScripts(dir string, logger *slog.Logger) int {
	if dir == "" {
		return 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.tengo"))
	if err != nil {
		logger.Warn("script discovery failed", slog.String("dir", dir), slog.String("error", err.Error()))
		return 0
	}
	sort.Strings(paths)

	loaded := 0
	for _, path := range paths {
		mod, err := LoadScript(path)
		if err != nil {
			logger.Warn("check script excluded", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		if err := r.Register(mod); err != nil {
			logger.Warn("check script not registered", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		loaded++
	}
	return loaded
}

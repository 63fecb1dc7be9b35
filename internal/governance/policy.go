package governance

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Effect defines the result of a policy evaluation.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Tool names the research pipeline evaluates.
const (
	ToolFetch     = "fetch"
	ToolPDFReader = "pdf_reader"
)

// Request contains the context of a tool call to be evaluated.
type Request struct {
	Tool      string
	Arguments string
	RunID     string
}

// Result contains the outcome of a policy evaluation.
type Result struct {
	Effect Effect
	Reason string
}

func (r Result) Allowed() bool { return r.Effect == EffectAllow }

// PolicyEngine evaluates tool calls against a set of rules.
type PolicyEngine interface {
	Evaluate(ctx context.Context, req Request) (Result, error)
}

// DefaultPolicyEngine is a basic implementation of PolicyEngine.
type DefaultPolicyEngine struct {
	DeniedTools map[string]bool
	DeniedRegex []*regexp.Regexp
	// DenyLocal rejects file URLs and URLs whose host is the local machine.
	DenyLocal bool
}

func NewDefaultPolicyEngine() *DefaultPolicyEngine {
	return &DefaultPolicyEngine{
		DeniedTools: make(map[string]bool),
		DeniedRegex: make([]*regexp.Regexp, 0),
	}
}

// NewFetchPolicy denies local and file URLs plus any configured patterns and tools.
func NewFetchPolicy(patterns, deniedTools []string) (*DefaultPolicyEngine, error) {
	e := NewDefaultPolicyEngine()
	e.DenyLocal = true
	for _, p := range patterns {
		if err := e.DenyArguments(p); err != nil {
			return nil, fmt.Errorf("invalid deny pattern %q: %w", p, err)
		}
	}
	for _, name := range deniedTools {
		e.DenyTool(name)
	}
	return e, nil
}

func (e *DefaultPolicyEngine) DenyTool(name string) {
	e.DeniedTools[name] = true
}

func (e *DefaultPolicyEngine) DenyArguments(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	e.DeniedRegex = append(e.DeniedRegex, re)
	return nil
}

func (e *DefaultPolicyEngine) Evaluate(ctx context.Context, req Request) (Result, error) {
	if e.DeniedTools[req.Tool] {
		return Result{
			Effect: EffectDeny,
			Reason: fmt.Sprintf("Tool '%s' is restricted by system policy", req.Tool),
		}, nil
	}

	args := strings.TrimSpace(req.Arguments)
	if e.DenyLocal {
		if reason, ok := localURL(args); ok {
			return Result{Effect: EffectDeny, Reason: reason}, nil
		}
	}

	for _, re := range e.DeniedRegex {
		if re.MatchString(args) {
			return Result{
				Effect: EffectDeny,
				Reason: fmt.Sprintf("Arguments match restricted pattern: %s", re.String()),
			}, nil
		}
	}

	return Result{
		Effect: EffectAllow,
		Reason: "Approved by default policy",
	}, nil
}

// localURL reports whether raw is a file URL or points at this machine.
func localURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return "", false
	}
	if strings.EqualFold(u.Scheme, "file") {
		return "File URLs are restricted by system policy", true
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return "", false
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Sprintf("Host '%s' is restricted by system policy", host), true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		ip = legacyIPv4(host)
	}
	if ip != nil && (ip.IsLoopback() || ip.IsUnspecified()) {
		return fmt.Sprintf("Host '%s' is restricted by system policy", host), true
	}
	return "", false
}

// legacyIPv4 parses the inet_aton forms resolvers still accept, such as
// 127.1, 0x7f.1 and 2130706433.
func legacyIPv4(host string) net.IP {
	parts := strings.Split(host, ".")
	if len(parts) > 4 {
		return nil
	}
	vals := make([]uint64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 0, 32)
		if err != nil {
			return nil
		}
		vals[i] = v
	}
	last := len(vals) - 1
	if vals[last] >= 1<<(8*uint(4-last)) {
		return nil
	}
	addr := vals[last]
	for i := 0; i < last; i++ {
		if vals[i] > 0xff {
			return nil
		}
		addr |= vals[i] << (8 * uint(3-i))
	}
	return net.IPv4(byte(addr>>24), byte(addr>>16), byte(addr>>8), byte(addr))
}

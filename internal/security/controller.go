package security

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
	"github.com/Lin-Jiong-HDU/cellguard/internal/security/pyscan"
)

// ParseOutcome records what happened when the code was handed to the
// Python parser.
type ParseOutcome string

const (
	// ParseNotAttempted: empty input, or the pre-parse layer blocked.
	ParseNotAttempted ParseOutcome = "not_attempted"
	// ParseOK: the code parsed and every AST rule ran.
	ParseOK ParseOutcome = "parsed"
	// ParseMagicBody: the code is an approved cell magic whose body is
	// not Python.
	ParseMagicBody ParseOutcome = "magic_body"
	// ParseUnparsable: the code is not valid Python.
	ParseUnparsable ParseOutcome = "unparsable"
)

// preParseTag prefixes block reasons that come from the pre-parse layer.
const preParseTag = "[pre-parse] "

// ScanResult is the combined verdict for one unit of code.
type ScanResult struct {
	IsSafe      bool              `json:"is_safe"`
	Blocked     bool              `json:"blocked"`
	BlockReason string            `json:"block_reason,omitempty"`
	Issues      []finding.Finding `json:"issues"`
	Parse       ParseOutcome      `json:"parse"`
}

// Scanner runs the pre-parse and AST layers and decides whether code may
// run. Its configuration is fixed at construction; Scan keeps all state
// local, so one Scanner may be shared by any number of goroutines.
type Scanner struct {
	policy Policy
	shell  *ShellEscapeScanner
	logger *zap.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger used for debug tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScanner creates a scanner. A nil policy means DefaultPolicy. The
// policy is copied; later changes to it do not affect the scanner.
func NewScanner(policy *Policy, opts ...Option) *Scanner {
	if policy == nil {
		policy = DefaultPolicy()
	}
	s := &Scanner{
		policy: *policy,
		logger: zap.NewNop(),
	}
	s.shell = NewShellEscapeScanner(s.policy)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns a copy of the scanner's policy.
func (s *Scanner) Policy() Policy {
	return s.policy
}

// Scan decides whether code may run. It never fails.
func (s *Scanner) Scan(code string) ScanResult {
	if strings.TrimSpace(code) == "" {
		return ScanResult{IsSafe: true, Issues: []finding.Finding{}, Parse: ParseNotAttempted}
	}

	pre := s.shell.Scan(code)
	if pre.Blocked {
		s.logger.Debug("blocked before parsing",
			zap.Int("findings", len(pre.Issues)),
			zap.String("reason", pre.BlockReason))
		return ScanResult{
			IsSafe:      false,
			Blocked:     true,
			BlockReason: preParseTag + pre.BlockReason,
			Issues:      pre.Issues,
			Parse:       ParseNotAttempted,
		}
	}

	outcome, astFindings := s.analyze(code, pre.rewritten)

	issues := make([]finding.Finding, 0, len(pre.Issues)+len(astFindings))
	issues = append(issues, pre.Issues...)
	issues = append(issues, astFindings...)

	result := ScanResult{
		IsSafe: len(issues) == 0,
		Issues: issues,
		Parse:  outcome,
	}
	if f, ok := s.policy.Decide(issues); ok {
		result.Blocked = true
		result.BlockReason = blockReason(f)
	}

	s.logger.Debug("scan complete",
		zap.String("parse", string(outcome)),
		zap.Int("findings", len(issues)),
		zap.Bool("blocked", result.Blocked))
	return result
}

// analyze runs the AST rules over the code as written when it is valid
// Python, and otherwise over the rewritten source.
func (s *Scanner) analyze(original, rewritten string) (ParseOutcome, []finding.Finding) {
	if rewritten != original {
		orig, err := pyscan.Parse([]byte(original))
		if err == nil {
			defer orig.Close()
			return ParseOK, pyscan.Analyze(orig)
		}
		orig.Close()
	}

	m, err := pyscan.Parse([]byte(rewritten))
	defer m.Close()
	if err == nil {
		return ParseOK, pyscan.Analyze(m)
	}

	outcome := ParseUnparsable
	if startsWithCellMagic(original) {
		outcome = ParseMagicBody
	}
	s.logger.Debug("code does not parse", zap.String("parse", string(outcome)), zap.Error(err))

	if outcome == ParseUnparsable && s.policy.AnalyzeUnparsable && m != nil && errors.Is(err, pyscan.ErrSyntax) {
		return outcome, pyscan.Analyze(m)
	}
	return outcome, nil
}

// ScanSource is a convenience wrapper for a one-off scan with the default
// policy.
func ScanSource(code string) ScanResult {
	return NewScanner(nil).Scan(code)
}

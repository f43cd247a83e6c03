package renderpool

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Violation severity levels.
const (
	SeverityHigh   = "HIGH"
	SeverityMedium = "MEDIUM"
	SeverityLow    = "LOW"
)

// DefaultComplianceThreshold is the minimum score a request must keep to be
// rendered.
const DefaultComplianceThreshold = 0.997

// Violation is one compliance finding.
type Violation struct {
	Principle string `json:"principle"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
}

// GateResult is the outcome of a compliance check.
type GateResult struct {
	Compliant  bool        `json:"compliant"`
	Score      float64     `json:"score"`
	Violations []Violation `json:"violations"`
}

// Summary renders the violations as a single line for error messages.
func (g GateResult) Summary() string {
	if len(g.Violations) == 0 {
		return fmt.Sprintf("score %.4f below threshold", g.Score)
	}
	parts := make([]string, len(g.Violations))
	for i, v := range g.Violations {
		parts[i] = fmt.Sprintf("%s/%s: %s", v.Principle, v.Severity, v.Message)
	}
	return strings.Join(parts, "; ")
}

// Gate decides whether a render request may consume a browser lease.
// It runs before Acquire, so a rejected request costs no pool resources.
// The surrounding application can supply its own implementation.
type Gate interface {
	Check(req RenderRequest) GateResult
}

// Severity weights subtracted from a perfect score.
const (
	highWeight   = 0.01
	mediumWeight = 0.002
	lowWeight    = 0.0005
)

// Markup patterns that suggest script injection rather than layout content.
// Script tags match whether inline or sourced; rendering input is static
// markup and has no business carrying executable code.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)<\s*script\b`),
	regexp.MustCompile(`(?i)\bon(error|load|click|mouseover)\s*=`),
}

// ContentGate is the built-in heuristic gate: it scores requests by scanning
// the markup for injection patterns and rejects those that fall below the
// threshold. It keeps a running average of scores for health reporting.
type ContentGate struct {
	Threshold float64

	mu       sync.Mutex
	checks   int
	scoreSum float64
}

// Compile-time interface checks.
var (
	_ Gate        = (*ContentGate)(nil)
	_ ScoreSource = (*ContentGate)(nil)
)

// NewContentGate creates a gate with the default threshold.
func NewContentGate() *ContentGate {
	return &ContentGate{Threshold: DefaultComplianceThreshold}
}

// AmbientScore returns the average score across every check so far, or a
// perfect score when nothing has been checked yet.
func (g *ContentGate) AmbientScore() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.checks == 0 {
		return 1.0
	}
	return g.scoreSum / float64(g.checks)
}

// Check scores the request against the injection patterns.
func (g *ContentGate) Check(req RenderRequest) GateResult {
	var violations []Violation

	if strings.TrimSpace(req.Markup) == "" {
		violations = append(violations, Violation{
			Principle: "transparency",
			Severity:  SeverityMedium,
			Message:   "empty markup",
		})
	}

	for _, pattern := range injectionPatterns {
		if pattern.MatchString(req.Markup) {
			violations = append(violations, Violation{
				Principle: "safety",
				Severity:  SeverityHigh,
				Message:   fmt.Sprintf("markup matches injection pattern %q", pattern.String()),
			})
		}
	}

	score := 1.0
	for _, v := range violations {
		switch v.Severity {
		case SeverityHigh:
			score -= highWeight
		case SeverityMedium:
			score -= mediumWeight
		default:
			score -= lowWeight
		}
	}
	if score < 0 {
		score = 0
	}

	threshold := g.Threshold
	if threshold <= 0 {
		threshold = DefaultComplianceThreshold
	}

	g.mu.Lock()
	g.checks++
	g.scoreSum += score
	g.mu.Unlock()

	return GateResult{
		Compliant:  score >= threshold,
		Score:      score,
		Violations: violations,
	}
}

package validation

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"aegis/internal/audit"
	"aegis/internal/patterns"
	rlmodels "aegis/internal/ratelimit/models"
	"aegis/internal/validation/metrics"
)

// Auditor records validation violations; satisfied by *audit.Service.
type Auditor interface {
	Log(ctx context.Context, severity audit.Severity, category audit.Category, action, resource string, success bool, message string, metadata map[string]string)
}

// Limiter applies per-key fixed-window limits; satisfied by the rate limit
// service.
type Limiter interface {
	CheckN(ctx context.Context, key string, limit int, window time.Duration) (*rlmodels.Result, error)
}

const (
	patternPenalty    = 40
	structuralPenalty = 20
	rateLimitScore    = 30 // maps onto ThreatHigh
)

// fileOperations are operation names that imply filesystem access and so get
// the path containment check even without RequireScopeContainment.
var fileOperations = map[string]bool{
	"read": true, "write": true, "delete": true,
	"open": true, "save": true, "export": true, "import": true,
}

var executableExtensions = map[string]bool{
	".exe": true, ".bat": true, ".cmd": true, ".com": true, ".scr": true,
	".msi": true, ".dll": true, ".sh": true, ".bash": true, ".ps1": true,
	".vbs": true, ".jar": true,
}

// Service runs the validation pipeline. It is safe for concurrent use.
type Service struct {
	library *patterns.Library
	limiter Limiter
	auditor Auditor
	cache   *resultCache

	scopeRoot    string
	defaultLimit int
	defaultWin   time.Duration

	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

func WithLimiter(l Limiter) Option {
	return func(s *Service) { s.limiter = l }
}

// WithScopeRoot sets the directory inputs must stay inside when an operation
// implies file access.
func WithScopeRoot(root string) Option {
	return func(s *Service) { s.scopeRoot = root }
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) { s.cache = newResultCache(ttl) }
}

// WithDefaultRateLimit sets the limit applied when options carry a rate limit
// key but no explicit limit.
func WithDefaultRateLimit(limit int, window time.Duration) Option {
	return func(s *Service) {
		s.defaultLimit = limit
		s.defaultWin = window
	}
}

// New constructs the validator around a compiled pattern library.
func New(library *patterns.Library, opts ...Option) (*Service, error) {
	if library == nil {
		return nil, fmt.Errorf("pattern library is required")
	}
	svc := &Service{
		library:      library,
		cache:        newResultCache(30 * time.Second),
		scopeRoot:    ".",
		defaultLimit: 100,
		defaultWin:   time.Minute,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.New(slog.DiscardHandler)
	}
	return svc, nil
}

// Validate screens one input. It never panics and never returns an error: any
// internal failure produces a conservative invalid result.
func (s *Service) Validate(ctx context.Context, operation, input string, opts Options) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.IncInternalErrors()
			s.logger.ErrorContext(ctx, "validation panicked, failing closed",
				"operation", operation, "panic", fmt.Sprint(r))
			result = Result{
				IsValid:       false,
				Errors:        []string{"validation failed internally"},
				SecurityScore: 0,
				ThreatLevel:   ThreatCritical,
			}
		}
	}()

	s.metrics.IncValidations()

	// Rate limiting runs before the cache so every call counts against the
	// caller's window.
	if opts.RateLimitKey != "" && s.limiter != nil {
		limit, window := opts.RateLimit, opts.RateLimitWindow
		if limit <= 0 {
			limit = s.defaultLimit
		}
		if window <= 0 {
			window = s.defaultWin
		}
		rl, err := s.limiter.CheckN(ctx, opts.RateLimitKey, limit, window)
		if err != nil {
			s.metrics.IncInternalErrors()
			s.logger.ErrorContext(ctx, "rate limit check failed, failing closed", "error", err)
			return Result{
				IsValid:       false,
				Errors:        []string{"validation failed internally"},
				SecurityScore: 0,
				ThreatLevel:   ThreatCritical,
			}
		}
		if !rl.Allowed {
			s.metrics.IncRejections("rate_limit")
			s.auditViolation(ctx, operation, audit.CategoryRateLimit, "rate_limit_exceeded",
				fmt.Sprintf("rate limit of %d per window exceeded", rl.Limit),
				map[string]string{"key": opts.RateLimitKey, "count": strconv.Itoa(rl.Count)})
			return Result{
				IsValid:        false,
				SanitizedValue: input,
				Errors:         []string{"rate limit exceeded"},
				SecurityScore:  rateLimitScore,
				ThreatLevel:    ThreatHigh,
			}
		}
	}

	key := cacheKey(operation, input, opts)
	if cached, ok := s.cache.get(key); ok {
		s.metrics.IncCacheHits()
		return cached
	}

	result = s.run(ctx, operation, input, opts)
	s.cache.put(key, result)
	return result
}

func (s *Service) run(ctx context.Context, operation, input string, opts Options) Result {
	score := 100
	var errs, warnings []string
	sanitized := input
	threatMatched := false

	// Structural checks.
	if opts.MaxLength > 0 && len(input) > opts.MaxLength {
		errs = append(errs, fmt.Sprintf("input exceeds maximum length of %d", opts.MaxLength))
		score -= structuralPenalty
	}
	if opts.AllowedCharset != "" {
		re, err := regexp.Compile("^[" + opts.AllowedCharset + "]*$")
		if err != nil {
			warnings = append(warnings, "allowed charset option is not a valid character class")
		} else if !re.MatchString(input) {
			errs = append(errs, "input contains characters outside the allowed set")
			score -= structuralPenalty
		}
	}
	if opts.RequireAlphanumeric && !alphanumeric.MatchString(input) {
		errs = append(errs, "input must be alphanumeric")
		score -= structuralPenalty
	}

	// Threat pattern library.
	matchedCategories := make(map[patterns.Category]bool)
	for _, sig := range s.library.Match(input) {
		matchedCategories[sig.Category] = true
	}
	for category := range matchedCategories {
		errs = append(errs, fmt.Sprintf("input contains a suspected %s pattern", category))
		score -= patternPenalty
		threatMatched = true
		s.metrics.IncRejections(string(category))
	}

	// Path containment when the operation implies file access.
	if opts.RequireScopeContainment || fileOperations[operation] || strings.HasPrefix(operation, "file.") {
		if !s.containedInScope(input) {
			errs = append(errs, "path escapes the permitted scope")
			score -= patternPenalty
			threatMatched = true
			s.metrics.IncRejections("scope_escape")
		}
	}

	// Executable extension denial.
	if opts.PreventExecutableExtensions {
		ext := strings.ToLower(filepath.Ext(strings.TrimSpace(input)))
		if executableExtensions[ext] {
			errs = append(errs, fmt.Sprintf("executable extension %q is not permitted", ext))
			score -= patternPenalty
			threatMatched = true
			s.metrics.IncRejections("executable_extension")
		}
	}

	// Optional allow-list HTML sanitization; text content is preserved.
	if opts.HTMLSanitize {
		clean := sanitizeHTML(sanitized)
		if clean != sanitized {
			warnings = append(warnings, "html content was sanitized")
			sanitized = clean
		}
	}

	if score < 0 {
		score = 0
	}
	level := levelFromScore(score)
	if threatMatched && level < ThreatHigh {
		level = ThreatHigh
	}

	result := Result{
		IsValid:        len(errs) == 0,
		SanitizedValue: sanitized,
		Errors:         errs,
		Warnings:       warnings,
		SecurityScore:  score,
		ThreatLevel:    level,
	}

	if !result.IsValid {
		severity := audit.SeverityHigh
		if level == ThreatCritical {
			severity = audit.SeverityCritical
		} else if !threatMatched {
			severity = audit.SeverityWarning
		}
		s.auditViolationSeverity(ctx, severity, operation, audit.CategoryValidation, "input_rejected",
			strings.Join(errs, "; "),
			map[string]string{
				"operation":    operation,
				"threat_level": level.String(),
				"score":        strconv.Itoa(score),
			})
	}
	return result
}

var alphanumeric = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// containedInScope reports whether the cleaned path stays inside scopeRoot.
func (s *Service) containedInScope(path string) bool {
	if strings.ContainsRune(path, 0) || strings.Contains(path, "%00") {
		return false
	}
	if filepath.IsAbs(path) {
		return false
	}
	joined := filepath.Join(s.scopeRoot, path)
	rel, err := filepath.Rel(s.scopeRoot, joined)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// RunCacheSweeper evicts expired cache entries on an interval.
func (s *Service) RunCacheSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.cache.sweep()
		}
	}
}

func (s *Service) auditViolation(ctx context.Context, operation string, category audit.Category, action, message string, metadata map[string]string) {
	s.auditViolationSeverity(ctx, audit.SeverityHigh, operation, category, action, message, metadata)
}

func (s *Service) auditViolationSeverity(ctx context.Context, severity audit.Severity, operation string, category audit.Category, action, message string, metadata map[string]string) {
	if s.auditor == nil {
		return
	}
	s.auditor.Log(ctx, severity, category, action, operation, false, message, metadata)
}

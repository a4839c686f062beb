package rules

import (
	"math"
	"regexp"
	"strings"

	"github.com/standardbeagle/pyaudit/internal/config"
	"github.com/standardbeagle/pyaudit/internal/suppress"
	"github.com/standardbeagle/pyaudit/internal/types"
)

// secretPattern is a compact table entry for one built-in secret-matching
// regex, converted into an active matcher by SecretScanner.compile. The
// table shape (id/severity/pattern/keywords/remediation) follows the
// built-in security-rule table idiom used elsewhere in the corpus for
// regex-driven finding catalogs.
type secretPattern struct {
	id          string
	name        string
	severity    types.Severity
	pattern     string
	baseScore   int
	remediation string
}

// builtinSecretPatterns is the default ~20-entry catalog:
// cloud-provider keys, VCS/CI tokens, chat-platform webhooks, and generic
// high-signal assignment shapes.
func builtinSecretPatterns() []secretPattern {
	return []secretPattern{
		{"SECRET-AWS-ACCESS-KEY-ID", "AWS Access Key ID", types.SeverityCritical,
			`AKIA[0-9A-Z]{16}`, 90, "Revoke the key in IAM and load credentials from the environment or an instance role instead."},
		{"SECRET-AWS-SECRET-KEY", "AWS Secret Access Key", types.SeverityCritical,
			`(?i)aws_secret_access_key\s*[:=]\s*["']?[A-Za-z0-9/+=]{40}["']?`, 90,
			"Revoke the key in IAM and load credentials from the environment or an instance role instead."},
		{"SECRET-GITHUB-TOKEN", "GitHub Personal Access Token", types.SeverityHigh,
			`gh[pousr]_[A-Za-z0-9]{36}`, 85, "Revoke the token on GitHub and use a short-lived token sourced from the environment."},
		{"SECRET-GITLAB-TOKEN", "GitLab Personal Access Token", types.SeverityHigh,
			`glpat-[A-Za-z0-9\-_]{20}`, 85, "Revoke the token in GitLab and load it from the environment."},
		{"SECRET-SLACK-TOKEN", "Slack Token", types.SeverityHigh,
			`xox[baprs]-[0-9A-Za-z\-]{10,48}`, 80, "Revoke the token in the Slack app settings and load it from the environment."},
		{"SECRET-SLACK-WEBHOOK", "Slack Webhook URL", types.SeverityMedium,
			`https://hooks\.slack\.com/services/T[A-Za-z0-9]+/B[A-Za-z0-9]+/[A-Za-z0-9]+`, 70,
			"Regenerate the webhook URL and load it from the environment."},
		{"SECRET-STRIPE-KEY", "Stripe API Key", types.SeverityCritical,
			`(?:sk|rk)_(?:live|test)_[A-Za-z0-9]{24,}`, 90, "Roll the key in the Stripe dashboard and load it from the environment."},
		{"SECRET-GOOGLE-API-KEY", "Google API Key", types.SeverityHigh,
			`AIza[0-9A-Za-z\-_]{35}`, 80, "Restrict or regenerate the key in Google Cloud Console."},
		{"SECRET-PRIVATE-KEY-BLOCK", "Private Key Block", types.SeverityCritical,
			`-----BEGIN (?:RSA |EC |DSA |OPENSSH |)PRIVATE KEY-----`, 95,
			"Rotate the private key and never commit key material; load it from a secrets manager or mounted volume."},
		{"SECRET-JWT", "JSON Web Token", types.SeverityMedium,
			`eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`, 60,
			"JWTs embedded in source are usually fixtures, but verify this one is not a live credential."},
		{"SECRET-TWILIO-KEY", "Twilio API Key", types.SeverityHigh,
			`SK[0-9a-fA-F]{32}`, 80, "Roll the key in the Twilio console."},
		{"SECRET-SENDGRID-KEY", "SendGrid API Key", types.SeverityHigh,
			`SG\.[A-Za-z0-9_\-]{22}\.[A-Za-z0-9_\-]{43}`, 80, "Roll the key in the SendGrid dashboard."},
		{"SECRET-NPM-TOKEN", "NPM Access Token", types.SeverityHigh,
			`npm_[A-Za-z0-9]{36}`, 80, "Revoke the token at npmjs.com."},
		{"SECRET-HEROKU-API-KEY", "Heroku API Key", types.SeverityHigh,
			`(?i)heroku[a-z_]*\s*[:=]\s*["']?[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}["']?`, 75,
			"Rotate the API key in the Heroku dashboard."},
		{"SECRET-DATABASE-URL-WITH-CREDS", "Database URL with embedded credentials", types.SeverityHigh,
			`(?i)(?:postgres|postgresql|mysql|mongodb(?:\+srv)?|redis)://[^:\s]+:[^@\s]+@[^\s'"]+`, 75,
			"Move the connection string to an environment variable and avoid embedding credentials in the URL."},
		{"SECRET-GENERIC-API-KEY-ASSIGNMENT", "Generic API key assignment", types.SeverityMedium,
			`(?i)\b(?:api[_-]?key|apikey|secret[_-]?key|access[_-]?token|auth[_-]?token|client[_-]?secret)\b\s*[:=]\s*["'][A-Za-z0-9_\-/+=]{16,}["']`, 55,
			"Load this value from the environment or a secrets manager instead of hardcoding it."},
		{"SECRET-GENERIC-PASSWORD-ASSIGNMENT", "Generic password assignment", types.SeverityMedium,
			`(?i)\bpassword\b\s*[:=]\s*["'][^"'\s]{6,}["']`, 45,
			"Load this password from the environment or a secrets manager instead of hardcoding it."},
		{"SECRET-BASIC-AUTH-HEADER", "Hardcoded Basic-Auth header", types.SeverityMedium,
			`(?i)authorization["']?\s*[:=]\s*["']Basic\s+[A-Za-z0-9+/=]{8,}["']`, 60,
			"Do not hardcode Basic-Auth credentials; derive them from environment-sourced values at request time."},
		{"SECRET-BEARER-TOKEN", "Hardcoded Bearer token", types.SeverityMedium,
			`(?i)authorization["']?\s*[:=]\s*["']Bearer\s+[A-Za-z0-9._\-]{10,}["']`, 55,
			"Do not hardcode Bearer tokens; source them from the environment at request time."},
		{"SECRET-AZURE-CONNECTION-STRING", "Azure connection string", types.SeverityHigh,
			`(?i)DefaultEndpointsProtocol=https?;AccountName=[^;]+;AccountKey=[A-Za-z0-9+/=]{20,}`, 85,
			"Rotate the storage account key and load the connection string from the environment."},
	}
}

type compiledPattern struct {
	secretPattern
	re *regexp.Regexp
}

// SecretScanner is a ~20-pattern regex catalog plus a
// Shannon-entropy scan over quoted-literal strings, each contributing
// independent findings, with additive context-based confidence scoring.
type SecretScanner struct {
	compiled []compiledPattern
	cfg      config.Secrets
}

// NewSecretScanner compiles the built-in catalog plus any user overrides
// from cfg.Patterns, in the order given (user patterns run after built-ins
// and may reuse the same RuleID to override a built-in entry's scoring).
func NewSecretScanner(cfg config.Secrets) *SecretScanner {
	s := &SecretScanner{cfg: cfg}
	for _, p := range builtinSecretPatterns() {
		if re, err := regexp.Compile(p.pattern); err == nil {
			s.compiled = append(s.compiled, compiledPattern{p, re})
		}
	}
	for _, up := range cfg.Patterns {
		re, err := regexp.Compile(up.Regex)
		if err != nil {
			continue
		}
		sev := types.SeverityMedium
		switch strings.ToUpper(up.Severity) {
		case "CRITICAL":
			sev = types.SeverityCritical
		case "HIGH":
			sev = types.SeverityHigh
		case "LOW":
			sev = types.SeverityLow
		case "INFO":
			sev = types.SeverityInfo
		}
		ruleID := up.RuleID
		if ruleID == "" {
			ruleID = "SECRET-CUSTOM-" + up.Name
		}
		s.compiled = append(s.compiled, compiledPattern{
			secretPattern{id: ruleID, name: up.Name, severity: sev, pattern: up.Regex, baseScore: 60}, re,
		})
	}
	return s
}

var quotedLiteralRE = regexp.MustCompile(`["']([^"'\n]{12,200})["']`)

// placeholderRE matches common non-secret filler values so they don't get
// flagged by the entropy detector.
var placeholderRE = regexp.MustCompile(`(?i)^(?:x+|0+|changeme|example|placeholder|your[_-]?(?:key|token|secret|password)|sample|dummy|<[^>]+>|\$\{[^}]+\}|%\([^)]+\)s|\{\{[^}]+\}\})$`)

var pathOrURLRE = regexp.MustCompile(`^(?:/|\.\.?/|[A-Za-z]:\\|https?://|[A-Za-z0-9_\-]+\.[A-Za-z]{2,6}(?:/|$))`)

var nearIdentifierRE = regexp.MustCompile(`(?i)\b(?:key|secret|token|password|passwd|credential|api[_-]?key)\b`)

var envSourcedRE = regexp.MustCompile(`(?i)os\.(?:environ|getenv)|process\.env`)

// Scan runs both detectors over one file's source and returns every
// non-suppressed SecretFinding, each independently scored and clamped to
// [0,100].
func (s *SecretScanner) Scan(file string, src []byte, isTest bool) []types.SecretFinding {
	var findings []types.SecretFinding
	lines := strings.Split(string(src), "\n")

	for lineNo, lineText := range lines {
		suppression := suppress.Parse(lineText)

		for _, cp := range s.compiled {
			loc := cp.re.FindStringIndex(lineText)
			if loc == nil {
				continue
			}
			if suppression.SuppressesRule(cp.id) || suppression.SuppressesTool("secrets") {
				continue
			}
			matched := lineText[loc[0]:loc[1]]
			score := s.score(cp.baseScore, lineText, matched, isTest)
			findings = append(findings, types.SecretFinding{
				Finding: types.Finding{
					RuleID: cp.id, Category: "secret", Message: cp.name + " detected",
					File: file, Line: lineNo + 1, Col: loc[0], Severity: cp.severity,
				},
				MatchedValue: redact(matched),
				Confidence:   score,
			})
		}

		if !s.cfg.EntropyEnabled {
			continue
		}
		for _, m := range quotedLiteralRE.FindAllStringSubmatch(lineText, -1) {
			lit := m[1]
			if placeholderRE.MatchString(lit) || pathOrURLRE.MatchString(lit) {
				continue
			}
			ent := shannonEntropy(lit)
			if ent < s.cfg.EntropyThreshold {
				continue
			}
			if suppression.SuppressesRule("SECRET-HIGH-ENTROPY-STRING") || suppression.SuppressesTool("secrets") {
				continue
			}
			col := strings.Index(lineText, lit)
			score := s.scoreEntropy(ent, lineText, lit, isTest)
			e := ent
			findings = append(findings, types.SecretFinding{
				Finding: types.Finding{
					RuleID: "SECRET-HIGH-ENTROPY-STRING", Category: "secret",
					Message:  "high-entropy string literal resembles a credential",
					File:     file, Line: lineNo + 1, Col: col, Severity: types.SeverityLow,
				},
				MatchedValue: redact(lit),
				Entropy:      &e,
				Confidence:   score,
			})
		}
	}
	return findings
}

// score applies the additive context table of to a
// pattern-based match: suppression is already filtered by the caller, so
// this only applies the remaining signals.
func (s *SecretScanner) score(base int, lineText, matched string, isTest bool) int {
	score := base
	trimmed := strings.TrimSpace(lineText)
	if strings.HasPrefix(trimmed, "#") {
		score -= 10
	}
	if strings.Contains(lineText, `"""`) || strings.Contains(lineText, "'''") {
		score -= 10
	}
	if isTest {
		score -= 50
	}
	if envSourcedRE.MatchString(lineText) {
		score -= 100
	}
	if placeholderRE.MatchString(matched) {
		score -= 30
	}
	return clamp(score, 0, 100)
}

func (s *SecretScanner) scoreEntropy(ent float64, lineText, lit string, isTest bool) int {
	score := 40
	trimmed := strings.TrimSpace(lineText)
	if strings.HasPrefix(trimmed, "#") {
		score -= 10
	}
	if strings.Contains(lineText, `"""`) || strings.Contains(lineText, "'''") {
		score -= 10
	}
	if isTest {
		score -= 50
	}
	if nearIdentifierRE.MatchString(lineText) {
		score += 20
	}
	if envSourcedRE.MatchString(lineText) {
		score -= 100
	}
	if pathOrURLRE.MatchString(lit) {
		score -= 100
	}
	if placeholderRE.MatchString(lit) {
		score -= 30
	}
	if ent >= 4.5 {
		score += 15
	}
	return clamp(score, 0, 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// shannonEntropy computes the Shannon entropy (bits/char) of s. No pack
// library implements this formula; it's five lines of stdlib math over a
// frequency table, not a concern any dependency in the corpus addresses.
func shannonEntropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	var freq [256]int
	for i := 0; i < len(s); i++ {
		freq[s[i]]++
	}
	n := float64(len(s))
	var ent float64
	for _, c := range freq {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		ent -= p * math.Log2(p)
	}
	return ent
}

// redact shortens a matched secret to a non-reversible preview so reports
// don't themselves leak the credential.
func redact(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}

// ConfigRegexFinding builds the CONFIG-REGEX secret finding 
// external-interface section calls out: emitted once, at HIGH severity,
// when a user-supplied pattern in cfg.Patterns fails to compile.
func ConfigRegexFinding(file string, up config.SecretPattern, compileErr error) types.SecretFinding {
	return types.SecretFinding{
		Finding: types.Finding{
			RuleID: "CONFIG-REGEX", Category: "secret",
			Message:  "secret pattern \"" + up.Name + "\" failed to compile: " + compileErr.Error(),
			File:     file, Severity: types.SeverityHigh,
		},
		Confidence: 100,
	}
}

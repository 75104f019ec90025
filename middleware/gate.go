package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/upb/tenant-access-gate/clerk"
	"github.com/upb/tenant-access-gate/config"
	"github.com/upb/tenant-access-gate/internal/observability"
	"go.uber.org/zap"
)

// Redirect targets
const (
	SignInPath   = "/sign-in"
	StaffPath    = "/staff"
	StudentPath  = "/student"
	NoAccessPath = "/no-access"
)

// RouteClass is the gate's classification of a request path
type RouteClass string

const (
	ClassUnclassified RouteClass = "unclassified"
	ClassAdmin        RouteClass = "admin"
	ClassStaff        RouteClass = "staff"
	ClassStudent      RouteClass = "student"
)

// Outcome is what the gate does with a request
type Outcome string

const (
	OutcomePass        Outcome = "pass"
	OutcomeSignIn      Outcome = "sign_in"
	OutcomeStaffArea   Outcome = "redirect_staff"
	OutcomeStudentArea Outcome = "redirect_student"
	OutcomeNoAccess    Outcome = "no_access"
)

var (
	adminPattern   = regexp.MustCompile(`^/(api/)?admin`)
	staffPattern   = regexp.MustCompile(`^/staff`)
	studentPattern = regexp.MustCompile(`^/student`)
)

// probePaths are served without consulting the identity provider
var probePaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
	"/metrics": {},
}

// SessionValidator verifies a raw session token
type SessionValidator interface {
	ValidateToken(ctx context.Context, token string) (*clerk.SessionClaims, error)
}

// IsExcluded reports whether the gate skips path entirely: framework internals,
// anything that looks like a static file, and the probe endpoints.
func IsExcluded(path string) bool {
	if strings.HasPrefix(path, "/_next") || strings.Contains(path, ".") {
		return true
	}
	_, ok := probePaths[path]
	return ok
}

// Classify maps a path to its route class. Admin wins over the role areas.
func Classify(path string) RouteClass {
	switch {
	case adminPattern.MatchString(path):
		return ClassAdmin
	case staffPattern.MatchString(path):
		return ClassStaff
	case studentPattern.MatchString(path):
		return ClassStudent
	default:
		return ClassUnclassified
	}
}

// Decide applies the gate's decision table. session is nil for anonymous requests.
//
// Under the conditional policy a user lacking the area's flag is sent to the other
// area only when they hold that flag, otherwise to the no-access page. Under the
// unconditional policy they are always sent to the other area; a user with neither
// flag then bounces between the two areas, which is why conditional is the default.
func Decide(class RouteClass, session *clerk.SessionClaims, policy string) Outcome {
	if class == ClassUnclassified {
		return OutcomePass
	}
	if session == nil {
		return OutcomeSignIn
	}

	meta := session.Metadata
	switch class {
	case ClassStaff:
		if meta.IsStaff {
			return OutcomePass
		}
		if meta.IsStudent || policy == config.CrossRoleUnconditional {
			return OutcomeStudentArea
		}
		return OutcomeNoAccess
	case ClassStudent:
		if meta.IsStudent {
			return OutcomePass
		}
		if meta.IsStaff || policy == config.CrossRoleUnconditional {
			return OutcomeStaffArea
		}
		return OutcomeNoAccess
	default:
		return OutcomePass
	}
}

// RouteGate gates requests by authentication state and role flags
type RouteGate struct {
	validator      SessionValidator
	policy         string
	trustForwarded bool
	logger         *zap.Logger
	metrics        *observability.Metrics
}

// NewRouteGate creates a new RouteGate. A nil validator treats every request as anonymous.
func NewRouteGate(validator SessionValidator, cfg config.GateConfig, logger *zap.Logger, metrics *observability.Metrics) *RouteGate {
	policy := cfg.CrossRolePolicy
	if policy == "" {
		policy = config.CrossRoleConditional
	}
	return &RouteGate{
		validator:      validator,
		policy:         policy,
		trustForwarded: cfg.TrustForwardedHeaders,
		logger:         logger,
		metrics:        metrics,
	}
}

// Handler resolves the session for every non-excluded request, attaches it to the
// request context, and either forwards the request or redirects it.
func (g *RouteGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsExcluded(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		session := g.resolveSession(r)
		if session != nil {
			r = r.WithContext(WithSession(r.Context(), session))
		}

		class := Classify(r.URL.Path)
		outcome := Decide(class, session, g.policy)
		g.metrics.ObserveGate(string(class), string(outcome))

		var location string
		switch outcome {
		case OutcomePass:
			next.ServeHTTP(w, r)
			return
		case OutcomeSignIn:
			location = SignInLocation(r, g.trustForwarded)
		case OutcomeStaffArea:
			location = StaffPath
		case OutcomeStudentArea:
			location = StudentPath
		case OutcomeNoAccess:
			location = NoAccessPath
		}

		g.logger.Debug("route gate redirect",
			zap.String("request_id", GetRequestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path),
			zap.String("class", string(class)),
			zap.String("outcome", string(outcome)))
		http.Redirect(w, r, location, http.StatusTemporaryRedirect)
	})
}

// resolveSession returns nil when the request carries no usable session.
// Verification failures are treated the same as no session.
func (g *RouteGate) resolveSession(r *http.Request) *clerk.SessionClaims {
	if g.validator == nil {
		return nil
	}

	token := clerk.ExtractSessionToken(r)
	if token == "" {
		return nil
	}

	session, err := g.validator.ValidateToken(r.Context(), token)
	if err != nil {
		level := zap.WarnLevel
		if errors.Is(err, clerk.ErrTokenExpired) {
			level = zap.DebugLevel
		}
		g.logger.Check(level, "session verification failed").Write(
			zap.String("request_id", GetRequestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		return nil
	}
	return session
}

// SignInLocation builds the sign-in redirect carrying the absolute original URL
func SignInLocation(r *http.Request, trustForwarded bool) string {
	return SignInPath + "?" + url.Values{"redirect_url": {RequestURL(r, trustForwarded)}}.Encode()
}

// RequestURL reconstructs the absolute URL the client requested. Forwarded
// scheme and host headers are only honoured when trustForwarded is set.
func RequestURL(r *http.Request, trustForwarded bool) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host

	if trustForwarded {
		if proto := firstHeaderValue(r, "X-Forwarded-Proto"); proto == "http" || proto == "https" {
			scheme = proto
		}
		if fwd := firstHeaderValue(r, "X-Forwarded-Host"); fwd != "" {
			host = fwd
		}
	}

	u := url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     r.URL.Path,
		RawPath:  r.URL.RawPath,
		RawQuery: r.URL.RawQuery,
	}
	return u.String()
}

func firstHeaderValue(r *http.Request, name string) string {
	return strings.TrimSpace(strings.Split(r.Header.Get(name), ",")[0])
}

package gate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"codeberg.org/planhub/server/internal/access"
	"codeberg.org/planhub/server/internal/auth"
	"codeberg.org/planhub/server/internal/concurrency"
	"codeberg.org/planhub/server/internal/errors"
	"codeberg.org/planhub/server/internal/logger"
	"codeberg.org/planhub/server/internal/ratelimit"
	"codeberg.org/planhub/server/internal/tiers"
	"codeberg.org/planhub/server/planhub/accounts"
	"github.com/gin-gonic/gin"
)

// the floor for payload-derived token estimates
const minTokenEstimate = 100

// fetches the caller's account row; satisfied by planhub/accounts
type AccountSource interface {
	FindByID(ctx context.Context, accountID string) (*accounts.Account, error)
}

// Gate chains the per-request admission checks for protected routes:
// authentication, project access, premium feature, daily quota, and the
// concurrency slot. It owes the handler an account in the gin context and
// owes the limiter a usage record once the handler returns.
type Gate struct {
	accounts AccountSource
	limiter  *ratelimit.Limiter
	guard    *concurrency.Guard
	resolver *access.Resolver
}

// Options declare what a protected route requires. CallType labels the usage
// log entry; Permission makes the route project-scoped; Feature names a
// premium capability the caller's tier must include.
type Options struct {
	CallType   string
	Permission string
	Feature    string

	// a project-scoped route where the project id may be absent; the access
	// check runs only when the caller names one
	ProjectOptional bool
}

func New(accounts AccountSource, limiter *ratelimit.Limiter, guard *concurrency.Guard, resolver *access.Resolver) *Gate {
	return &Gate{
		accounts: accounts,
		limiter:  limiter,
		guard:    guard,
		resolver: resolver,
	}
}

// Protect returns the admission middleware for one protected route. It must
// run after auth.AuthMiddleware.
//
// The two fault policies are deliberately separate code paths: a fault while
// evaluating quota or the concurrency slot is swallowed and the call goes
// through (failOpenQuota), a fault while resolving project access aborts the
// call (failClosedAccess). Quota is cost control; access is a security
// boundary.
func (g *Gate) Protect(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		accountID, ok := auth.GetAccountID(c)
		if !ok {
			errors.Unauthorized(c, "")
			c.Abort()

			return
		}

		account, err := g.accounts.FindByID(c.Request.Context(), accountID)
		if err != nil {
			if errors.IsNotFound(err) {
				errors.Unauthorized(c, "account no longer exists")
				c.Abort()

				return
			}

			// identity cannot be established, this is neither of the two
			// gating policies
			errors.DependencyUnavailable(c, "unable to load your account", err)
			c.Abort()

			return
		}

		c.Set(CtxAccount, account)

		if opts.Feature != "" && !tiers.HasFeature(account.Tier, opts.Feature) {
			errors.FeatureDenied(c, opts.Feature)
			c.Abort()

			return
		}

		if opts.Permission != "" {
			if !g.checkAccess(c, accountID, opts) {
				c.Abort()
				return
			}
		}

		decision := g.checkQuota(c, account, opts, start)
		if decision == nil {
			c.Abort()
			return
		}

		release := g.acquireSlot(c, account)
		if release == nil {
			g.record(c, account, opts, 0, start, ratelimit.OutcomeRateLimited)
			c.Abort()

			return
		}

		defer release()

		attachQuotaHeaders(c, decision)

		c.Next()

		outcome := ratelimit.OutcomeSuccess
		if c.Writer.Status() >= http.StatusBadRequest {
			outcome = ratelimit.OutcomeFailed
		}

		g.record(c, account, opts, c.GetInt(CtxTokensUsed), start, outcome)
	}
}

// resolves project access fail-closed: a resolver fault aborts the request
func (g *Gate) checkAccess(c *gin.Context, accountID string, opts Options) bool {
	permission := opts.Permission

	projectID, ok := projectIDFromRequest(c)
	if !ok {
		if opts.ProjectOptional {
			return true
		}

		errors.BadRequest(c, "a project id is required for this operation", nil)

		return false
	}

	if !errors.IsValidUUID(projectID) {
		errors.ProjectNotFound(c)
		return false
	}

	acc, allowed, err := g.resolver.CheckPermission(c.Request.Context(), accountID, projectID, permission)
	if err != nil {
		// failClosedAccess: authorization cannot be verified, deny
		errors.DependencyUnavailable(c, "unable to verify project access", err)
		return false
	}

	if !allowed {
		switch acc.Reason {
		case access.ReasonProjectNotFound:
			errors.ProjectNotFound(c)
		case access.ReasonPermissionInsufficient:
			errors.PermissionInsufficient(c, permission, acc.Level.String())
		default:
			errors.AccessDenied(c, "")
		}

		return false
	}

	c.Set(CtxProjectID, projectID)
	c.Set(CtxAccessLevel, acc.Level)

	return true
}

// evaluates the daily quota and token ceiling fail-open: a limiter fault is
// logged and the call proceeds as if allowed. Returns nil when the request
// was denied and a response already written; the caller aborts the chain.
func (g *Gate) checkQuota(c *gin.Context, account *accounts.Account, opts Options, start time.Time) *ratelimit.Decision {
	decision, err := g.limiter.Check(c.Request.Context(), account, estimateTokens(c))
	if err != nil {
		// failOpenQuota: quota state is unreachable, let the call through.
		// Remaining is unknown, not unlimited; no quota headers are written.
		logger.ErrorErr(err, "rate limit check failed, allowing request",
			"account_id", account.ID,
			"path", c.Request.URL.Path,
		)

		return &ratelimit.Decision{Allowed: true, Remaining: -1}
	}

	if decision.Allowed {
		return decision
	}

	g.record(c, account, opts, 0, start, ratelimit.OutcomeRateLimited)

	switch decision.Reason {
	case ratelimit.ReasonRequestTooLarge:
		errors.RequestTooLarge(c, decision.Message)
	case ratelimit.ReasonAccountInactive:
		errors.AccessDenied(c, decision.Message)
	default:
		errors.QuotaExceeded(c, decision.Message, decision.Remaining, decision.ResetTime)
	}

	return nil
}

// acquires a concurrency slot fail-open: a counter store fault admits the
// call without a slot. Returns nil only when the account is at its ceiling.
func (g *Gate) acquireSlot(c *gin.Context, account *accounts.Account) concurrency.ReleaseFunc {
	release, ok, err := g.guard.Acquire(c.Request.Context(), account.ID, account.Tier)
	if err != nil {
		// failOpenQuota: the slot store is unreachable, admit without a slot
		logger.ErrorErr(err, "concurrency check failed, allowing request",
			"account_id", account.ID,
		)

		return func() {}
	}

	if !ok {
		errors.ConcurrencyExceeded(c)
		return nil
	}

	return release
}

func (g *Gate) record(c *gin.Context, account *accounts.Account, opts Options, tokensUsed int, start time.Time, outcome string) {
	callType := opts.CallType
	if callType == "" {
		callType = "api_call"
	}

	endpoint := c.FullPath()
	if endpoint == "" {
		endpoint = c.Request.URL.Path
	}

	err := g.limiter.Record(c.Request.Context(), account, callType, endpoint,
		tokensUsed, c.GetFloat64(CtxCost), time.Since(start), outcome)
	if err != nil {
		// the response is already decided, a lost record is log-only
		logger.ErrorErr(err, "failed to record usage",
			"account_id", account.ID,
			"endpoint", endpoint,
		)
	}
}

// writes remaining-quota metadata on admitted requests. A negative Remaining
// on a finite tier means the limiter was unreachable and the true count is
// unknown; the headers are omitted.
func attachQuotaHeaders(c *gin.Context, decision *ratelimit.Decision) {
	if decision.Unlimited {
		c.Header("X-RateLimit-Remaining", "unlimited")
		return
	}

	if decision.Remaining < 0 {
		return
	}

	// the admitted call itself consumes one
	c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining-1))
	c.Header("X-RateLimit-Reset", nextReset(time.Now()).Format(time.RFC3339))
}

func nextReset(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
}

// finds the project id for a project-scoped route: path param first, then
// query string, then a project_id field in a JSON body. Reading the body
// buffers and restores it so the handler still sees the full payload.
func projectIDFromRequest(c *gin.Context) (string, bool) {
	if id := c.Param("id"); id != "" {
		return id, true
	}

	if id := c.Param("project_id"); id != "" {
		return id, true
	}

	if id := c.Query("project_id"); id != "" {
		return id, true
	}

	if c.Request.Body == nil {
		return "", false
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", false
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	var payload struct {
		ProjectID string `json:"project_id"`
	}

	if err := json.Unmarshal(body, &payload); err != nil || payload.ProjectID == "" {
		return "", false
	}

	return payload.ProjectID, true
}

// estimates the token cost of a call from its payload size when the caller
// does not declare one: max(bytes/4, 100)
func estimateTokens(c *gin.Context) int {
	size := c.Request.ContentLength
	if size <= 0 {
		return minTokenEstimate
	}

	estimate := int(size / 4)
	if estimate < minTokenEstimate {
		return minTokenEstimate
	}

	return estimate
}

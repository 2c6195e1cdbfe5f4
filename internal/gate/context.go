package gate

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/planhub/server/planhub/accounts"
	"codeberg.org/planhub/server/planhub/projects"
)

// gin context keys shared between the gate and the handlers behind it
const (
	CtxAccount     = "account"
	CtxProjectID   = "project_id"
	CtxAccessLevel = "access_level"
	CtxTokensUsed  = "tokens_used"
	CtxCost        = "usage_cost"
)

// returns the account row the gate loaded for this request
func AccountFromContext(c *gin.Context) (*accounts.Account, bool) {
	v, ok := c.Get(CtxAccount)
	if !ok {
		return nil, false
	}

	account, ok := v.(*accounts.Account)

	return account, ok
}

// returns the resolved project id on a project-scoped route
func ProjectIDFromContext(c *gin.Context) (string, bool) {
	id := c.GetString(CtxProjectID)
	return id, id != ""
}

// returns the caller's resolved access level on a project-scoped route
func AccessLevelFromContext(c *gin.Context) (projects.AccessLevel, bool) {
	v, ok := c.Get(CtxAccessLevel)
	if !ok {
		return projects.LevelViewer, false
	}

	level, ok := v.(projects.AccessLevel)

	return level, ok
}

// reports actual token consumption and cost back to the gate so the usage
// record reflects what the call really spent
func ReportUsage(c *gin.Context, tokensUsed int, cost float64) {
	c.Set(CtxTokensUsed, tokensUsed)
	c.Set(CtxCost, cost)
}

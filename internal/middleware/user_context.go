package middleware

import (
	"context"

	"projectflow/internal/auth"
	"projectflow/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	CurrentMemberKey = "CurrentMember"
	SessionMemberKey = "member_id"
)

type MemberLookup interface {
	Get(ctx context.Context, id uint) (*models.Member, error)
}

// InjectMember resolves the caller from a bearer token, falling back to the
// login session cookie, and stores the member in the gin context. Requests
// without valid credentials pass through anonymously.
func InjectMember(members MemberLookup, tokens *auth.Tokens, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var id uint

		if raw := auth.ExtractToken(c.Request); raw != "" {
			claims, err := tokens.Parse(raw)
			if err != nil {
				logger.Debug("Rejected bearer token", zap.Error(err))
			} else {
				id = claims.MemberID
			}
		} else {
			sess := sessions.Default(c)
			if uid, ok := sess.Get(SessionMemberKey).(uint); ok {
				id = uid
			}
		}

		if id > 0 {
			member, err := members.Get(c.Request.Context(), id)
			if err == nil {
				c.Set(CurrentMemberKey, *member)
			} else {
				logger.Debug("Credential for unknown member", zap.Uint("member_id", id), zap.Error(err))
			}
		}

		c.Next()
	}
}

func CurrentMember(c *gin.Context) (models.Member, bool) {
	v, ok := c.Get(CurrentMemberKey)
	if !ok {
		return models.Member{}, false
	}
	m, ok := v.(models.Member)
	return m, ok
}

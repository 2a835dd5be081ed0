package complaints

import (
	"net/http"
	"time"

	"civic-platform/internal/auth"
	"civic-platform/pkg/logger"
	"civic-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const submissionCapKeyPrefix = "civic:submission_cap:"

// SubmissionCap limits in-flight complaint submissions per reporter using the
// redis counting cap. The TTL bounds leaked slots if the process dies while a
// request is in flight.
//
// Redis being down fails open: filing complaints must not depend on the cap
// backend.
func SubmissionCap(rdb *redis.Client, limit int, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := auth.UserID(c.Request.Context())
		if err != nil || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
			return
		}

		key := submissionCapKeyPrefix + userID
		ok, err := utils.AcquireCap(c.Request.Context(), rdb, key, limit, ttl)
		if err != nil {
			logger.FromGin(c).Warn("submission cap unavailable", "err", err)
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many in-flight submissions"})
			return
		}
		defer func() {
			if err := utils.ReleaseCap(c.Request.Context(), rdb, key); err != nil {
				logger.FromGin(c).Warn("submission cap release failed", "err", err)
			}
		}()

		c.Next()
	}
}

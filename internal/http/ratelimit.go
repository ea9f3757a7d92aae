package http

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// allowRedeemAttempt throttles code guessing per student with a TTL counter
// in Redis. Without a configured client the limiter is disabled. A Redis
// failure fails open: the limiter must never take redemption down with it.
func (s *Server) allowRedeemAttempt(ctx context.Context, studentID string) bool {
	if s.redis == nil {
		return true
	}

	key := fmt.Sprintf("redeem_attempts:%s", studentID)
	count, err := s.redis.Incr(ctx, key).Result()
	if err != nil {
		s.logger.Warn("redeem rate limiter unavailable", zap.Error(err))
		return true
	}
	if count == 1 {
		if err := s.redis.Expire(ctx, key, s.cfg.RedeemRateWindow).Err(); err != nil {
			s.logger.Warn("redeem rate limiter expire failed", zap.Error(err))
		}
	}
	return count <= int64(s.cfg.RedeemRateLimit)
}

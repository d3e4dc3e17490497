package trainload

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// DefaultSummaryCacheTTL keeps summaries fresh enough for the calendar view
// while absorbing its repeated range queries.
const DefaultSummaryCacheTTL = 120 * time.Second

// SummaryCache is a redis-backed cache for period summaries. Every failure
// path degrades to a recompute: a broken redis must never break the calendar.
type SummaryCache struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewSummaryCache(redisClient *redis.Client, ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = DefaultSummaryCacheTTL
	}
	return &SummaryCache{
		redisClient: redisClient,
		ttl:         ttl,
	}
}

func summaryKey(athleteID int, startDate, endDate time.Time) string {
	return fmt.Sprintf(
		"calendar-%d-%s%s",
		athleteID,
		startDate.UTC().Format(time.RFC3339),
		endDate.UTC().Format(time.RFC3339),
	)
}

func (c *SummaryCache) Get(ctx context.Context, athleteID int, startDate, endDate time.Time) (*Summary, bool) {
	key := summaryKey(athleteID, startDate, endDate)
	cmd := c.redisClient.Get(ctx, key)
	if err := cmd.Err(); err != nil {
		if err != redis.Nil {
			log.Errorf("failed to get summary from redis for [%s]: %s", key, err)
		}
		return nil, false
	}

	var summary Summary
	if err := json.Unmarshal([]byte(cmd.Val()), &summary); err != nil {
		log.Errorf("failed to unmarshal cached summary for [%s]: %s", key, err)
		return nil, false
	}

	log.Tracef("found summary for [%s] in redis cache", key)
	return &summary, true
}

func (c *SummaryCache) Set(ctx context.Context, athleteID int, startDate, endDate time.Time, summary *Summary) {
	key := summaryKey(athleteID, startDate, endDate)
	summaryBytes, err := json.Marshal(summary)
	if err != nil {
		log.Errorf("failed to marshal summary for [%s]: %s", key, err)
		return
	}

	if err := c.redisClient.Set(ctx, key, summaryBytes, c.ttl).Err(); err != nil {
		log.Errorf("failed to cache summary in redis for [%s]: %s", key, err)
		return
	}
	log.Debugf("summary cache set in redis for: %s", key)
}

package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const leaderboardTTL = 10 * time.Minute

// MemberScore - пара (участник, сумма очков) из отсортированного множества.
type MemberScore struct {
	UserID int
	Total  int64
}

// LeaderboardCache хранит таблицы лидеров в Redis ZSET: ключ на соревнование,
// member - id участника, score - сумма очков. Пустое множество означает промах.
type LeaderboardCache struct {
	client *redis.Client
}

func NewLeaderboardCache(client *redis.Client) *LeaderboardCache {
	return &LeaderboardCache{client: client}
}

func leaderboardKey(competitionID int) string {
	return fmt.Sprintf("leaderboard:%d", competitionID)
}

// SetMemberTotal обновляет сумму одного участника, не трогая остальных.
func (c *LeaderboardCache) SetMemberTotal(ctx context.Context, competitionID, userID int, total int64) error {
	key := leaderboardKey(competitionID)
	pipe := c.client.TxPipeline()
	pipe.ZAdd(ctx, key, &redis.Z{Score: float64(total), Member: strconv.Itoa(userID)})
	pipe.Expire(ctx, key, leaderboardTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Top возвращает участников по убыванию очков. Пустой результат - промах кэша.
func (c *LeaderboardCache) Top(ctx context.Context, competitionID int) ([]MemberScore, error) {
	zs, err := c.client.ZRevRangeWithScores(ctx, leaderboardKey(competitionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	scores := make([]MemberScore, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		userID, convErr := strconv.Atoi(member)
		if convErr != nil {
			continue
		}
		scores = append(scores, MemberScore{UserID: userID, Total: int64(z.Score)})
	}
	return scores, nil
}

// Rebuild перезаписывает множество целиком одной транзакцией.
func (c *LeaderboardCache) Rebuild(ctx context.Context, competitionID int, scores []MemberScore) error {
	key := leaderboardKey(competitionID)
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	for _, s := range scores {
		pipe.ZAdd(ctx, key, &redis.Z{Score: float64(s.Total), Member: strconv.Itoa(s.UserID)})
	}
	pipe.Expire(ctx, key, leaderboardTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *LeaderboardCache) Invalidate(ctx context.Context, competitionID int) error {
	return c.client.Del(ctx, leaderboardKey(competitionID)).Err()
}

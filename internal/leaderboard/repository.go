package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RankingKey 是一个 Redis Sorted Set 的键，镜像排行榜的累计奖励。
// Score: TotalEarned
// Member: 用户ID
const RankingKey = "leaderboard:earned"

// writeRanking 用一个事务管道整体替换Redis中的排名
func writeRanking(ctx context.Context, rdb *redis.Client, entries []Entry) error {
	pipe := rdb.TxPipeline()
	pipe.Del(ctx, RankingKey)
	if len(entries) > 0 {
		members := make([]redis.Z, 0, len(entries))
		for _, e := range entries {
			members = append(members, redis.Z{
				Score:  float64(e.TotalEarned),
				Member: strconv.FormatUint(uint64(e.UserID), 10),
			})
		}
		pipe.ZAdd(ctx, RankingKey, members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("写入Redis排名失败: %w", err)
	}
	return nil
}

// readRank 返回累计奖励严格高于该用户的人数加一，用户不在榜上时返回false
func readRank(ctx context.Context, rdb *redis.Client, userID uint) (int64, bool, error) {
	member := strconv.FormatUint(uint64(userID), 10)
	score, err := rdb.ZScore(ctx, RankingKey, member).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	higher, err := rdb.ZCount(ctx, RankingKey, "("+strconv.FormatFloat(score, 'f', -1, 64), "+inf").Result()
	if err != nil {
		return 0, false, err
	}
	return higher + 1, true, nil
}

package metadata

// metadata表中 key 列使用的键名
const (
	// DemoSeededKey 标记演示数据是否已经写入，避免重启后重复创建
	DemoSeededKey = "demo_seeded"

	// LeaderboardRebuiltAtKey 记录最近一次排行榜全量重建的时间 (RFC3339)
	LeaderboardRebuiltAtKey = "leaderboard_rebuilt_at"

	// LastExpirySweepAtKey 记录最近一次悬赏过期扫描的时间 (RFC3339)
	LastExpirySweepAtKey = "last_expiry_sweep_at"
)

package health

import (
	"sync"

	"github.com/SlpAus/falsifi-backend/pkg/logger"
)

// State Redis缓存层的健康状态
type State int

const (
	StateHealthy State = iota
	StateDegraded
	StateRebuilding
)

func (s State) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	case StateRebuilding:
		return "rebuilding"
	}
	return "unknown"
}

// tracker 线程安全地维护状态机: 健康 / 降级 / 重建中
type tracker struct {
	mu             sync.RWMutex
	currentState   State
	lastKnownRunID string
}

func newTracker() *tracker {
	return &tracker{currentState: StateHealthy}
}

func (t *tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.currentState
}

func (t *tracker) setInitialRunID(runID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastKnownRunID = runID
}

// Assess 根据一次检查的结果推进状态，返回是否需要重建缓存
func (t *tracker) Assess(connected bool, runID string) (needsRebuild bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	restarted := t.lastKnownRunID != "" && t.lastKnownRunID != runID

	switch t.currentState {
	case StateHealthy:
		if !connected {
			t.currentState = StateDegraded
			logger.Warn("健康检查: Redis连接丢失，系统状态 -> [降级]")
		} else if restarted {
			t.currentState = StateRebuilding
			needsRebuild = true
			logger.Warnf("健康检查: 检测到Redis重启 (run_id: %s -> %s)，系统状态 -> [重建中]", t.lastKnownRunID, runID)
		}
	case StateDegraded:
		if connected {
			if restarted {
				t.currentState = StateRebuilding
				needsRebuild = true
				logger.Warnf("健康检查: Redis已恢复但检测到重启 (run_id: %s -> %s)，系统状态 -> [重建中]", t.lastKnownRunID, runID)
			} else {
				t.currentState = StateHealthy
				logger.Info("健康检查: Redis连接已恢复，系统状态 -> [健康]")
			}
		}
	case StateRebuilding:
		if !connected {
			t.currentState = StateDegraded
			logger.Warn("健康检查: 在缓存重建期间Redis连接再次丢失，系统状态 -> [降级]")
		} else {
			// 仍处于重建中说明上次重建失败
			needsRebuild = true
			logger.Info("健康检查: 系统处于[重建中]状态，将再次尝试重建缓存...")
		}
	}

	if connected {
		t.lastKnownRunID = runID
	}
	return needsRebuild
}

// MarkRebuildComplete 在一次重建尝试之后调用，重建期间Redis再次重启则重建无效
func (t *tracker) MarkRebuildComplete(success bool, runIDAfterRebuild string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.currentState != StateRebuilding {
		return
	}

	if success && t.lastKnownRunID != runIDAfterRebuild {
		logger.Errorf("健康检查错误: 缓存重建期间检测到Redis再次重启 (run_id: %s -> %s)。重建无效，保持[重建中]状态。", t.lastKnownRunID, runIDAfterRebuild)
		t.lastKnownRunID = runIDAfterRebuild
		return
	}

	if success {
		t.currentState = StateHealthy
		logger.Info("健康检查: 缓存重建成功，系统状态 -> [健康]")
	} else {
		logger.Error("健康检查错误: 缓存重建失败，系统状态保持 [重建中] 以待重试")
	}
}

package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	dashboardCacheKey = "wms:dashboard:stats"
	dashboardCacheTTL = 5 * time.Minute
)

// DashboardService 仪表盘统计，Redis缓存，缓存不可用时直接回源
type DashboardService struct {
	poRepo *repository.PORepository
	rdb    *redis.Client
	logger *zap.Logger
}

func NewDashboardService(poRepo *repository.PORepository, rdb *redis.Client, logger *zap.Logger) *DashboardService {
	return &DashboardService{poRepo: poRepo, rdb: rdb, logger: logger}
}

// DashboardStats 仪表盘统计结果
type DashboardStats struct {
	POCountByStatus map[string]int64 `json:"po_count_by_status"`
	OpenBalance     float64          `json:"open_balance"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

// GetStats 获取仪表盘统计，命中缓存直接返回
func (s *DashboardService) GetStats(ctx context.Context) (*DashboardStats, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, dashboardCacheKey).Result()
		if err == nil {
			var stats DashboardStats
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				return &stats, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	counts, err := s.poRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	balance, err := s.poRepo.SumOpenBalance(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		POCountByStatus: counts,
		OpenBalance:     balance,
		GeneratedAt:     time.Now(),
	}

	if s.rdb != nil {
		if data, err := json.Marshal(stats); err == nil {
			if err := s.rdb.Set(ctx, dashboardCacheKey, data, dashboardCacheTTL).Err(); err != nil {
				s.logger.Warn("dashboard cache write failed", zap.Error(err))
			}
		}
	}
	return stats, nil
}

// InvalidateCache 主动失效缓存（状态变更后调用）
func (s *DashboardService) InvalidateCache(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, dashboardCacheKey).Err(); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

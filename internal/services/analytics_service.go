package services

import (
	"context"

	"task-manager/api/internal/models"
	"task-manager/api/internal/repositories"
)

type AnalyticsService struct {
	analytics *repositories.AnalyticsRepository
}

func NewAnalyticsService(analytics *repositories.AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{analytics: analytics}
}

func (s *AnalyticsService) Summary(ctx context.Context) (*models.AnalyticsSummary, error) {
	byStatus, err := s.analytics.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	completed, err := s.analytics.CompletedPerUser(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.analytics.ActivePerUser(ctx)
	if err != nil {
		return nil, err
	}

	summary := &models.AnalyticsSummary{
		ByStatus:         byStatus,
		CompletedPerUser: completed,
		ActivePerUser:    active,
	}
	for _, c := range byStatus {
		summary.TotalTasks += c.Count
	}
	return summary, nil
}

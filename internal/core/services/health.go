package services

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure HealthService implements the interface.
var _ driving.HealthService = (*HealthService)(nil)

// HealthService reports embedder reachability and the registered providers.
type HealthService struct {
	checker driven.AIHealthChecker
}

// NewHealthService creates a health service.
func NewHealthService(checker driven.AIHealthChecker) *HealthService {
	return &HealthService{checker: checker}
}

// Check builds a report. It never fails; problems are recorded in the report.
func (s *HealthService) Check(ctx context.Context) domain.HealthReport {
	report := domain.HealthReport{
		EmbeddingModel: s.checker.EmbeddingModel(),
		Providers:      s.checker.RegisteredProviders(),
	}
	if err := s.checker.CheckEmbedding(ctx); err != nil {
		logger.Warn("health: embedding check failed: %v", err)
		report.EmbeddingError = err.Error()
		return report
	}
	report.EmbeddingReachable = true
	return report
}

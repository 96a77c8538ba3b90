package usecase

import (
	"context"
	"time"

	"github.com/developr-99/notes-generator-llm-app/internal/core/domain"
	"github.com/developr-99/notes-generator-llm-app/internal/core/ports"
)

type HealthUseCase struct {
	llm         ports.LLMHealthChecker
	transcriber ports.Transcriber
	now         func() time.Time
}

func NewHealthUseCase(llm ports.LLMHealthChecker, transcriber ports.Transcriber) *HealthUseCase {
	return &HealthUseCase{
		llm:         llm,
		transcriber: transcriber,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (uc *HealthUseCase) Health(ctx context.Context) domain.HealthStatus {
	status := domain.HealthStatus{
		WhisperLoaded:   uc.transcriber != nil,
		OllamaConnected: uc.llm.Ping(ctx) == nil,
		Timestamp:       uc.now(),
	}
	status.Status = "degraded"
	if status.WhisperLoaded && status.OllamaConnected {
		status.Status = "healthy"
	}
	return status
}

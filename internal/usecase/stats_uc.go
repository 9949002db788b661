package usecase

import (
	"context"

	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type Revenue struct {
	Week  int64 `json:"week"`
	Month int64 `json:"month"`
	Year  int64 `json:"year"`
}

type StatsUseCase interface {
	Totals(ctx context.Context) (users int, intentsByStatus map[model.IntentStatus]int, err error)
	Revenue(ctx context.Context) (Revenue, error)
}

type statsUC struct {
	users   repository.UserRepository
	intents repository.PaymentIntentRepository

	log *zerolog.Logger
}

func NewStatsUseCase(users repository.UserRepository, intents repository.PaymentIntentRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{users: users, intents: intents, log: logger}
}

func (s *statsUC) Totals(ctx context.Context) (int, map[model.IntentStatus]int, error) {
	users, err := s.users.CountUsers(ctx, repository.NoTX)
	if err != nil {
		return 0, nil, err
	}
	byStatus, err := s.intents.CountByStatus(ctx, repository.NoTX)
	if err != nil {
		return 0, nil, err
	}
	return users, byStatus, nil
}

func (s *statsUC) Revenue(ctx context.Context) (Revenue, error) {
	var r Revenue
	for _, p := range []struct {
		period string
		dst    *int64
	}{{"week", &r.Week}, {"month", &r.Month}, {"year", &r.Year}} {
		sum, err := s.intents.SumCompletedSince(ctx, repository.NoTX, p.period)
		if err != nil {
			s.log.Error().Err(err).Str("period", p.period).Msg("revenue query failed")
			return Revenue{}, err
		}
		*p.dst = sum
	}
	return r, nil
}

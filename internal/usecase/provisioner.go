package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vitos/crypto_arbitrage/internal/domain"
	"go.uber.org/zap"
)

// Provisioner creates the step rows of running strategies that have none yet.
type Provisioner struct {
	repo   domain.StrategyRepository
	logger *zap.Logger
}

func NewProvisioner(repo domain.StrategyRepository, logger *zap.Logger) *Provisioner {
	return &Provisioner{repo: repo, logger: logger}
}

func (p *Provisioner) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.ProvisionAll(ctx); err != nil {
				p.logger.Error("Failed to list running strategies", zap.Error(err))
			}
		}
	}
}

// ProvisionAll provisions every running strategy. Per-strategy failures are logged and retried next poll.
func (p *Provisioner) ProvisionAll(ctx context.Context) error {
	strategies, err := p.repo.ListStrategiesByStatus(ctx, domain.StrategyRunning)
	if err != nil {
		return err
	}

	for _, st := range strategies {
		created, err := p.Provision(ctx, st)
		if err != nil {
			p.logger.Error("Failed to provision strategy", zap.Int64("strategy_id", st.ID), zap.Error(err))
			continue
		}
		if created {
			p.logger.Info("Strategy provisioned", zap.Int64("strategy_id", st.ID), zap.String("direction", string(st.Direction)))
		}
	}
	return nil
}

// Provision reports whether steps were created. A strategy that already has steps is left alone.
func (p *Provisioner) Provision(ctx context.Context, st domain.Strategy) (bool, error) {
	existing, err := p.repo.ListSteps(ctx, st.ID)
	if err != nil {
		return false, fmt.Errorf("failed to list steps: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}

	plan, err := BuildPlan(st)
	if err != nil {
		return false, err
	}

	multiplier := st.MarginMultiplier
	if multiplier.IsZero() {
		multiplier = decimal.NewFromInt(1)
	}
	target := st.Amount.Mul(multiplier)

	steps := make([]domain.StrategyStep, len(plan))
	for i, d := range plan {
		steps[i] = domain.StrategyStep{
			StrategyID:     st.ID,
			Seq:            i,
			Leg:            d.Leg,
			Market:         d.Market,
			Symbol:         d.Symbol,
			Status:         domain.StepPending,
			TargetAmount:   target,
			ExecutedAmount: decimal.Zero,
		}
	}
	if err := p.repo.CreateSteps(ctx, steps); err != nil {
		return false, fmt.Errorf("failed to create steps: %w", err)
	}
	return true, nil
}

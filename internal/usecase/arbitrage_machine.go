package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/vitos/crypto_arbitrage/internal/domain"
	"go.uber.org/zap"
)

// Action is what one state machine pass did.
type Action string

const (
	ActionIdle        Action = "idle"
	ActionFinished    Action = "finished"
	ActionOrderPlaced Action = "order_placed"
	ActionTransferred Action = "transferred"
	ActionFilled      Action = "filled"
	ActionExpired     Action = "expired"
)

type SnapshotReader interface {
	GetSnapshot(ctx context.Context, diffRateID int64) (*domain.DiffRateSnapshot, error)
}

// ArbitrageMachine advances one strategy by at most one leg per call.
// It keeps no state between calls: every decision starts from the stored steps.
type ArbitrageMachine struct {
	repo      domain.StrategyRepository
	snapshots SnapshotReader
	exchange  domain.Exchange
	logger    *zap.Logger
}

func NewArbitrageMachine(repo domain.StrategyRepository, snapshots SnapshotReader, exchange domain.Exchange, logger *zap.Logger) *ArbitrageMachine {
	return &ArbitrageMachine{
		repo:      repo,
		snapshots: snapshots,
		exchange:  exchange,
		logger:    logger,
	}
}

func (m *ArbitrageMachine) Handle(ctx context.Context, st domain.Strategy) error {
	action, err := m.Step(ctx, st)
	if err != nil {
		return fmt.Errorf("strategy %d: %w", st.ID, err)
	}
	if action != ActionIdle {
		m.logger.Debug("Strategy advanced", zap.Int64("strategy_id", st.ID), zap.String("action", string(action)))
	}
	return nil
}

func (m *ArbitrageMachine) Step(ctx context.Context, st domain.Strategy) (Action, error) {
	plan, err := planFor(st)
	if err != nil {
		return ActionIdle, err
	}

	steps, err := m.repo.ListSteps(ctx, st.ID)
	if err != nil {
		return ActionIdle, fmt.Errorf("failed to list steps: %w", err)
	}
	if len(steps) != len(plan) {
		return ActionIdle, fmt.Errorf("have %d steps, want %d: %w", len(steps), len(plan), domain.ErrStepCount)
	}

	doneCount, next := 0, -1
	for i, s := range steps {
		if s.Seq != i || s.Leg != plan[i].leg {
			return ActionIdle, fmt.Errorf("seq %d is %s, want %s: %w", i, s.Leg, plan[i].leg, domain.ErrMissingStep)
		}
		if s.Status == domain.StepDone {
			doneCount++
		} else if next < 0 {
			next = i
		}
	}

	if doneCount == len(steps) {
		if err := m.repo.UpdateStrategyStatus(ctx, st.ID, domain.StrategyDone); err != nil {
			return ActionIdle, fmt.Errorf("failed to mark strategy done: %w", err)
		}
		m.logger.Info("Strategy done", zap.Int64("strategy_id", st.ID))
		return ActionFinished, nil
	}
	if next != doneCount {
		return ActionIdle, fmt.Errorf("first pending step is %d but %d steps are done: %w", next, doneCount, domain.ErrOutOfOrder)
	}

	cur := steps[next]
	if cur.OrderID != "" && !cur.Leg.IsTransfer() {
		return m.reconcile(ctx, st, cur)
	}

	snap, err := m.snapshots.GetSnapshot(ctx, st.DiffRateID)
	if err != nil {
		return ActionIdle, fmt.Errorf("failed to load diff rate %d: %w", st.DiffRateID, err)
	}
	// A missing price would turn into a meaningless rate and order price.
	if !snap.FromPrice.IsPositive() || !snap.ToPrice.IsPositive() {
		return ActionIdle, nil
	}
	if !thresholdMet(st, snap.Rate, next) {
		return ActionIdle, nil
	}

	if cur.Leg.IsTransfer() {
		return m.transfer(ctx, st, steps, next)
	}
	return m.placeOrder(ctx, st, steps, next, plan[next].venue, snap)
}

// thresholdMet checks the open threshold for opening legs and the close threshold for the rest.
func thresholdMet(st domain.Strategy, rate decimal.Decimal, seq int) bool {
	opening := seq < OpenLegCount(st.Direction)
	switch st.Direction {
	case domain.DirectionPositive:
		if opening {
			return rate.GreaterThanOrEqual(st.OpenThreshold)
		}
		return rate.LessThanOrEqual(st.CloseThreshold)
	case domain.DirectionReverse:
		if opening {
			return rate.LessThanOrEqual(st.OpenThreshold)
		}
		return rate.GreaterThanOrEqual(st.CloseThreshold)
	}
	return false
}

func (m *ArbitrageMachine) placeOrder(ctx context.Context, st domain.Strategy, steps []domain.StrategyStep, seq int, v venue, snap *domain.DiffRateSnapshot) (Action, error) {
	cur := steps[seq]

	ref, pricePlaces := snap.FromPrice, st.FromPriceTruncate
	if v == venueTo {
		ref, pricePlaces = snap.ToPrice, st.ToPriceTruncate
	}
	side := cur.Leg.Side()
	price := limitPrice(ref, st.FokDiff, side == domain.OrderSideBuy, pricePlaces)

	amount, err := m.legAmount(ctx, st, steps, seq, snap)
	if err != nil {
		return ActionIdle, err
	}
	if !amount.IsPositive() || !price.IsPositive() {
		return ActionIdle, fmt.Errorf("refusing %s order with amount %s at price %s", cur.Leg, amount, price)
	}

	res, err := m.exchange.PlaceOrder(ctx, domain.OrderRequest{
		Market:   cur.Market,
		Symbol:   cur.Symbol,
		Side:     side,
		Price:    price,
		Quantity: amount,
	})
	if err != nil {
		return ActionIdle, fmt.Errorf("failed to place %s order: %w", cur.Leg, err)
	}
	m.logger.Warn("Order placed",
		zap.Int64("strategy_id", st.ID),
		zap.String("leg", string(cur.Leg)),
		zap.String("symbol", cur.Symbol),
		zap.String("price", price.String()),
		zap.String("amount", amount.String()),
		zap.String("order_id", res.OrderID),
		zap.String("status", string(res.Status)))

	if err := m.repo.UpdateStep(ctx, domain.StepUpdate{
		ID:             cur.ID,
		Status:         domain.StepPending,
		ExecutedAmount: cur.ExecutedAmount,
		OrderID:        res.OrderID,
	}); err != nil {
		return ActionIdle, fmt.Errorf("failed to store order id %s: %w", res.OrderID, err)
	}
	if err := m.repo.InsertRecord(ctx, &domain.StepExecutionRecord{
		StrategyID:     st.ID,
		StepID:         cur.ID,
		Leg:            cur.Leg,
		Market:         cur.Market,
		Symbol:         cur.Symbol,
		Price:          price,
		Amount:         amount,
		ExecutedAmount: decimal.Zero,
		OrderID:        res.OrderID,
		Status:         domain.RecordPending,
	}); err != nil {
		return ActionIdle, fmt.Errorf("failed to insert record for order %s: %w", res.OrderID, err)
	}
	return ActionOrderPlaced, nil
}

func (m *ArbitrageMachine) transfer(ctx context.Context, st domain.Strategy, steps []domain.StrategyStep, seq int) (Action, error) {
	cur := steps[seq]

	amount, err := m.legAmount(ctx, st, steps, seq, nil)
	if err != nil {
		return ActionIdle, err
	}
	if !amount.IsPositive() {
		return ActionIdle, fmt.Errorf("refusing %s of %s", cur.Leg, amount)
	}

	transferType := domain.TransferSpotToDelivery
	if cur.Leg == domain.LegTransferDeliveryToSpot {
		transferType = domain.TransferDeliveryToSpot
	}
	id, err := m.exchange.Transfer(ctx, domain.TransferRequest{Asset: st.Coin, Amount: amount, Type: transferType})
	if err != nil {
		return ActionIdle, fmt.Errorf("failed to transfer %s %s: %w", amount, st.Coin, err)
	}
	m.logger.Warn("Transfer done",
		zap.Int64("strategy_id", st.ID),
		zap.String("type", string(transferType)),
		zap.String("amount", amount.String()),
		zap.String("transfer_id", id))

	if err := m.repo.UpdateStep(ctx, domain.StepUpdate{
		ID:             cur.ID,
		Status:         domain.StepDone,
		ExecutedAmount: amount,
		OrderID:        id,
	}); err != nil {
		return ActionIdle, fmt.Errorf("failed to complete transfer step: %w", err)
	}
	if err := m.repo.InsertRecord(ctx, &domain.StepExecutionRecord{
		StrategyID:     st.ID,
		StepID:         cur.ID,
		Leg:            cur.Leg,
		Market:         cur.Market,
		Symbol:         cur.Symbol,
		Price:          decimal.Zero,
		Amount:         amount,
		ExecutedAmount: amount,
		OrderID:        id,
		Status:         domain.RecordDone,
	}); err != nil {
		return ActionIdle, fmt.Errorf("failed to insert record for transfer %s: %w", id, err)
	}
	return ActionTransferred, nil
}

// reconcile reads the outstanding order. A fill completes the step; anything else
// clears the order id so the leg is retried. Partial quantity of a killed order is not credited.
func (m *ArbitrageMachine) reconcile(ctx context.Context, st domain.Strategy, cur domain.StrategyStep) (Action, error) {
	res, err := m.exchange.GetOrder(ctx, cur.Market, cur.Symbol, cur.OrderID)
	if err != nil {
		return ActionIdle, fmt.Errorf("failed to query order %s: %w", cur.OrderID, err)
	}

	if res.Status.Filled() {
		if err := m.repo.UpdateStep(ctx, domain.StepUpdate{
			ID:             cur.ID,
			Status:         domain.StepDone,
			ExecutedAmount: res.ExecutedQty,
			OrderID:        cur.OrderID,
		}); err != nil {
			return ActionIdle, fmt.Errorf("failed to complete step %d: %w", cur.Seq, err)
		}
		if err := m.repo.UpdateRecord(ctx, domain.RecordUpdate{
			StepID:         cur.ID,
			OrderID:        cur.OrderID,
			Status:         domain.RecordDone,
			ExecutedAmount: res.ExecutedQty,
		}); err != nil {
			return ActionIdle, fmt.Errorf("failed to complete record %s: %w", cur.OrderID, err)
		}
		m.logger.Info("Order filled",
			zap.Int64("strategy_id", st.ID),
			zap.String("leg", string(cur.Leg)),
			zap.String("order_id", cur.OrderID),
			zap.String("executed", res.ExecutedQty.String()))
		return ActionFilled, nil
	}

	if err := m.repo.UpdateStep(ctx, domain.StepUpdate{
		ID:             cur.ID,
		Status:         domain.StepPending,
		ExecutedAmount: cur.ExecutedAmount,
		OrderID:        "",
	}); err != nil {
		return ActionIdle, fmt.Errorf("failed to clear order id on step %d: %w", cur.Seq, err)
	}
	if err := m.repo.UpdateRecord(ctx, domain.RecordUpdate{
		StepID:         cur.ID,
		OrderID:        cur.OrderID,
		Status:         domain.RecordExpired,
		ExecutedAmount: decimal.Zero,
	}); err != nil {
		return ActionIdle, fmt.Errorf("failed to expire record %s: %w", cur.OrderID, err)
	}
	m.logger.Info("Order not filled",
		zap.Int64("strategy_id", st.ID),
		zap.String("leg", string(cur.Leg)),
		zap.String("order_id", cur.OrderID),
		zap.String("status", string(res.Status)))
	return ActionExpired, nil
}

// legAmount sizes a leg from the target amount or the executed amounts of earlier legs.
func (m *ArbitrageMachine) legAmount(ctx context.Context, st domain.Strategy, steps []domain.StrategyStep, seq int, snap *domain.DiffRateSnapshot) (decimal.Decimal, error) {
	executed := func(i int) decimal.Decimal { return steps[i].ExecutedAmount }

	if st.Direction == domain.DirectionReverse {
		switch seq {
		case 0:
			return steps[0].TargetAmount.Truncate(st.FromAmountTruncate), nil
		case 1:
			return executed(0).Truncate(st.ToAmountTruncate), nil
		case 2:
			return executed(1).Truncate(st.ToAmountTruncate), nil
		case 3:
			return executed(0).Truncate(st.FromAmountTruncate), nil
		}
		return decimal.Zero, fmt.Errorf("no sizing rule for reverse seq %d", seq)
	}

	switch seq {
	case 0:
		return steps[0].TargetAmount.Truncate(st.FromAmountTruncate), nil
	case 1:
		return afterFee(executed(0), st.SpotFee, st.FromAmountTruncate), nil
	case 2:
		return ContractCount(executed(1), snap.ToPrice, st.ContractMultiplier)
	case 3:
		return executed(2), nil
	case 4:
		// Contracts were bought back; the coin released is the filled base quantity.
		buyBack := steps[3]
		if buyBack.OrderID == "" {
			return decimal.Zero, fmt.Errorf("delivery buy has no order id to size transfer: %w", domain.ErrMissingStep)
		}
		res, err := m.exchange.GetOrder(ctx, buyBack.Market, buyBack.Symbol, buyBack.OrderID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to query delivery buy %s: %w", buyBack.OrderID, err)
		}
		return afterFee(res.CumBase, st.DeliveryFee, st.ToAmountTruncate), nil
	case 5:
		return executed(4).Truncate(st.FromAmountTruncate), nil
	}
	return decimal.Zero, fmt.Errorf("no sizing rule for positive seq %d", seq)
}

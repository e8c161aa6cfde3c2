package service

import (
	"context"
	"errors"
	"time"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/internal/repository"
	"tslaglobal/backend/internal/util"
	"tslaglobal/backend/pkg/logger"
	"tslaglobal/backend/pkg/redis"

	"github.com/shopspring/decimal"
)

// OrderService places simulated orders against the trading wallet and
// settles them when the market crosses their price
type OrderService struct {
	orderRepo          *repository.OrderRepository
	txRepo             *repository.TransactionRepository
	locker             *AccountLocker
	prices             PriceSource
	notifier           *NotificationService
	referralCommission decimal.Decimal
	log                *logger.Logger
}

func NewOrderService(
	orderRepo *repository.OrderRepository,
	txRepo *repository.TransactionRepository,
	locker *AccountLocker,
	prices PriceSource,
	notifier *NotificationService,
	referralCommission decimal.Decimal,
) *OrderService {
	if referralCommission.IsZero() {
		referralCommission = util.ReferralCommissionRate
	}
	return &OrderService{
		orderRepo:          orderRepo,
		txRepo:             txRepo,
		locker:             locker,
		prices:             prices,
		notifier:           notifier,
		referralCommission: referralCommission,
		log:                logger.GetLogger().WithComponent("orders"),
	}
}

// PlaceOrder validates the request, freezes the funds it needs and stores an
// OPEN order. MARKET orders settle before returning.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, req *model.PlaceOrderRequest) (*model.Order, error) {
	symbol := util.NormalizeSymbol(req.Symbol)
	if symbol == model.QuoteSymbol {
		return nil, util.ErrValidation("Cannot trade " + model.QuoteSymbol + " against itself")
	}

	marketPrice, listed := s.prices.PriceOf(symbol)
	if !listed {
		return nil, util.ErrValidation("Symbol " + symbol + " is not listed")
	}

	priceType := req.PriceType
	if priceType == "" {
		priceType = model.PriceLimit
	}
	tradeType := req.TradeType
	if tradeType == "" {
		tradeType = model.TradeSpot
	}
	leverage := req.Leverage
	if leverage == 0 {
		leverage = 1
	}
	if leverage < 1 || leverage > util.MaxLeverage {
		return nil, util.ErrValidation("leverage must be between 1 and 125")
	}

	if err := util.RequirePositive("amount", req.Amount); err != nil {
		return nil, err
	}

	price := req.Price
	switch priceType {
	case model.PriceMarket:
		if !marketPrice.IsPositive() {
			return nil, util.NewAppError(503, util.ErrCodeMarketUnavailable, "No market price for "+symbol)
		}
		price = marketPrice
	case model.PriceStop:
		if err := util.RequirePositive("trigger_price", req.TriggerPrice); err != nil {
			return nil, err
		}
		fallthrough
	default:
		if err := util.RequirePositive("price", price); err != nil {
			return nil, err
		}
	}

	amount := util.RoundAmount(req.Amount)
	order := &model.Order{
		Symbol:       symbol,
		Side:         req.Side,
		TradeType:    tradeType,
		PriceType:    priceType,
		Price:        price,
		TriggerPrice: req.TriggerPrice,
		Amount:       amount,
		Total:        util.RoundAmount(price.Mul(amount)),
		Fee:          decimal.Zero,
		Leverage:     leverage,
		Status:       model.OrderOpen,
		UserID:       userID,
		CreatedAt:    time.Now(),
	}
	if !order.Total.IsPositive() {
		return nil, util.ErrValidation("Order total is too small")
	}
	if err := s.orderRepo.AssignID(ctx, order); err != nil {
		return nil, util.Internal("Failed to allocate order id", err)
	}

	user, err := s.locker.MutateWith(ctx, userID, func(user *model.User, pipe redis.Pipeliner) error {
		if err := requireActive(user); err != nil {
			return err
		}
		asset, hold := order.FrozenAsset()
		if err := user.TradingWallet.Freeze(asset, hold); err != nil {
			return balanceError(err, asset+" in trading wallet")
		}
		if err := s.orderRepo.StageCreate(ctx, pipe, order); err != nil {
			return util.Internal("Failed to save order", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Order %d placed: %s %s %s %s @ %s", order.ID, order.Side, order.Amount, order.Symbol, order.PriceType, order.Price)
	s.notifier.NotifyBalance(ctx, user)
	s.notifier.NotifyOrderUpdate(ctx, order)

	if priceType == model.PriceMarket {
		filled, err := s.Fill(ctx, order.ID, marketPrice)
		if err != nil {
			return nil, err
		}
		if filled != nil {
			return filled, nil
		}
	}
	return order, nil
}

// CancelOrder cancels an OPEN order of userID and releases its frozen funds
func (s *OrderService) CancelOrder(ctx context.Context, userID string, orderID int64) (*model.Order, error) {
	order, err := s.getOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	user, err := s.locker.MutateWith(ctx, userID, func(user *model.User, pipe redis.Pipeliner) error {
		if err := requireActive(user); err != nil {
			return err
		}
		current, err := s.orderRepo.GetByID(ctx, orderID)
		if err != nil {
			return util.Internal("Failed to load order", err)
		}
		if !current.IsOpen() {
			return util.ErrConflict("Only open orders can be cancelled")
		}

		asset, hold := current.FrozenAsset()
		user.TradingWallet.Unfreeze(asset, hold)

		now := time.Now()
		current.Status = model.OrderCancelled
		current.CancelledAt = &now
		if err := s.orderRepo.StageUpdate(ctx, pipe, current, model.OrderOpen); err != nil {
			return util.Internal("Failed to update order", err)
		}

		// the ledger shows what went back to the wallet: quote for a buy,
		// base for a sell
		tx := newTransaction(user.ID, model.TxOrderCancel, asset, hold, model.TxCompleted)
		tx.Price = current.Price
		tx.OrderID = current.ID
		tx.Account = model.AccountTrading
		if err := s.txRepo.StageCreate(ctx, pipe, tx); err != nil {
			return util.Internal("Failed to record cancellation", err)
		}
		order = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyBalance(ctx, user)
	s.notifier.NotifyOrderUpdate(ctx, order)
	return order, nil
}

func (s *OrderService) getOwned(ctx context.Context, userID string, orderID int64) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, util.NewAppError(404, util.ErrCodeOrderNotFound, "Order not found")
		}
		return nil, util.Internal("Failed to load order", err)
	}
	// other users' orders look the same as missing ones
	if order.UserID != userID {
		return nil, util.NewAppError(404, util.ErrCodeOrderNotFound, "Order not found")
	}
	return order, nil
}

// GetOrder returns one of the user's orders
func (s *OrderService) GetOrder(ctx context.Context, userID string, orderID int64) (*model.Order, error) {
	return s.getOwned(ctx, userID, orderID)
}

// ListOrders returns the user's orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, userID string, filter model.OrderFilter) ([]*model.Order, int64, error) {
	orders, total, err := s.orderRepo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, 0, util.Internal("Failed to list orders", err)
	}
	return orders, total, nil
}

// FillOpenOrders settles every OPEN order whose condition the current market
// price satisfies. It returns the number of filled orders.
func (s *OrderService) FillOpenOrders(ctx context.Context) (int, error) {
	orders, err := s.orderRepo.ListByStatus(ctx, model.OrderOpen)
	if err != nil {
		return 0, err
	}

	filled := 0
	for _, o := range orders {
		if ctx.Err() != nil {
			return filled, ctx.Err()
		}
		market, ok := s.prices.PriceOf(o.Symbol)
		if !ok || !o.ShouldFill(market) {
			continue
		}
		got, err := s.Fill(ctx, o.ID, market)
		if err != nil {
			s.log.Warnf("Failed to fill order %d: %v", o.ID, err)
			continue
		}
		if got != nil {
			filled++
		}
	}
	return filled, nil
}

// Fill settles one order at its own price if it is still open and the market
// price satisfies it. A nil order means nothing was filled.
func (s *OrderService) Fill(ctx context.Context, orderID int64, market decimal.Decimal) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, util.Internal("Failed to load order", err)
	}

	var (
		filled   *model.Order
		feeValue decimal.Decimal
	)
	user, err := s.locker.MutateWith(ctx, order.UserID, func(user *model.User, pipe redis.Pipeliner) error {
		current, err := s.orderRepo.GetByID(ctx, orderID)
		if err != nil {
			return util.Internal("Failed to load order", err)
		}
		if !current.ShouldFill(market) {
			return nil
		}

		feeRate := user.FeeRate
		if feeRate.IsNegative() || feeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			feeRate = util.DefaultFeeRate
		}
		keep := decimal.NewFromInt(1).Sub(feeRate)
		feeValue = util.RoundAmount(current.Total.Mul(feeRate))

		asset, hold := current.FrozenAsset()
		txType, creditAsset, credit := model.TxTradeBuy, current.Symbol, util.FloorAmount(current.Amount.Mul(keep))
		if current.Side == model.SideSell {
			txType, creditAsset, credit = model.TxTradeSell, model.QuoteSymbol, util.FloorAmount(current.Total.Mul(keep))
		}
		if err := user.TradingWallet.SpendFrozen(asset, hold); err != nil {
			s.log.Errorf("Order %d of %s has no frozen %s %s to settle", current.ID, user.ID, hold, asset)
			return util.Internal("Order funds are not held", err)
		}
		user.TradingWallet.Credit(creditAsset, credit)

		now := time.Now()
		current.Status = model.OrderFilled
		current.Fee = feeValue
		current.FilledAt = &now
		if err := s.orderRepo.StageUpdate(ctx, pipe, current, model.OrderOpen); err != nil {
			return util.Internal("Failed to update order", err)
		}

		tx := newTransaction(user.ID, txType, current.Symbol, current.Amount, model.TxCompleted)
		tx.Price = current.Price
		tx.OrderID = current.ID
		tx.Account = model.AccountTrading
		if err := s.txRepo.StageCreate(ctx, pipe, tx); err != nil {
			return util.Internal("Failed to record trade", err)
		}

		filled = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	if filled == nil {
		return nil, nil
	}

	s.log.Infof("Order %d filled at %s (fee %s USDT)", filled.ID, filled.Price, feeValue)
	s.notifier.NotifyBalance(ctx, user)
	s.notifier.NotifyOrderUpdate(ctx, filled)
	s.notifier.Toast(ctx, user.ID, model.NotifySuccess, string(filled.Side)+" "+filled.Amount.String()+" "+filled.Symbol+" filled")

	if user.ReferredBy != "" && feeValue.IsPositive() {
		s.payCommission(ctx, user.ReferredBy, user.ID, filled, feeValue)
	}
	return filled, nil
}

// payCommission credits the inviter's share of a trading fee
func (s *OrderService) payCommission(ctx context.Context, inviterID, refereeID string, order *model.Order, feeValue decimal.Decimal) {
	commission := util.FloorAmount(feeValue.Mul(s.referralCommission))
	if !commission.IsPositive() {
		return
	}

	inviter, err := s.locker.MutateWith(ctx, inviterID, func(u *model.User, pipe redis.Pipeliner) error {
		u.FundingWallet.Credit(model.QuoteSymbol, commission)
		u.ReferralEarnings = u.ReferralEarnings.Add(commission)

		tx := newTransaction(u.ID, model.TxReferral, model.QuoteSymbol, commission, model.TxCompleted)
		tx.OrderID = order.ID
		tx.Account = model.AccountFunding
		tx.Note = "commission from " + refereeID
		return s.txRepo.StageCreate(ctx, pipe, tx)
	})
	if err != nil {
		s.log.Warnf("Failed to pay referral commission to %s for order %d: %v", inviterID, order.ID, err)
		return
	}
	s.notifier.NotifyBalance(ctx, inviter)
}

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

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceSource resolves the current USD price of a listed asset
type PriceSource interface {
	PriceOf(symbol string) (decimal.Decimal, bool)
}

// WalletService moves funds between users' wallets and the outside world
type WalletService struct {
	locker   *AccountLocker
	txRepo   *repository.TransactionRepository
	tokens   *TokenService
	prices   PriceSource
	notifier *NotificationService
	log      *logger.Logger
}

func NewWalletService(
	locker *AccountLocker,
	txRepo *repository.TransactionRepository,
	tokens *TokenService,
	prices PriceSource,
	notifier *NotificationService,
) *WalletService {
	return &WalletService{
		locker:   locker,
		txRepo:   txRepo,
		tokens:   tokens,
		prices:   prices,
		notifier: notifier,
		log:      logger.GetLogger().WithComponent("wallet"),
	}
}

func newTransaction(userID string, txType model.TransactionType, symbol string, amount decimal.Decimal, status model.TransactionStatus) *model.Transaction {
	return &model.Transaction{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      txType,
		Symbol:    util.NormalizeSymbol(symbol),
		Amount:    amount,
		Status:    status,
		CreatedAt: time.Now(),
	}
}

// Deposit records a deposit claim. Funds arrive once an admin approves it.
func (s *WalletService) Deposit(ctx context.Context, userID string, req *model.DepositRequest) (*model.Transaction, error) {
	if err := util.RequirePositive("amount", req.Amount); err != nil {
		return nil, err
	}

	var tx *model.Transaction
	err := s.locker.WithUser(ctx, userID, func(user *model.User) error {
		if err := requireActive(user); err != nil {
			return err
		}
		tx = newTransaction(user.ID, model.TxDeposit, req.Symbol, util.RoundAmount(req.Amount), model.TxPending)
		tx.Account = model.AccountFunding
		if err := s.txRepo.Create(ctx, tx); err != nil {
			return util.Internal("Failed to record deposit", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Toast(ctx, userID, model.NotifyInfo, "Deposit submitted, awaiting confirmation")
	return tx, nil
}

// Withdraw debits the funding wallet immediately and records a PENDING
// withdrawal. A rejected withdrawal is refunded.
func (s *WalletService) Withdraw(ctx context.Context, userID string, req *model.WithdrawRequest) (*model.Transaction, error) {
	if err := util.RequirePositive("amount", req.Amount); err != nil {
		return nil, err
	}
	symbol := util.NormalizeSymbol(req.Symbol)
	amount := util.RoundAmount(req.Amount)

	if token, err := s.tokens.Get(ctx, symbol); err == nil && token.MinWithdraw.IsPositive() {
		if amount.LessThan(token.MinWithdraw) {
			return nil, util.ErrValidation("Minimum withdrawal for " + symbol + " is " + token.MinWithdraw.String())
		}
	}

	var tx *model.Transaction
	user, err := s.locker.MutateWith(ctx, userID, func(user *model.User, pipe redis.Pipeliner) error {
		if err := requireActive(user); err != nil {
			return err
		}
		if err := user.FundingWallet.Debit(symbol, amount); err != nil {
			return balanceError(err, symbol)
		}
		tx = newTransaction(user.ID, model.TxWithdraw, symbol, amount, model.TxPending)
		tx.Account = model.AccountFunding
		tx.Address = req.Address
		return s.txRepo.StageCreate(ctx, pipe, tx)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyBalance(ctx, user)
	s.notifier.Toast(ctx, userID, model.NotifyInfo, "Withdrawal submitted for review")
	return tx, nil
}

// Transfer moves funds between the funding and trading wallets
func (s *WalletService) Transfer(ctx context.Context, userID string, req *model.TransferRequest) (*model.Transaction, error) {
	if err := util.RequirePositive("amount", req.Amount); err != nil {
		return nil, err
	}
	if !req.From.Valid() || !req.To.Valid() {
		return nil, util.ErrValidation("from and to must be FUNDING or TRADING")
	}
	if req.From == req.To {
		return nil, util.ErrValidation("from and to accounts must differ")
	}
	symbol := util.NormalizeSymbol(req.Symbol)
	amount := util.RoundAmount(req.Amount)

	var tx *model.Transaction
	user, err := s.locker.MutateWith(ctx, userID, func(user *model.User, pipe redis.Pipeliner) error {
		if err := requireActive(user); err != nil {
			return err
		}
		if err := user.Wallet(req.From).Debit(symbol, amount); err != nil {
			return balanceError(err, symbol)
		}
		user.Wallet(req.To).Credit(symbol, amount)

		tx = newTransaction(user.ID, model.TxTransfer, symbol, amount, model.TxCompleted)
		tx.Account = req.From
		tx.ToAccount = req.To
		return s.txRepo.StageCreate(ctx, pipe, tx)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyBalance(ctx, user)
	return tx, nil
}

// Overview returns the user's wallets valued in USDT at current prices
func (s *WalletService) Overview(ctx context.Context, user *model.User) *model.WalletOverview {
	funding := user.FundingWallet.Normalized()
	trading := user.TradingWallet.Normalized()
	fundingValue := s.value(funding)
	tradingValue := s.value(trading)

	return &model.WalletOverview{
		FundingWallet:  funding,
		TradingWallet:  trading,
		FundingValue:   fundingValue,
		TradingValue:   tradingValue,
		TotalValueUSDT: fundingValue.Add(tradingValue),
	}
}

func (s *WalletService) value(w model.Wallet) decimal.Decimal {
	total := decimal.Zero
	for _, line := range w {
		held := line.Amount.Add(line.Frozen)
		if held.IsZero() {
			continue
		}
		if line.Symbol == model.QuoteSymbol {
			total = total.Add(held)
			continue
		}
		if price, ok := s.prices.PriceOf(line.Symbol); ok {
			total = total.Add(held.Mul(price))
		}
	}
	return total.Round(2)
}

// ListTransactions returns the user's ledger, newest first
func (s *WalletService) ListTransactions(ctx context.Context, userID string, filter model.TransactionFilter) ([]*model.Transaction, int64, error) {
	txs, total, err := s.txRepo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, 0, util.Internal("Failed to list transactions", err)
	}
	return txs, total, nil
}

// ListPending returns pending deposits or withdrawals for review
func (s *WalletService) ListPending(ctx context.Context, txType model.TransactionType) ([]*model.Transaction, error) {
	txs, err := s.txRepo.ListPending(ctx, txType)
	if err != nil {
		return nil, util.Internal("Failed to list pending transactions", err)
	}
	return txs, nil
}

// ApproveDeposit credits the deposit to the funding wallet
func (s *WalletService) ApproveDeposit(ctx context.Context, txID string) (*model.Transaction, error) {
	return s.settle(ctx, txID, model.TxDeposit, func(user *model.User, tx *model.Transaction) {
		user.FundingWallet.Credit(tx.Symbol, tx.Amount)
		tx.Status = model.TxCompleted
	})
}

// RejectDeposit marks the deposit failed, no funds move
func (s *WalletService) RejectDeposit(ctx context.Context, txID string) (*model.Transaction, error) {
	return s.settle(ctx, txID, model.TxDeposit, func(_ *model.User, tx *model.Transaction) {
		tx.Status = model.TxFailed
	})
}

// ApproveWithdrawal completes a withdrawal whose funds were already debited
func (s *WalletService) ApproveWithdrawal(ctx context.Context, txID string) (*model.Transaction, error) {
	return s.settle(ctx, txID, model.TxWithdraw, func(_ *model.User, tx *model.Transaction) {
		tx.Status = model.TxCompleted
	})
}

// RejectWithdrawal refunds the debited amount to the funding wallet
func (s *WalletService) RejectWithdrawal(ctx context.Context, txID string) (*model.Transaction, error) {
	return s.settle(ctx, txID, model.TxWithdraw, func(user *model.User, tx *model.Transaction) {
		user.FundingWallet.Credit(tx.Symbol, tx.Amount)
		tx.Status = model.TxFailed
	})
}

func (s *WalletService) settle(ctx context.Context, txID string, txType model.TransactionType, apply func(*model.User, *model.Transaction)) (*model.Transaction, error) {
	tx, err := s.txRepo.GetByID(ctx, txID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, util.ErrNotFound("Transaction not found")
		}
		return nil, util.Internal("Failed to load transaction", err)
	}
	if tx.Type != txType {
		return nil, util.ErrBadRequest("Transaction is not a " + string(txType))
	}

	user, err := s.locker.MutateWith(ctx, tx.UserID, func(user *model.User, pipe redis.Pipeliner) error {
		// reload under the lock so two admins cannot settle the same request
		current, err := s.txRepo.GetByID(ctx, txID)
		if err != nil {
			return util.Internal("Failed to load transaction", err)
		}
		if current.Status != model.TxPending {
			return util.ErrConflict("Transaction is already " + string(current.Status))
		}
		apply(user, current)
		if err := s.txRepo.StageUpdate(ctx, pipe, current); err != nil {
			return util.Internal("Failed to update transaction", err)
		}
		tx = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	level, verb := model.NotifySuccess, "approved"
	if tx.Status == model.TxFailed {
		level, verb = model.NotifyError, "rejected"
	}
	s.notifier.NotifyBalance(ctx, user)
	s.notifier.Toast(ctx, user.ID, level, string(tx.Type)+" of "+tx.Amount.String()+" "+tx.Symbol+" "+verb)

	s.log.Infof("Transaction %s %s for user %s", tx.ID, verb, user.ID)
	return tx, nil
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxDeposit     TransactionType = "DEPOSIT"
	TxWithdraw    TransactionType = "WITHDRAW"
	TxTransfer    TransactionType = "TRANSFER"
	TxTradeBuy    TransactionType = "TRADE_BUY"
	TxTradeSell   TransactionType = "TRADE_SELL"
	TxMining      TransactionType = "MINING"
	TxAdminAdjust TransactionType = "ADMIN_ADJUST"
	TxRigPurchase TransactionType = "RIG_PURCHASE"
	TxOrderCancel TransactionType = "ORDER_CANCEL"
	TxAirdrop     TransactionType = "AIRDROP"
	TxReferral    TransactionType = "REFERRAL"
)

type TransactionStatus string

const (
	TxCompleted TransactionStatus = "COMPLETED"
	TxPending   TransactionStatus = "PENDING"
	TxFailed    TransactionStatus = "FAILED"
)

// Transaction is one ledger record of a user
type Transaction struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Type      TransactionType   `json:"type"`
	Symbol    string            `json:"symbol"`
	Amount    decimal.Decimal   `json:"amount"`
	Price     decimal.Decimal   `json:"price"`
	Account   AccountType       `json:"account,omitempty"`
	ToAccount AccountType       `json:"to_account,omitempty"`
	Address   string            `json:"address,omitempty"`
	OrderID   int64             `json:"order_id,omitempty"`
	Note      string            `json:"note,omitempty"`
	Status    TransactionStatus `json:"status"`
	CreatedAt time.Time         `json:"date"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type DepositRequest struct {
	Symbol string          `json:"symbol" binding:"required,alphanum,max=16"`
	Amount decimal.Decimal `json:"amount"`
}

type WithdrawRequest struct {
	Symbol  string          `json:"symbol" binding:"required,alphanum,max=16"`
	Amount  decimal.Decimal `json:"amount"`
	Address string          `json:"address" binding:"required,max=128"`
}

type TransferRequest struct {
	Symbol string          `json:"symbol" binding:"required,alphanum,max=16"`
	Amount decimal.Decimal `json:"amount"`
	From   AccountType     `json:"from" binding:"required,oneof=FUNDING TRADING"`
	To     AccountType     `json:"to" binding:"required,oneof=FUNDING TRADING"`
}

// TransactionFilter narrows transaction listings
type TransactionFilter struct {
	Type   TransactionType
	Limit  int
	Offset int
}

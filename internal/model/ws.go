package model

// WSMessageType represents the type of WebSocket message
type WSMessageType string

const (
	MessageTypeNotification   WSMessageType = "notification"
	MessageTypeMarketUpdate   WSMessageType = "market_update"
	MessageTypeOrderUpdate    WSMessageType = "order_update"
	MessageTypeBalanceUpdate  WSMessageType = "balance_update"
	MessageTypeChatMessage    WSMessageType = "chat_message"
	MessageTypeSettingsUpdate WSMessageType = "settings_update"
	MessageTypeMiningUpdate   WSMessageType = "mining_update"
)

// WSMessage is the envelope for all WebSocket messages
type WSMessage struct {
	Type    WSMessageType `json:"type"`
	Payload interface{}   `json:"payload"`
}

type NotificationLevel string

const (
	NotifySuccess NotificationLevel = "success"
	NotifyError   NotificationLevel = "error"
	NotifyInfo    NotificationLevel = "info"
)

// NotificationPayload is a toast shown to the user
type NotificationPayload struct {
	Level   NotificationLevel `json:"level"`
	Message string            `json:"message"`
}

// BalancePayload carries a user's wallets after a mutation
type BalancePayload struct {
	FundingWallet Wallet `json:"funding_wallet"`
	TradingWallet Wallet `json:"trading_wallet"`
}

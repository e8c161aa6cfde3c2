package redis

import (
	"fmt"
	"strings"
)

// Key patterns follow entity:id or entity:id:attribute. Every key and channel
// is namespaced with a prefix set once at startup.

var keyPrefix = "tsla"

// InitKeys sets the namespace prefix for every key
func InitKeys(prefix string) {
	keyPrefix = strings.TrimSuffix(prefix, ":")
}

// Prefix returns the active namespace prefix
func Prefix() string {
	return keyPrefix
}

func key(format string, args ...interface{}) string {
	if keyPrefix == "" {
		return fmt.Sprintf(format, args...)
	}
	return keyPrefix + ":" + fmt.Sprintf(format, args...)
}

// User keys

func UserKey(userID string) string {
	return key("user:%s", userID)
}

func UserByEmailKey(email string) string {
	return key("user:email:%s", strings.ToLower(email))
}

func UserByInviteCodeKey(code string) string {
	return key("user:invite:%s", strings.ToUpper(code))
}

// UsersIndexKey is a sorted set of user ids scored by registration time
func UsersIndexKey() string {
	return key("users:index")
}

func VerificationCodeKey(email string) string {
	return key("verify_code:%s", strings.ToLower(email))
}

// Session keys

func SessionKey(sessionID string) string {
	return key("session:%s", sessionID)
}

func UserSessionsKey(userID string) string {
	return key("user_sessions:%s", userID)
}

func TokenBlacklistKey(token string) string {
	return key("token_blacklist:%s", token)
}

// UserLockKey guards every wallet mutation of one user
func UserLockKey(userID string) string {
	return key("lock:user:%s", userID)
}

// Order keys

func OrderKey(orderID string) string {
	return key("order:%s", orderID)
}

func UserOrdersKey(userID string) string {
	return key("user_orders:%s", userID)
}

func OrdersByStatusKey(status string) string {
	return key("orders_by_status:%s", status)
}

// OrderSequenceKey is the counter behind numeric order ids
func OrderSequenceKey() string {
	return key("sequences:order_id")
}

// Transaction keys

func TransactionKey(txID string) string {
	return key("tx:%s", txID)
}

func UserTransactionsKey(userID string) string {
	return key("user_txs:%s", userID)
}

// PendingTransactionsKey indexes PENDING transactions of one type
func PendingTransactionsKey(txType string) string {
	return key("txs_pending:%s", txType)
}

// Custom token keys

func CustomTokenKey(symbol string) string {
	return key("token:%s", strings.ToUpper(symbol))
}

// CustomTokensIndexKey is a sorted set of symbols scored by creation time
func CustomTokensIndexKey() string {
	return key("tokens:index")
}

// Mining keys

func MiningRigsKey() string {
	return key("mining:rigs")
}

func ActiveMinersKey() string {
	return key("mining:active")
}

func BoostCooldownKey(userID string) string {
	return key("mining:boost:%s", userID)
}

func AirdropClaimKey(userID string) string {
	return key("airdrop:claimed:%s", userID)
}

// Content keys

func NewsKey() string {
	return key("content:news")
}

func SystemSettingsKey() string {
	return key("content:settings")
}

func ChatKey() string {
	return key("content:chat")
}

// Market keys

func MarketSnapshotKey() string {
	return key("market:snapshot")
}

// Rate limiting keys

func RateLimitKey(identifier, action string) string {
	return key("rate_limit:%s:%s", action, identifier)
}

// Pub/Sub channels

func WSBroadcastChannel() string {
	return key("channel:ws:broadcast")
}

// WSUserChannel returns the channel for one user, "*" yields the pattern
func WSUserChannel(userID string) string {
	return key("channel:ws:user:%s", userID)
}

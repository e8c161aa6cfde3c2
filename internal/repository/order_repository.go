package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/pkg/redis"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderRepository struct {
	redis *redis.Client
}

func NewOrderRepository(redisClient *redis.Client) *OrderRepository {
	return &OrderRepository{
		redis: redisClient,
	}
}

// Create assigns the next order id and stores the order with its indices
func (r *OrderRepository) Create(ctx context.Context, order *model.Order) error {
	if err := r.AssignID(ctx, order); err != nil {
		return err
	}
	pipe := r.redis.TxPipeline()
	if err := r.StageCreate(ctx, pipe, order); err != nil {
		return err
	}
	_, err := pipe.Exec(ctx)
	return err
}

// AssignID takes the next id from the sequence unless order already has one.
// An id burned by a failed write is never reused.
func (r *OrderRepository) AssignID(ctx context.Context, order *model.Order) error {
	if order.ID != 0 {
		return nil
	}
	id, err := r.redis.Incr(ctx, redis.OrderSequenceKey())
	if err != nil {
		return err
	}
	order.ID = id
	return nil
}

// StageCreate queues the order document and its user and status indices on
// pipe. The order must already carry an id.
func (r *OrderRepository) StageCreate(ctx context.Context, pipe redis.Pipeliner, order *model.Order) error {
	if order.ID == 0 {
		return errors.New("order has no id")
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	order.UpdatedAt = order.CreatedAt

	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	idStr := strconv.FormatInt(order.ID, 10)
	pipe.Set(ctx, redis.OrderKey(idStr), data, 0)
	// newest-first listing per user
	pipe.ZAdd(ctx, redis.UserOrdersKey(order.UserID), redis.Z{
		Score:  float64(order.CreatedAt.UnixMilli()),
		Member: idStr,
	})
	pipe.SAdd(ctx, redis.OrdersByStatusKey(string(order.Status)), idStr)
	return nil
}

// GetByID retrieves an order by ID
func (r *OrderRepository) GetByID(ctx context.Context, orderID int64) (*model.Order, error) {
	var order model.Order
	if err := r.redis.GetJSON(ctx, redis.OrderKey(strconv.FormatInt(orderID, 10)), &order); err != nil {
		if err == redis.Nil {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// Update stores the order and moves it between status indices when needed
func (r *OrderRepository) Update(ctx context.Context, order *model.Order, oldStatus model.OrderStatus) error {
	pipe := r.redis.TxPipeline()
	if err := r.StageUpdate(ctx, pipe, order, oldStatus); err != nil {
		return err
	}
	_, err := pipe.Exec(ctx)
	return err
}

// StageUpdate queues the order write and its status index move on pipe
func (r *OrderRepository) StageUpdate(ctx context.Context, pipe redis.Pipeliner, order *model.Order, oldStatus model.OrderStatus) error {
	order.UpdatedAt = time.Now()
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	idStr := strconv.FormatInt(order.ID, 10)
	pipe.Set(ctx, redis.OrderKey(idStr), data, 0)
	if oldStatus != order.Status {
		pipe.SRem(ctx, redis.OrdersByStatusKey(string(oldStatus)), idStr)
		pipe.SAdd(ctx, redis.OrdersByStatusKey(string(order.Status)), idStr)
	}
	return nil
}

// ListByUser returns a user's orders newest first, optionally filtered by status
func (r *OrderRepository) ListByUser(ctx context.Context, userID string, filter model.OrderFilter) ([]*model.Order, int64, error) {
	ids, err := r.redis.ZRevRange(ctx, redis.UserOrdersKey(userID), 0, -1)
	if err != nil {
		return nil, 0, err
	}

	orders, err := r.getMany(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	if filter.Status != "" {
		filtered := orders[:0]
		for _, o := range orders {
			if o.Status == filter.Status {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}

	total := int64(len(orders))
	return paginate(orders, filter.Limit, filter.Offset), total, nil
}

// ListByStatus returns every order currently in status
func (r *OrderRepository) ListByStatus(ctx context.Context, status model.OrderStatus) ([]*model.Order, error) {
	ids, err := r.redis.SMembers(ctx, redis.OrdersByStatusKey(string(status)))
	if err != nil {
		return nil, err
	}
	return r.getMany(ctx, ids)
}

// DeleteByUser removes every order of a user
func (r *OrderRepository) DeleteByUser(ctx context.Context, userID string) error {
	ids, err := r.redis.ZRevRange(ctx, redis.UserOrdersKey(userID), 0, -1)
	if err != nil {
		return err
	}

	pipe := r.redis.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, redis.OrderKey(id))
		for _, s := range []model.OrderStatus{model.OrderOpen, model.OrderFilled, model.OrderCancelled} {
			pipe.SRem(ctx, redis.OrdersByStatusKey(string(s)), id)
		}
	}
	pipe.Del(ctx, redis.UserOrdersKey(userID))
	_, err = pipe.Exec(ctx)
	return err
}

func (r *OrderRepository) getMany(ctx context.Context, ids []string) ([]*model.Order, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redis.OrderKey(id)
	}

	orders := make([]*model.Order, 0, len(ids))
	err := r.redis.MGetJSON(ctx, keys,
		func() interface{} { return &model.Order{} },
		func(v interface{}) { orders = append(orders, v.(*model.Order)) },
	)
	return orders, err
}

// paginate slices items by limit/offset, limit <= 0 means no limit
func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

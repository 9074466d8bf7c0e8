package base

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type txKey struct{}

func txFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}

// TxManager открывает транзакцию и кладёт её в контекст, чтобы
// репозитории внутри fn работали в ней через Repository.Conn
type TxManager struct {
	pool       *pgxpool.Pool
	opts       pgx.TxOptions
	maxRetries int
	baseDelay  time.Duration
}

// NewTxManager создаёт менеджер транзакций с уровнем READ COMMITTED.
// Сериализация конкурентных броней обеспечивается advisory lock внутри
// транзакции, поэтому повторы нужны только для дедлоков.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{
		pool:       pool,
		opts:       pgx.TxOptions{IsoLevel: pgx.ReadCommitted},
		maxRetries: 5,
		baseDelay:  20 * time.Millisecond,
	}
}

// WithinTx выполняет fn в транзакции. Ошибка fn откатывает транзакцию.
// Ошибки сериализации и дедлоки повторяются с растущей задержкой.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFromContext(ctx); ok {
		// Уже внутри транзакции
		return fn(ctx)
	}

	var err error
	for attempt := 0; attempt < m.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt*attempt)*m.baseDelay +
				time.Duration(rand.Intn(50))*time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err = m.runOnce(ctx, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
	}

	return fmt.Errorf("transaction retries exhausted: %w", err)
}

func (m *TxManager) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.pool.BeginTx(ctx, m.opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// После Commit откат ничего не делает
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

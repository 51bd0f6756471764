// Package counter описывает единственный счётчик "присоединившихся" посетителей.
package counter

import (
	"context"
	"time"
)

// Значения по умолчанию для счётчика.
const (
	// DefaultReadSeed - начальное значение, если счётчик создан при чтении.
	DefaultReadSeed int64 = 370

	// DefaultIncrementSeed - начальное значение, если счётчик создан первым
	// инкрементом: сам вызов уже считается первым присоединением.
	DefaultIncrementSeed int64 = 371
)

// Counter - сохраняемое состояние счётчика.
type Counter struct {
	TotalJoined int64     `json:"totalJoined"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Store - хранилище для одного документа счётчика.
// Add обязан быть атомарным на стороне хранилища (UPDATE ... RETURNING,
// $inc с upsert и т.п.), иначе параллельные инкременты теряются.
type Store interface {
	// Find возвращает счётчик или shared.ErrCounterNotFound.
	Find(ctx context.Context) (*Counter, error)

	// FindOrCreate возвращает счётчик, создавая его со значением seed.
	FindOrCreate(ctx context.Context, seed int64, now time.Time) (*Counter, error)

	// Add прибавляет delta к существующему счётчику или создаёт его
	// со значением initial. lastUpdated выставляется в now.
	Add(ctx context.Context, delta, initial int64, now time.Time) (*Counter, error)
}

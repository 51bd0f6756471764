package leaderboard

import (
	"context"
	"sort"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет контракт хранилища лидербордов.
// Реализации находятся в infrastructure слое (PostgreSQL, MongoDB, memory).
type Repository interface {
	// Create сохраняет новую запись и проставляет ей ID.
	Create(ctx context.Context, lb *Leaderboard) error

	// Update перезаписывает запись целиком.
	// Возвращает shared.ErrLeaderboardNotFound, если записи нет.
	Update(ctx context.Context, lb *Leaderboard) error

	// Delete удаляет запись по ID.
	Delete(ctx context.Context, id string) error

	// FindByID возвращает запись по ID.
	FindByID(ctx context.Context, id string) (*Leaderboard, error)

	// List возвращает записи по фильтру в порядке показа (см. SortForDisplay).
	List(ctx context.Context, filter Filter) ([]*Leaderboard, error)

	// NextOrder возвращает max(order)+1, либо 0 для пустой коллекции.
	NextOrder(ctx context.Context) (int, error)
}

// Filter ограничивает выборку List.
type Filter struct {
	// ActiveOnly оставляет только active = true.
	ActiveOnly bool

	// EndingNotBefore оставляет записи с endDate >= значения. Нулевое время - без фильтра.
	EndingNotBefore time.Time
}

// Matches применяет фильтр к одной записи.
func (f Filter) Matches(lb *Leaderboard) bool {
	if f.ActiveOnly && !lb.Active {
		return false
	}
	if !f.EndingNotBefore.IsZero() && lb.EndDate.Before(f.EndingNotBefore) {
		return false
	}
	return true
}

// SortForDisplay сортирует по order по возрастанию, затем по createdAt по убыванию.
func SortForDisplay(items []*Leaderboard) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

package bonus

import "context"

// Repository определяет контракт хранилища бонусов.
type Repository interface {
	Create(ctx context.Context, b *Bonus) error
	Update(ctx context.Context, b *Bonus) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Bonus, error)

	// List возвращает бонусы в порядке показа.
	// active == nil - без фильтра.
	List(ctx context.Context, active *bool) ([]*Bonus, error)

	// NextOrder возвращает max(order)+1, либо 0 для пустой коллекции.
	NextOrder(ctx context.Context) (int, error)
}

// Package bonus содержит доменную модель промо-бонуса: карточка казино/партнёра
// с промокодом и шагами получения, которую показывает публичный сайт.
package bonus

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/eldoah/promo-hub/internal/domain/shared"
)

// Bonus - промо-предложение партнёра.
type Bonus struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Logo        string    `json:"logo"`
	URL         string    `json:"url"`
	BonusCode   string    `json:"bonusCode"`
	BonusAmount string    `json:"bonusAmount"`
	ExtraBonus  string    `json:"extraBonus,omitempty"`
	Steps       []string  `json:"steps"`
	Active      bool      `json:"active"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Patch - частичное обновление. nil означает "не менять".
type Patch struct {
	Name        *string
	Logo        *string
	URL         *string
	BonusCode   *string
	BonusAmount *string
	ExtraBonus  *string
	Steps       []string
	Active      *bool
	Order       *int
}

// New создаёт бонус с нормализованными полями.
func New(b Bonus, now time.Time) (*Bonus, error) {
	out := b
	out.normalize()
	out.CreatedAt = now
	out.UpdatedAt = now
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Apply применяет патч и повторно валидирует запись.
func (b *Bonus) Apply(p Patch, now time.Time) error {
	next := *b
	if p.Name != nil {
		next.Name = *p.Name
	}
	if p.Logo != nil {
		next.Logo = *p.Logo
	}
	if p.URL != nil {
		next.URL = *p.URL
	}
	if p.BonusCode != nil {
		next.BonusCode = *p.BonusCode
	}
	if p.BonusAmount != nil {
		next.BonusAmount = *p.BonusAmount
	}
	if p.ExtraBonus != nil {
		next.ExtraBonus = *p.ExtraBonus
	}
	if p.Steps != nil {
		next.Steps = p.Steps
	}
	if p.Active != nil {
		next.Active = *p.Active
	}
	if p.Order != nil {
		next.Order = *p.Order
	}
	next.normalize()
	if err := next.Validate(); err != nil {
		return err
	}
	next.UpdatedAt = now
	*b = next
	return nil
}

// Validate проверяет обязательные поля.
func (b *Bonus) Validate() error {
	switch {
	case b.Name == "":
		return shared.ValidationError("bonus", "Validate", "name is required")
	case b.Logo == "":
		return shared.ValidationError("bonus", "Validate", "logo is required")
	case b.URL == "":
		return shared.ValidationError("bonus", "Validate", "url is required")
	case b.BonusCode == "":
		return shared.ValidationError("bonus", "Validate", "bonusCode is required")
	case b.BonusAmount == "":
		return shared.ValidationError("bonus", "Validate", "bonusAmount is required")
	}
	if _, err := url.Parse(b.URL); err != nil {
		return shared.ValidationError("bonus", "Validate", "url is malformed")
	}
	if b.Order < 0 {
		return shared.ValidationError("bonus", "Validate", "order cannot be negative")
	}
	return nil
}

func (b *Bonus) normalize() {
	b.Name = strings.TrimSpace(b.Name)
	b.Logo = strings.TrimSpace(b.Logo)
	b.URL = strings.TrimSpace(b.URL)
	b.BonusCode = strings.ToUpper(strings.TrimSpace(b.BonusCode))
	b.BonusAmount = strings.TrimSpace(b.BonusAmount)
	b.ExtraBonus = strings.TrimSpace(b.ExtraBonus)

	steps := make([]string, 0, len(b.Steps))
	for _, s := range b.Steps {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	b.Steps = steps
}

// SortForDisplay сортирует по order по возрастанию, затем по createdAt по убыванию.
func SortForDisplay(items []*Bonus) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

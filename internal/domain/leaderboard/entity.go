// Package leaderboard содержит доменную модель лидерборда промо-сайта.
// Лидерборд - это ограниченное по времени соревнование, привязанное к бонусу:
// админ загружает выгрузку игроков, мы один раз считаем рейтинг и храним
// его вместе с записью. Фильтрация по датам происходит только при чтении.
package leaderboard

import (
	"strings"
	"time"

	"github.com/eldoah/promo-hub/internal/domain/shared"
)

// DefaultPrizeText - подпись под таблицей призов по умолчанию.
const DefaultPrizeText = "ALL PRIZES ARE IN CREDITS *"

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// BonusRef - снимок бонуса на момент привязки к лидерборду.
type BonusRef struct {
	ID   string
	Name string
	Logo string
	URL  string
}

// Leaderboard - сохраняемая запись лидерборда.
type Leaderboard struct {
	ID          string         `json:"_id"`
	BonusID     string         `json:"bonusId"`
	BonusName   string         `json:"bonusName"`
	BonusLogo   string         `json:"bonusLogo"`
	BonusURL    string         `json:"bonusUrl"`
	Name        string         `json:"name"`
	Duration    int            `json:"duration"`
	StartDate   time.Time      `json:"startDate"`
	EndDate     time.Time      `json:"endDate"`
	Prizes      PrizeTable     `json:"prizes"`
	PrizeText   string         `json:"prizeText"`
	PlayerData  []PlayerRecord `json:"playerData,omitempty"`
	TopThree    []LeaderEntry  `json:"topThree"`
	Challengers []LeaderEntry  `json:"challengers"`
	Active      bool           `json:"active"`
	Order       int            `json:"order"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// NewParams - входные данные для создания лидерборда.
type NewParams struct {
	Bonus      BonusRef
	Name       string
	Duration   int
	StartDate  time.Time
	Prizes     PrizeTable
	PrizeText  string
	PlayerData []PlayerRecord
	Active     *bool
	Order      int
	Now        time.Time
}

// New создаёт лидерборд и сразу считает рейтинг по выгрузке.
func New(p NewParams) (*Leaderboard, error) {
	if strings.TrimSpace(p.Name) == "" || p.Bonus.ID == "" || p.StartDate.IsZero() {
		return nil, shared.ErrMissingFields
	}
	if !ValidDuration(p.Duration) {
		return nil, shared.ErrInvalidDuration
	}

	prizes := p.Prizes
	if prizes == nil {
		prizes = DefaultPrizeTable()
	}
	if err := prizes.Validate(); err != nil {
		return nil, err
	}

	prizeText := p.PrizeText
	if strings.TrimSpace(prizeText) == "" {
		prizeText = DefaultPrizeText
	}

	active := true
	if p.Active != nil {
		active = *p.Active
	}

	lb := &Leaderboard{
		Name:      strings.TrimSpace(p.Name),
		Prizes:    prizes,
		PrizeText: prizeText,
		Active:    active,
		Order:     p.Order,
		CreatedAt: p.Now,
		UpdatedAt: p.Now,
	}
	lb.AttachBonus(p.Bonus)
	if err := lb.Reschedule(p.StartDate, p.Duration); err != nil {
		return nil, err
	}

	if err := lb.ApplyPlayerData(p.PlayerData); err != nil {
		return nil, err
	}
	return lb, nil
}

// AttachBonus копирует название, логотип и ссылку бонуса в запись.
func (l *Leaderboard) AttachBonus(b BonusRef) {
	l.BonusID = b.ID
	l.BonusName = b.Name
	l.BonusLogo = b.Logo
	l.BonusURL = b.URL
}

// ValidDuration сообщает, что длительность в днях лежит в [1, MaxDurationDays].
func ValidDuration(days int) bool {
	return days >= 1 && days <= shared.MaxDurationDays
}

// Reschedule задаёт начало и длительность, endDate пересчитывается.
// Длительность вне ValidDuration отвергается, запись не меняется.
func (l *Leaderboard) Reschedule(start time.Time, durationDays int) error {
	if !ValidDuration(durationDays) {
		return shared.ErrInvalidDuration
	}
	l.StartDate = start
	l.Duration = durationDays
	l.EndDate = l.Window().To
	return nil
}

// ApplyPlayerData валидирует выгрузку и пересчитывает рейтинг.
// Пустая выгрузка очищает рейтинг.
func (l *Leaderboard) ApplyPlayerData(records []PlayerRecord) error {
	if err := ValidatePlayerData(records); err != nil {
		return err
	}
	st := Aggregate(records)
	l.PlayerData = st.ProcessedData
	l.TopThree = st.TopThree
	l.Challengers = st.Challengers
	return nil
}

// Window возвращает временное окно соревнования.
func (l *Leaderboard) Window() shared.TimeRange {
	return shared.NewDayRange(l.StartDate, l.Duration)
}

// IsLive - лидерборд активен и ещё не закончился.
func (l *Leaderboard) IsLive(now time.Time) bool {
	return l.Active && !l.EndDate.Before(now)
}

// Standings возвращает сохранённый рейтинг.
func (l *Leaderboard) Standings() Standings {
	return Standings{
		TopThree:      l.TopThree,
		Challengers:   l.Challengers,
		ProcessedData: l.PlayerData,
	}
}

// PublicView возвращает копию для публичного сайта: без сырых данных,
// претенденты обрезаны до limit.
func (l *Leaderboard) PublicView(limit int) *Leaderboard {
	out := *l
	st := l.Standings().Public(limit)
	out.Challengers = st.Challengers
	out.PlayerData = nil
	return &out
}

// ParseStartDate разбирает startDate из формы создания.
// Значение без "T" (например, просто дата) означает "начать сейчас".
func ParseStartDate(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "T") {
		return now, nil
	}
	return ParseDate(raw)
}

// ParseDate разбирает дату из PATCH-запроса: ISO 8601 с временем или без.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, shared.NewDomainError("leaderboard", "ParseDate", shared.ErrInvalidFormat,
		"startDate must be an ISO 8601 date")
}

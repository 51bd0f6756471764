package leaderboard

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/eldoah/promo-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PLAYER RECORD
// ══════════════════════════════════════════════════════════════════════════════

const (
	fieldPlayerUID = "player_uid"
	fieldWinsBase  = "wins_base"
)

// PlayerRecord - одна строка выгрузки от партнёра.
// Обязательны только player_uid и wins_base, остальные поля
// (week, brand_name, ngr_base, deposits_base и т.д.) хранятся как есть
// и в ранжировании не участвуют.
type PlayerRecord struct {
	PlayerUID string
	WinsBase  float64
	Extra     map[string]any
}

// NewPlayerRecordFromFields собирает запись из произвольного документа.
// wins_base приводится к числу: строки парсятся, всё нечисловое становится 0.
func NewPlayerRecordFromFields(fields map[string]any) PlayerRecord {
	rec := PlayerRecord{}
	for k, v := range fields {
		switch k {
		case fieldPlayerUID:
			rec.PlayerUID = coerceUID(v)
		case fieldWinsBase:
			rec.WinsBase = CoerceWins(v)
		default:
			if rec.Extra == nil {
				rec.Extra = make(map[string]any)
			}
			rec.Extra[k] = v
		}
	}
	return rec
}

// Fields возвращает запись в виде плоского документа для хранилища.
func (p PlayerRecord) Fields() map[string]any {
	out := make(map[string]any, len(p.Extra)+2)
	for k, v := range p.Extra {
		out[k] = v
	}
	out[fieldPlayerUID] = p.PlayerUID
	out[fieldWinsBase] = p.WinsBase
	return out
}

// MarshalJSON implements json.Marshaler.
func (p PlayerRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Fields())
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *PlayerRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*p = NewPlayerRecordFromFields(fields)
	return nil
}

// ValidatePlayerData проверяет входную выгрузку перед агрегацией.
// Сам агрегатор ничего не валидирует.
func ValidatePlayerData(records []PlayerRecord) error {
	for i, r := range records {
		if strings.TrimSpace(r.PlayerUID) == "" {
			return shared.NewDomainError("leaderboard", "ValidatePlayerData", shared.ErrEmptyValue,
				fmt.Sprintf("player_uid is required (record #%d)", i+1))
		}
	}
	return nil
}

// CoerceWins приводит значение wins_base к float64. Никогда не паникует.
func CoerceWins(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func coerceUID(v any) string {
	switch u := v.(type) {
	case string:
		return u
	case float64:
		return strconv.FormatFloat(u, 'f', -1, 64)
	case int:
		return strconv.Itoa(u)
	case int32:
		return strconv.FormatInt(int64(u), 10)
	case int64:
		return strconv.FormatInt(u, 10)
	case json.Number:
		return u.String()
	default:
		return ""
	}
}

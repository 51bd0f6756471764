package leaderboard

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/eldoah/promo-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRIZE TABLE
// ══════════════════════════════════════════════════════════════════════════════

// PrizeTable - закрытая упорядоченная таблица призов: место → сумма.
// Снаружи она выглядит как {first, second, third, rank4, rank5, ...},
// внутри ключом служит номер места.
type PrizeTable map[int]float64

var podiumKeys = map[int]string{1: "first", 2: "second", 3: "third"}

// DefaultPrizeTable возвращает нулевые призы для трёх мест.
func DefaultPrizeTable() PrizeTable {
	return PrizeTable{1: 0, 2: 0, 3: 0}
}

// PrizeTableFromFields разбирает документ с ключами first/second/third/rankN.
func PrizeTableFromFields(fields map[string]any) (PrizeTable, error) {
	table := DefaultPrizeTable()
	for key, raw := range fields {
		rank, err := parsePrizeKey(key)
		if err != nil {
			return nil, err
		}
		amount, ok := prizeAmount(raw)
		if !ok {
			return nil, shared.NewDomainError("leaderboard", "ParsePrizes", shared.ErrInvalidInput,
				fmt.Sprintf("prize %q must be a number", key))
		}
		table[rank] = amount
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// Ranks возвращает места по возрастанию.
func (t PrizeTable) Ranks() []int {
	ranks := make([]int, 0, len(t))
	for r := range t {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)
	return ranks
}

// Amount возвращает приз за место (0, если место не призовое).
func (t PrizeTable) Amount(rank int) float64 {
	return t[rank]
}

// Validate проверяет, что места положительные, а суммы неотрицательные.
func (t PrizeTable) Validate() error {
	for rank, amount := range t {
		if rank < 1 {
			return shared.NewDomainError("leaderboard", "ValidatePrizes", shared.ErrValueOutOfRange,
				fmt.Sprintf("prize rank must be positive, got %d", rank))
		}
		if amount < 0 {
			return shared.NewDomainError("leaderboard", "ValidatePrizes", shared.ErrNegativeValue,
				fmt.Sprintf("prize for %s cannot be negative", PrizeKey(rank)))
		}
	}
	return nil
}

// Fields возвращает таблицу в документной форме.
// first/second/third присутствуют всегда.
func (t PrizeTable) Fields() map[string]float64 {
	out := make(map[string]float64, len(t)+3)
	for rank := 1; rank <= 3; rank++ {
		out[PrizeKey(rank)] = t[rank]
	}
	for rank, amount := range t {
		out[PrizeKey(rank)] = amount
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (t PrizeTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Fields())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *PrizeTable) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	table, err := PrizeTableFromFields(fields)
	if err != nil {
		return err
	}
	*t = table
	return nil
}

// PrizeKey возвращает внешний ключ для места.
func PrizeKey(rank int) string {
	if key, ok := podiumKeys[rank]; ok {
		return key
	}
	return "rank" + strconv.Itoa(rank)
}

func parsePrizeKey(key string) (int, error) {
	for rank, name := range podiumKeys {
		if key == name {
			return rank, nil
		}
	}
	if n, ok := strings.CutPrefix(key, "rank"); ok {
		// "rank04" и "rank+5" отвергаются: ключ должен совпадать с PrizeKey(rank).
		rank, err := strconv.Atoi(n)
		if err == nil && rank >= 4 && strconv.Itoa(rank) == n {
			return rank, nil
		}
	}
	return 0, shared.NewDomainError("leaderboard", "ParsePrizes", shared.ErrInvalidInput,
		fmt.Sprintf("unknown prize key %q", key))
}

func prizeAmount(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, true
	case string:
		if strings.TrimSpace(n) == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case bool, map[string]any, []any:
		return 0, false
	default:
		return CoerceWins(n), true
	}
}

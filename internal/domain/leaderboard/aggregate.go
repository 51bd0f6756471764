package leaderboard

import "sort"

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATION
// ══════════════════════════════════════════════════════════════════════════════

// PublicChallengersLimit - сколько претендентов отдаётся на публичный сайт.
const PublicChallengersLimit = 10

// LeaderEntry - строка рейтинга, полученная из выгрузки.
type LeaderEntry struct {
	Rank     int     `json:"rank"`
	Username string  `json:"username"`
	Wagered  float64 `json:"wagered"`
	Profit   float64 `json:"profit,omitempty"`
	Avatar   string  `json:"avatar,omitempty"`
}

// Standings - результат агрегации.
type Standings struct {
	TopThree      []LeaderEntry  `json:"topThree"`
	Challengers   []LeaderEntry  `json:"challengers"`
	ProcessedData []PlayerRecord `json:"processedData"`
}

// Aggregate дедуплицирует записи по player_uid, оставляя максимальный wins_base,
// сортирует по убыванию и раздаёт места 1..N.
//
// При равных wins_base побеждает запись, встреченная первой, а порядок
// ProcessedData совпадает с порядком первого появления игрока.
// Функция чистая: вход не изменяется, ошибок нет.
func Aggregate(records []PlayerRecord) Standings {
	index := make(map[string]int, len(records))
	processed := make([]PlayerRecord, 0, len(records))

	for _, rec := range records {
		i, seen := index[rec.PlayerUID]
		if !seen {
			index[rec.PlayerUID] = len(processed)
			processed = append(processed, rec)
			continue
		}
		if rec.WinsBase > processed[i].WinsBase {
			processed[i] = rec
		}
	}

	sorted := make([]PlayerRecord, len(processed))
	copy(sorted, processed)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].WinsBase > sorted[j].WinsBase
	})

	entries := make([]LeaderEntry, len(sorted))
	for i, rec := range sorted {
		entries[i] = LeaderEntry{
			Rank:     i + 1,
			Username: rec.PlayerUID,
			Wagered:  rec.WinsBase,
		}
	}

	split := min(3, len(entries))
	return Standings{
		TopThree:      entries[:split:split],
		Challengers:   append([]LeaderEntry{}, entries[split:]...),
		ProcessedData: processed,
	}
}

// Public возвращает копию с претендентами, обрезанными до limit.
func (s Standings) Public(limit int) Standings {
	out := s
	if limit >= 0 && len(out.Challengers) > limit {
		out.Challengers = out.Challengers[:limit:limit]
	}
	return out
}

// Entries возвращает весь рейтинг одним списком.
func (s Standings) Entries() []LeaderEntry {
	all := make([]LeaderEntry, 0, len(s.TopThree)+len(s.Challengers))
	all = append(all, s.TopThree...)
	return append(all, s.Challengers...)
}

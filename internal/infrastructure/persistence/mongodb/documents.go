package mongodb

import (
	"time"

	"github.com/eldoah/promo-hub/internal/domain/admin"
	"github.com/eldoah/promo-hub/internal/domain/bonus"
	"github.com/eldoah/promo-hub/internal/domain/leaderboard"
	"github.com/eldoah/promo-hub/internal/domain/shared"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOCUMENTS
// Storage shapes. Domain types stay free of bson tags.
// ══════════════════════════════════════════════════════════════════════════════

type bonusDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Logo        string             `bson:"logo"`
	URL         string             `bson:"url"`
	BonusCode   string             `bson:"bonusCode"`
	BonusAmount string             `bson:"bonusAmount"`
	ExtraBonus  string             `bson:"extraBonus,omitempty"`
	Steps       []string           `bson:"steps"`
	Active      bool               `bson:"active"`
	Order       int                `bson:"order"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func newBonusDoc(b *bonus.Bonus, id primitive.ObjectID) bonusDoc {
	steps := b.Steps
	if steps == nil {
		steps = []string{}
	}
	return bonusDoc{
		ID:          id,
		Name:        b.Name,
		Logo:        b.Logo,
		URL:         b.URL,
		BonusCode:   b.BonusCode,
		BonusAmount: b.BonusAmount,
		ExtraBonus:  b.ExtraBonus,
		Steps:       steps,
		Active:      b.Active,
		Order:       b.Order,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func (d bonusDoc) toDomain() *bonus.Bonus {
	return &bonus.Bonus{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Logo:        d.Logo,
		URL:         d.URL,
		BonusCode:   d.BonusCode,
		BonusAmount: d.BonusAmount,
		ExtraBonus:  d.ExtraBonus,
		Steps:       d.Steps,
		Active:      d.Active,
		Order:       d.Order,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type leaderEntryDoc struct {
	Rank     int     `bson:"rank"`
	Username string  `bson:"username"`
	Wagered  float64 `bson:"wagered"`
	Profit   float64 `bson:"profit,omitempty"`
	Avatar   string  `bson:"avatar,omitempty"`
}

type leaderboardDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	BonusID     string             `bson:"bonusId"`
	BonusName   string             `bson:"bonusName"`
	BonusLogo   string             `bson:"bonusLogo"`
	BonusURL    string             `bson:"bonusUrl"`
	Name        string             `bson:"name"`
	Duration    int                `bson:"duration"`
	StartDate   time.Time          `bson:"startDate"`
	EndDate     time.Time          `bson:"endDate"`
	Prizes      bson.M             `bson:"prizes"`
	PrizeText   string             `bson:"prizeText"`
	PlayerData  []bson.M           `bson:"playerData"`
	TopThree    []leaderEntryDoc   `bson:"topThree"`
	Challengers []leaderEntryDoc   `bson:"challengers"`
	Active      bool               `bson:"active"`
	Order       int                `bson:"order"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func newLeaderboardDoc(lb *leaderboard.Leaderboard, id primitive.ObjectID) leaderboardDoc {
	prizes := bson.M{}
	for k, v := range lb.Prizes.Fields() {
		prizes[k] = v
	}
	players := make([]bson.M, len(lb.PlayerData))
	for i, p := range lb.PlayerData {
		players[i] = bson.M(p.Fields())
	}

	return leaderboardDoc{
		ID:          id,
		BonusID:     lb.BonusID,
		BonusName:   lb.BonusName,
		BonusLogo:   lb.BonusLogo,
		BonusURL:    lb.BonusURL,
		Name:        lb.Name,
		Duration:    lb.Duration,
		StartDate:   lb.StartDate,
		EndDate:     lb.EndDate,
		Prizes:      prizes,
		PrizeText:   lb.PrizeText,
		PlayerData:  players,
		TopThree:    toEntryDocs(lb.TopThree),
		Challengers: toEntryDocs(lb.Challengers),
		Active:      lb.Active,
		Order:       lb.Order,
		CreatedAt:   lb.CreatedAt,
		UpdatedAt:   lb.UpdatedAt,
	}
}

func (d leaderboardDoc) toDomain() (*leaderboard.Leaderboard, error) {
	prizes, err := leaderboard.PrizeTableFromFields(map[string]any(d.Prizes))
	if err != nil {
		return nil, err
	}
	players := make([]leaderboard.PlayerRecord, len(d.PlayerData))
	for i, p := range d.PlayerData {
		players[i] = leaderboard.NewPlayerRecordFromFields(map[string]any(p))
	}

	return &leaderboard.Leaderboard{
		ID:          d.ID.Hex(),
		BonusID:     d.BonusID,
		BonusName:   d.BonusName,
		BonusLogo:   d.BonusLogo,
		BonusURL:    d.BonusURL,
		Name:        d.Name,
		Duration:    d.Duration,
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		Prizes:      prizes,
		PrizeText:   d.PrizeText,
		PlayerData:  players,
		TopThree:    fromEntryDocs(d.TopThree),
		Challengers: fromEntryDocs(d.Challengers),
		Active:      d.Active,
		Order:       d.Order,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

func toEntryDocs(entries []leaderboard.LeaderEntry) []leaderEntryDoc {
	out := make([]leaderEntryDoc, len(entries))
	for i, e := range entries {
		out[i] = leaderEntryDoc(e)
	}
	return out
}

func fromEntryDocs(docs []leaderEntryDoc) []leaderboard.LeaderEntry {
	out := make([]leaderboard.LeaderEntry, len(docs))
	for i, d := range docs {
		out[i] = leaderboard.LeaderEntry(d)
	}
	return out
}

type statsDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	TotalJoined int64              `bson:"totalJoined"`
	LastUpdated time.Time          `bson:"lastUpdated"`
}

// userDoc keeps the hash under "password", as the existing collections do.
type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password"`
	Name         string             `bson:"name"`
	Role         string             `bson:"role"`
	CreatedAt    time.Time          `bson:"createdAt"`
	LastLogin    *time.Time         `bson:"lastLogin,omitempty"`
}

func newUserDoc(u *admin.User, id primitive.ObjectID) userDoc {
	return userDoc{
		ID:           id,
		Email:        u.Email.String(),
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		LastLogin:    u.LastLogin,
	}
}

func (d userDoc) toDomain() *admin.User {
	return &admin.User{
		ID:           d.ID.Hex(),
		Email:        shared.Email(d.Email),
		PasswordHash: d.PasswordHash,
		Name:         d.Name,
		Role:         admin.Role(d.Role),
		CreatedAt:    d.CreatedAt,
		LastLogin:    d.LastLogin,
	}
}

// objectID parses a hex id. Malformed ids report ok=false and are treated as missing.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

var displaySort = bson.D{{Key: "order", Value: 1}, {Key: "createdAt", Value: -1}}

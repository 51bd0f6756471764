package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/eldoah/promo-hub/internal/application/command"
	"github.com/eldoah/promo-hub/internal/domain/bonus"
	"github.com/eldoah/promo-hub/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DTOs
// ══════════════════════════════════════════════════════════════════════════════

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type createBonusRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Logo        string   `json:"logo" validate:"required"`
	URL         string   `json:"url" validate:"required,url"`
	BonusCode   string   `json:"bonusCode" validate:"required,max=64"`
	BonusAmount string   `json:"bonusAmount" validate:"required,max=200"`
	ExtraBonus  string   `json:"extraBonus" validate:"max=200"`
	Steps       []string `json:"steps" validate:"max=20,dive,max=500"`
	Active      *bool    `json:"active"`
}

func (req createBonusRequest) command() command.CreateBonusCommand {
	return command.CreateBonusCommand{
		Name:        req.Name,
		Logo:        req.Logo,
		URL:         req.URL,
		BonusCode:   req.BonusCode,
		BonusAmount: req.BonusAmount,
		ExtraBonus:  req.ExtraBonus,
		Steps:       req.Steps,
		Active:      req.Active,
	}
}

type updateBonusRequest struct {
	Name        *string  `json:"name" validate:"omitnil,max=200"`
	Logo        *string  `json:"logo"`
	URL         *string  `json:"url" validate:"omitnil,url"`
	BonusCode   *string  `json:"bonusCode" validate:"omitnil,max=64"`
	BonusAmount *string  `json:"bonusAmount" validate:"omitnil,max=200"`
	ExtraBonus  *string  `json:"extraBonus" validate:"omitnil,max=200"`
	Steps       []string `json:"steps" validate:"omitempty,max=20,dive,max=500"`
	Active      *bool    `json:"active"`
	Order       *int     `json:"order" validate:"omitnil,gte=0"`
}

func (req updateBonusRequest) command(id string) command.UpdateBonusCommand {
	return command.UpdateBonusCommand{
		ID: id,
		Patch: bonus.Patch{
			Name:        req.Name,
			Logo:        req.Logo,
			URL:         req.URL,
			BonusCode:   req.BonusCode,
			BonusAmount: req.BonusAmount,
			ExtraBonus:  req.ExtraBonus,
			Steps:       req.Steps,
			Active:      req.Active,
			Order:       req.Order,
		},
	}
}

// createLeaderboardRequest leaves required-field checks to the command,
// which answers "Missing required fields" for any of them.
type createLeaderboardRequest struct {
	BonusID    string                     `json:"bonusId"`
	Name       string                     `json:"name" validate:"max=200"`
	Duration   flexInt                    `json:"duration" validate:"lte=3650"`
	StartDate  string                     `json:"startDate"`
	Prizes     leaderboard.PrizeTable     `json:"prizes"`
	PrizeText  string                     `json:"prizeText" validate:"max=500"`
	PlayerData []leaderboard.PlayerRecord `json:"playerData"`
	Active     *bool                      `json:"active"`
}

func (req createLeaderboardRequest) command() command.CreateLeaderboardCommand {
	return command.CreateLeaderboardCommand{
		BonusID:    req.BonusID,
		Name:       req.Name,
		Duration:   int(req.Duration),
		StartDate:  req.StartDate,
		Prizes:     req.Prizes,
		PrizeText:  req.PrizeText,
		PlayerData: req.PlayerData,
		Active:     req.Active,
	}
}

type updateLeaderboardRequest struct {
	Name       *string                     `json:"name" validate:"omitnil,max=200"`
	Duration   *flexInt                    `json:"duration" validate:"omitnil,lte=3650"`
	StartDate  *string                     `json:"startDate"`
	Prizes     leaderboard.PrizeTable      `json:"prizes"`
	PrizeText  *string                     `json:"prizeText" validate:"omitnil,max=500"`
	Active     *bool                       `json:"active"`
	Order      *int                        `json:"order" validate:"omitnil,gte=0"`
	BonusID    *string                     `json:"bonusId"`
	PlayerData *[]leaderboard.PlayerRecord `json:"playerData"`
}

func (req updateLeaderboardRequest) command(id string) command.UpdateLeaderboardCommand {
	cmd := command.UpdateLeaderboardCommand{
		ID:         id,
		Name:       req.Name,
		StartDate:  req.StartDate,
		Prizes:     req.Prizes,
		PrizeText:  req.PrizeText,
		Active:     req.Active,
		Order:      req.Order,
		BonusID:    req.BonusID,
		PlayerData: req.PlayerData,
	}
	if req.Duration != nil {
		d := int(*req.Duration)
		cmd.Duration = &d
	}
	return cmd
}

// flexInt accepts 7, 7.0 and "7". The admin form posts duration
// as whatever the input produced.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	var n json.Number
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n = json.Number(s)
	} else {
		n = json.Number(data)
	}

	if i, err := strconv.Atoi(n.String()); err == nil {
		*f = flexInt(i)
		return nil
	}
	v, err := n.Float64()
	if err != nil || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return fmt.Errorf("invalid integer %s", data)
	}
	*f = flexInt(int(v))
	return nil
}

package schema

import (
	"time"

	"go-fleetdata/internal/models"
	"go-fleetdata/internal/pss"
)

// Fleet tuple arities per record shape.
const (
	allianceArityV2 = 3
	allianceArityV3 = 4
	allianceArityV4 = 5
	allianceArityV6 = 6
	allianceArityV7 = 8

	userArityV3     = 2
	userDataArityV3 = 7
	userArityV4     = 17
	userArityV6     = 18
	userArityV8     = 19
	userArityV9     = 20
)

// allianceV2 is [id, name, score].
type allianceV2 struct {
	ID    int64
	Name  string
	Score int64
}

func readAllianceV2(t tuple) (a allianceV2, err error) {
	if a.ID, err = t.int(0, "alliance_id"); err != nil {
		return a, err
	}
	if a.Name, err = t.str(1, "alliance_name"); err != nil {
		return a, err
	}
	if a.Score, err = t.int(2, "score"); err != nil {
		return a, err
	}
	return a, nil
}

func (a allianceV2) canonical() models.Alliance {
	return models.Alliance{AllianceID: a.ID, AllianceName: a.Name, Score: a.Score}
}

// allianceV3 is [id, name, score, division_design_id].
type allianceV3 struct {
	allianceV2
	DivisionDesignID int
}

func readAllianceV3(t tuple) (a allianceV3, err error) {
	if a.allianceV2, err = readAllianceV2(t); err != nil {
		return a, err
	}
	div, err := t.nonNegative(3, "division_design_id")
	if err != nil {
		return a, err
	}
	a.DivisionDesignID = int(div)
	return a, nil
}

func (a allianceV3) canonical() models.Alliance {
	out := a.allianceV2.canonical()
	out.DivisionDesignID = a.DivisionDesignID
	return out
}

// allianceV4 appends the alliance trophy.
type allianceV4 struct {
	allianceV3
	Trophy *int64
}

func readAllianceV4(t tuple) (a allianceV4, err error) {
	if a.allianceV3, err = readAllianceV3(t); err != nil {
		return a, err
	}
	if a.Trophy, err = t.optNonNegative(4, "trophy"); err != nil {
		return a, err
	}
	return a, nil
}

func (a allianceV4) canonical() models.Alliance {
	out := a.allianceV3.canonical()
	out.Trophy = a.Trophy
	return out
}

// allianceV6 appends the championship score.
type allianceV6 struct {
	allianceV4
	ChampionshipScore *int64
}

func readAllianceV6(t tuple) (a allianceV6, err error) {
	if a.allianceV4, err = readAllianceV4(t); err != nil {
		return a, err
	}
	if a.ChampionshipScore, err = t.optNonNegative(5, "championship_score"); err != nil {
		return a, err
	}
	return a, nil
}

func (a allianceV6) canonical() models.Alliance {
	out := a.allianceV4.canonical()
	out.ChampionshipScore = a.ChampionshipScore
	return out
}

// allianceV7 appends the member and approved member counts.
type allianceV7 struct {
	allianceV6
	NumberOfMembers         *int
	NumberOfApprovedMembers *int
}

func readAllianceV7(t tuple) (a allianceV7, err error) {
	if a.allianceV6, err = readAllianceV6(t); err != nil {
		return a, err
	}
	if a.NumberOfMembers, err = t.optCount(6, "number_of_members"); err != nil {
		return a, err
	}
	if a.NumberOfApprovedMembers, err = t.optCount(7, "number_of_approved_members"); err != nil {
		return a, err
	}
	return a, nil
}

func (a allianceV7) canonical() models.Alliance {
	out := a.allianceV6.canonical()
	out.NumberOfMembers = a.NumberOfMembers
	out.NumberOfApprovedMembers = a.NumberOfApprovedMembers
	return out
}

// userV3 is the [id, name] pair of the users list.
type userV3 struct {
	ID   int64
	Name string
}

func readUserV3(t tuple) (u userV3, err error) {
	if u.ID, err = t.int(0, "user_id"); err != nil {
		return u, err
	}
	if u.Name, err = t.str(1, "user_name"); err != nil {
		return u, err
	}
	return u, nil
}

// userDataV3 is the detail row of the data list:
// [id, alliance_id, trophy, alliance_score, membership, join_date, last_login_date].
type userDataV3 struct {
	ID            int64
	AllianceID    int64
	Trophy        int64
	AllianceScore int64
	Membership    pss.Rank
	JoinDate      *time.Time
	LastLogin     time.Time
}

func readUserDataV3(t tuple) (d userDataV3, err error) {
	if d.ID, err = t.int(0, "user_id"); err != nil {
		return d, err
	}
	if d.AllianceID, err = t.nonNegative(1, "alliance_id"); err != nil {
		return d, err
	}
	if d.Trophy, err = t.nonNegative(2, "trophy"); err != nil {
		return d, err
	}
	if d.AllianceScore, err = t.nonNegative(3, "alliance_score"); err != nil {
		return d, err
	}
	if d.Membership, err = t.rankName(4, "alliance_membership"); err != nil {
		return d, err
	}
	if d.JoinDate, err = t.optISODate(5, "alliance_join_date"); err != nil {
		return d, err
	}
	if d.LastLogin, err = t.isoDate(6, "last_login_date"); err != nil {
		return d, err
	}
	return d, nil
}

func (u userV3) canonical(d userDataV3) models.User {
	login := d.LastLogin
	return models.User{
		UserID:             u.ID,
		UserName:           u.Name,
		AllianceID:         d.AllianceID,
		Trophy:             d.Trophy,
		AllianceScore:      d.AllianceScore,
		AllianceMembership: d.Membership,
		AllianceJoinDate:   d.JoinDate,
		LastLoginDate:      &login,
	}
}

// userV4 is the first flat user tuple. Dates are seconds since the epoch.
type userV4 struct {
	ID               int64
	Name             string
	AllianceID       int64
	Trophy           int64
	AllianceScore    int64
	Membership       pss.Rank
	JoinDate         *time.Time
	LastLogin        time.Time
	Heartbeat        *time.Time
	CrewDonated      *int64
	CrewReceived     *int64
	PvPAttackWins    *int64
	PvPAttackLosses  *int64
	PvPAttackDraws   *int64
	PvPDefenceWins   *int64
	PvPDefenceLosses *int64
	PvPDefenceDraws  *int64
}

func readUserV4(t tuple) (u userV4, err error) {
	if u.ID, err = t.int(0, "user_id"); err != nil {
		return u, err
	}
	if u.Name, err = t.str(1, "user_name"); err != nil {
		return u, err
	}
	if u.AllianceID, err = t.nonNegative(2, "alliance_id"); err != nil {
		return u, err
	}
	if u.Trophy, err = t.nonNegative(3, "trophy"); err != nil {
		return u, err
	}
	if u.AllianceScore, err = t.nonNegative(4, "alliance_score"); err != nil {
		return u, err
	}
	if u.Membership, err = t.rankCode(5, "alliance_membership"); err != nil {
		return u, err
	}
	if u.JoinDate, err = t.optSeconds(6, "alliance_join_date"); err != nil {
		return u, err
	}
	if u.LastLogin, err = t.seconds(7, "last_login_date"); err != nil {
		return u, err
	}
	if u.Heartbeat, err = t.optSeconds(8, "last_heartbeat_date"); err != nil {
		return u, err
	}

	counters := []struct {
		dst   **int64
		field string
	}{
		{&u.CrewDonated, "crew_donated"},
		{&u.CrewReceived, "crew_received"},
		{&u.PvPAttackWins, "pvp_attack_wins"},
		{&u.PvPAttackLosses, "pvp_attack_losses"},
		{&u.PvPAttackDraws, "pvp_attack_draws"},
		{&u.PvPDefenceWins, "pvp_defence_wins"},
		{&u.PvPDefenceLosses, "pvp_defence_losses"},
		{&u.PvPDefenceDraws, "pvp_defence_draws"},
	}
	for i, c := range counters {
		if *c.dst, err = t.optNonNegative(9+i, c.field); err != nil {
			return u, err
		}
	}
	return u, nil
}

func (u userV4) canonical() models.User {
	login := u.LastLogin
	return models.User{
		UserID:             u.ID,
		UserName:           u.Name,
		AllianceID:         u.AllianceID,
		Trophy:             u.Trophy,
		AllianceScore:      u.AllianceScore,
		AllianceMembership: u.Membership,
		AllianceJoinDate:   u.JoinDate,
		LastLoginDate:      &login,
		LastHeartbeatDate:  u.Heartbeat,
		CrewDonated:        u.CrewDonated,
		CrewReceived:       u.CrewReceived,
		PvPAttackWins:      u.PvPAttackWins,
		PvPAttackLosses:    u.PvPAttackLosses,
		PvPAttackDraws:     u.PvPAttackDraws,
		PvPDefenceWins:     u.PvPDefenceWins,
		PvPDefenceLosses:   u.PvPDefenceLosses,
		PvPDefenceDraws:    u.PvPDefenceDraws,
	}
}

// userV6 appends the championship score.
type userV6 struct {
	userV4
	ChampionshipScore *int64
}

func readUserV6(t tuple) (u userV6, err error) {
	if u.userV4, err = readUserV4(t); err != nil {
		return u, err
	}
	if u.ChampionshipScore, err = t.optNonNegative(17, "championship_score"); err != nil {
		return u, err
	}
	return u, nil
}

func (u userV6) canonical() models.User {
	out := u.userV4.canonical()
	out.ChampionshipScore = u.ChampionshipScore
	return out
}

// userV8 appends the highest trophy count.
type userV8 struct {
	userV6
	HighestTrophy *int64
}

func readUserV8(t tuple) (u userV8, err error) {
	if u.userV6, err = readUserV6(t); err != nil {
		return u, err
	}
	if u.HighestTrophy, err = t.optNonNegative(18, "highest_trophy"); err != nil {
		return u, err
	}
	return u, nil
}

func (u userV8) canonical() models.User {
	out := u.userV6.canonical()
	out.HighestTrophy = u.HighestTrophy
	return out
}

// userV9 appends the tournament bonus score.
type userV9 struct {
	userV8
	TournamentBonusScore *int64
}

func readUserV9(t tuple) (u userV9, err error) {
	if u.userV8, err = readUserV8(t); err != nil {
		return u, err
	}
	if u.TournamentBonusScore, err = t.optNonNegative(19, "tournament_bonus_score"); err != nil {
		return u, err
	}
	return u, nil
}

func (u userV9) canonical() models.User {
	out := u.userV8.canonical()
	out.TournamentBonusScore = u.TournamentBonusScore
	return out
}

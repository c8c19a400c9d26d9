// Package models holds the canonical representation every schema version
// decodes into and the latest wire format encodes from.
package models

import (
	"time"

	"go-fleetdata/internal/pss"
)

// Storage collection names
const (
	CollectionsCollection = "collections"
	AlliancesCollection   = "alliances"
	UsersCollection       = "users"
	CountersCollection    = "counters"
)

// Limits enforced on every Collection
const (
	MaxFleets       = 101
	MaxUsers        = 10100
	MaxFleetCount   = 101
	MaxUserCount    = 10200
	MaxDuration     = 3600
	MaxFleetMembers = 100
	MaxNameLength   = 16
)

// Collection is one snapshot of all alliance and user data.
type Collection struct {
	CollectionID                int64     `bson:"_id" json:"collection_id"`
	CollectedAt                 time.Time `bson:"collected_at" json:"collected_at" validate:"required"`
	DataVersion                 int       `bson:"data_version" json:"data_version" validate:"gte=3,lte=9"`
	Duration                    float64   `bson:"duration" json:"duration" validate:"gte=0,lte=3600"`
	FleetCount                  int       `bson:"fleet_count" json:"fleet_count" validate:"gte=0,lte=101"`
	UserCount                   int       `bson:"user_count" json:"user_count" validate:"gte=0,lte=10200"`
	TournamentRunning           bool      `bson:"tournament_running" json:"tournament_running"`
	MaxTournamentBattleAttempts *int      `bson:"max_tournament_battle_attempts,omitempty" json:"max_tournament_battle_attempts,omitempty" validate:"omitempty,gte=0"`

	Alliances []Alliance `bson:"-" json:"alliances,omitempty" validate:"max=101,dive"`
	Users     []User     `bson:"-" json:"users,omitempty" validate:"max=10100,dive"`
}

// Alliance is a fleet as captured in one Collection. Its members are not
// stored with it; they are joined from Users by (collection_id, alliance_id).
type Alliance struct {
	CollectionID            int64     `bson:"collection_id" json:"collection_id"`
	CollectedAt             time.Time `bson:"collected_at" json:"-"`
	AllianceID              int64     `bson:"alliance_id" json:"alliance_id" validate:"gte=1"`
	AllianceName            string    `bson:"alliance_name" json:"alliance_name" validate:"min=1,max=16"`
	Score                   int64     `bson:"score" json:"score" validate:"gte=0"`
	DivisionDesignID        int       `bson:"division_design_id" json:"division_design_id" validate:"gte=0"`
	Trophy                  *int64    `bson:"trophy,omitempty" json:"trophy,omitempty" validate:"omitempty,gte=0"`
	ChampionshipScore       *int64    `bson:"championship_score,omitempty" json:"championship_score,omitempty" validate:"omitempty,gte=0"`
	NumberOfMembers         *int      `bson:"number_of_members,omitempty" json:"number_of_members,omitempty" validate:"omitempty,gte=0,lte=100"`
	NumberOfApprovedMembers *int      `bson:"number_of_approved_members,omitempty" json:"number_of_approved_members,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// User is a player as captured in one Collection.
type User struct {
	CollectionID         int64      `bson:"collection_id" json:"collection_id"`
	CollectedAt          time.Time  `bson:"collected_at" json:"-"`
	UserID               int64      `bson:"user_id" json:"user_id" validate:"gte=1"`
	UserName             string     `bson:"user_name" json:"user_name" validate:"min=1,max=16"`
	AllianceID           int64      `bson:"alliance_id" json:"alliance_id" validate:"gte=0"`
	Trophy               int64      `bson:"trophy" json:"trophy" validate:"gte=0"`
	AllianceScore        int64      `bson:"alliance_score" json:"alliance_score" validate:"gte=0"`
	AllianceMembership   pss.Rank   `bson:"alliance_membership" json:"alliance_membership" validate:"rank"`
	AllianceJoinDate     *time.Time `bson:"alliance_join_date,omitempty" json:"alliance_join_date,omitempty" validate:"omitempty,notbeforeepoch"`
	LastLoginDate        *time.Time `bson:"last_login_date,omitempty" json:"last_login_date,omitempty" validate:"omitempty,notbeforeepoch"`
	LastHeartbeatDate    *time.Time `bson:"last_heartbeat_date,omitempty" json:"last_heartbeat_date,omitempty" validate:"omitempty,notbeforeepoch"`
	CrewDonated          *int64     `bson:"crew_donated,omitempty" json:"crew_donated,omitempty" validate:"omitempty,gte=0"`
	CrewReceived         *int64     `bson:"crew_received,omitempty" json:"crew_received,omitempty" validate:"omitempty,gte=0"`
	PvPAttackWins        *int64     `bson:"pvp_attack_wins,omitempty" json:"pvp_attack_wins,omitempty" validate:"omitempty,gte=0"`
	PvPAttackLosses      *int64     `bson:"pvp_attack_losses,omitempty" json:"pvp_attack_losses,omitempty" validate:"omitempty,gte=0"`
	PvPAttackDraws       *int64     `bson:"pvp_attack_draws,omitempty" json:"pvp_attack_draws,omitempty" validate:"omitempty,gte=0"`
	PvPDefenceWins       *int64     `bson:"pvp_defence_wins,omitempty" json:"pvp_defence_wins,omitempty" validate:"omitempty,gte=0"`
	PvPDefenceLosses     *int64     `bson:"pvp_defence_losses,omitempty" json:"pvp_defence_losses,omitempty" validate:"omitempty,gte=0"`
	PvPDefenceDraws      *int64     `bson:"pvp_defence_draws,omitempty" json:"pvp_defence_draws,omitempty" validate:"omitempty,gte=0"`
	ChampionshipScore    *int64     `bson:"championship_score,omitempty" json:"championship_score,omitempty" validate:"omitempty,gte=0"`
	HighestTrophy        *int64     `bson:"highest_trophy,omitempty" json:"highest_trophy,omitempty" validate:"omitempty,gte=0"`
	TournamentBonusScore *int64     `bson:"tournament_bonus_score,omitempty" json:"tournament_bonus_score,omitempty" validate:"omitempty,gte=0"`
}

// Metadata returns a copy of c without its children.
func (c *Collection) Metadata() Collection {
	m := *c
	m.Alliances = nil
	m.Users = nil
	return m
}

// Clone returns a deep copy of c including its children.
func (c *Collection) Clone() *Collection {
	out := c.Metadata()
	out.MaxTournamentBattleAttempts = cloneInt(c.MaxTournamentBattleAttempts)
	if c.Alliances != nil {
		out.Alliances = make([]Alliance, len(c.Alliances))
		for i := range c.Alliances {
			out.Alliances[i] = c.Alliances[i].Clone()
		}
	}
	if c.Users != nil {
		out.Users = make([]User, len(c.Users))
		for i := range c.Users {
			out.Users[i] = c.Users[i].Clone()
		}
	}
	return &out
}

// Clone returns a deep copy of a.
func (a Alliance) Clone() Alliance {
	a.Trophy = cloneInt64(a.Trophy)
	a.ChampionshipScore = cloneInt64(a.ChampionshipScore)
	a.NumberOfMembers = cloneInt(a.NumberOfMembers)
	a.NumberOfApprovedMembers = cloneInt(a.NumberOfApprovedMembers)
	return a
}

// Clone returns a deep copy of u.
func (u User) Clone() User {
	u.AllianceJoinDate = cloneTime(u.AllianceJoinDate)
	u.LastLoginDate = cloneTime(u.LastLoginDate)
	u.LastHeartbeatDate = cloneTime(u.LastHeartbeatDate)
	for _, p := range []**int64{
		&u.CrewDonated, &u.CrewReceived,
		&u.PvPAttackWins, &u.PvPAttackLosses, &u.PvPAttackDraws,
		&u.PvPDefenceWins, &u.PvPDefenceLosses, &u.PvPDefenceDraws,
		&u.ChampionshipScore, &u.HighestTrophy, &u.TournamentBonusScore,
	} {
		*p = cloneInt64(*p)
	}
	return u
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// AssignCollection stamps the collection identity and timestamp onto every
// child so the rows can be queried without the parent.
func (c *Collection) AssignCollection(id int64) {
	c.CollectionID = id
	for i := range c.Alliances {
		c.Alliances[i].CollectionID = id
		c.Alliances[i].CollectedAt = c.CollectedAt
	}
	for i := range c.Users {
		c.Users[i].CollectionID = id
		c.Users[i].CollectedAt = c.CollectedAt
	}
}

// TournamentAttemptsLeft derives the remaining tournament battle attempts of
// u. It is nil unless a tournament was running and both inputs are known.
func TournamentAttemptsLeft(c *Collection, u *User) *int64 {
	if c == nil || u == nil || !c.TournamentRunning || c.MaxTournamentBattleAttempts == nil || u.TournamentBonusScore == nil {
		return nil
	}
	left := int64(*c.MaxTournamentBattleAttempts) - *u.TournamentBonusScore
	if left < 0 {
		left = 0
	}
	return &left
}

package schema

import (
	"fmt"
	"time"

	"go-fleetdata/internal/models"
	"go-fleetdata/internal/pss"
)

// AllianceTuple is a fleet in the latest wire shape:
// [id, name, score, division_design_id, trophy, championship_score,
// number_of_members, number_of_approved_members].
type AllianceTuple [allianceArityV7]any

// UserTuple is a user in the latest wire shape. Dates are seconds since the
// epoch and the membership is its rank code.
type UserTuple [userArityV9]any

// Metadata is the metadata block of an encoded collection.
type Metadata struct {
	CollectionID                int64     `json:"collection_id" yaml:"collection_id" doc:"Collection ID"`
	DataVersion                 int       `json:"data_version" yaml:"data_version" doc:"Schema version the data was recorded with"`
	SchemaVersion               int       `json:"schema_version" yaml:"schema_version" doc:"Schema version of this representation"`
	Timestamp                   time.Time `json:"timestamp" yaml:"timestamp" doc:"Collection timestamp (UTC)"`
	Duration                    float64   `json:"duration" yaml:"duration" doc:"Seconds the collection took"`
	FleetCount                  int       `json:"fleet_count" yaml:"fleet_count"`
	UserCount                   int       `json:"user_count" yaml:"user_count"`
	TourneyRunning              bool      `json:"tourney_running" yaml:"tourney_running"`
	MaxTournamentBattleAttempts *int      `json:"max_tournament_battle_attempts" yaml:"max_tournament_battle_attempts"`
}

// CollectionPayload is a full collection in the latest wire shape. It is
// accepted by DecodeV9.
type CollectionPayload struct {
	Meta   Metadata        `json:"meta" yaml:"meta"`
	Fleets []AllianceTuple `json:"fleets" yaml:"fleets"`
	Users  []UserTuple     `json:"users" yaml:"users"`
}

// EncodeMetadata renders the metadata of c.
func EncodeMetadata(c *models.Collection) Metadata {
	return Metadata{
		CollectionID:                c.CollectionID,
		DataVersion:                 c.DataVersion,
		SchemaVersion:               pss.LatestSchemaVersion,
		Timestamp:                   pss.ToUTC(c.CollectedAt),
		Duration:                    c.Duration,
		FleetCount:                  c.FleetCount,
		UserCount:                   c.UserCount,
		TourneyRunning:              c.TournamentRunning,
		MaxTournamentBattleAttempts: c.MaxTournamentBattleAttempts,
	}
}

// EncodeAlliance renders a as a tuple. Unknown values are null.
func EncodeAlliance(a *models.Alliance) AllianceTuple {
	return AllianceTuple{
		a.AllianceID,
		a.AllianceName,
		a.Score,
		a.DivisionDesignID,
		nullable(a.Trophy),
		nullable(a.ChampionshipScore),
		nullable(a.NumberOfMembers),
		nullable(a.NumberOfApprovedMembers),
	}
}

// EncodeUser renders u as a tuple. A missing last login encodes as 0, the
// other unknown values as null. Unknown ranks are rejected.
func EncodeUser(u *models.User) (UserTuple, error) {
	code, err := u.AllianceMembership.Code()
	if err != nil {
		return UserTuple{}, fmt.Errorf("encoding user %d: %w", u.UserID, err)
	}

	var lastLogin int64
	if u.LastLoginDate != nil {
		lastLogin = pss.SecondsSinceEpoch(*u.LastLoginDate)
	}

	return UserTuple{
		u.UserID,
		u.UserName,
		u.AllianceID,
		u.Trophy,
		u.AllianceScore,
		code,
		nullable(pss.OptionalSecondsSinceEpoch(u.AllianceJoinDate)),
		lastLogin,
		nullable(pss.OptionalSecondsSinceEpoch(u.LastHeartbeatDate)),
		nullable(u.CrewDonated),
		nullable(u.CrewReceived),
		nullable(u.PvPAttackWins),
		nullable(u.PvPAttackLosses),
		nullable(u.PvPAttackDraws),
		nullable(u.PvPDefenceWins),
		nullable(u.PvPDefenceLosses),
		nullable(u.PvPDefenceDraws),
		nullable(u.ChampionshipScore),
		nullable(u.HighestTrophy),
		nullable(u.TournamentBonusScore),
	}, nil
}

// EncodeAlliances renders every fleet.
func EncodeAlliances(alliances []models.Alliance) []AllianceTuple {
	out := make([]AllianceTuple, len(alliances))
	for i := range alliances {
		out[i] = EncodeAlliance(&alliances[i])
	}
	return out
}

// EncodeUsers renders every user.
func EncodeUsers(users []models.User) ([]UserTuple, error) {
	out := make([]UserTuple, len(users))
	for i := range users {
		t, err := EncodeUser(&users[i])
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// EncodeCollection renders c with all of its children.
func EncodeCollection(c *models.Collection) (*CollectionPayload, error) {
	users, err := EncodeUsers(c.Users)
	if err != nil {
		return nil, err
	}
	return &CollectionPayload{
		Meta:   EncodeMetadata(c),
		Fleets: EncodeAlliances(c.Alliances),
		Users:  users,
	}, nil
}

// nullable unwraps p so that nil encodes as JSON null.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

package schema

import (
	"go-fleetdata/internal/models"
)

// FleetsPayload is a collection with its fleets only.
type FleetsPayload struct {
	Meta   Metadata        `json:"meta" yaml:"meta"`
	Fleets []AllianceTuple `json:"fleets" yaml:"fleets"`
}

// UsersPayload is a collection with users only.
type UsersPayload struct {
	Meta  Metadata    `json:"meta" yaml:"meta"`
	Users []UserTuple `json:"users" yaml:"users"`
}

// AllianceDetail is a fleet within one collection together with its
// members at that time.
type AllianceDetail struct {
	Collection Metadata      `json:"collection" doc:"The collection the fleet was captured in"`
	Fleet      AllianceTuple `json:"fleet" doc:"The fleet"`
	Users      []UserTuple   `json:"users" doc:"Members of the fleet in that collection"`
}

// UserDetail is a user within one collection together with the fleet it
// belonged to, if that fleet was captured.
type UserDetail struct {
	Collection             Metadata       `json:"collection" doc:"The collection the user was captured in"`
	User                   UserTuple      `json:"user" doc:"The user"`
	Fleet                  *AllianceTuple `json:"fleet" doc:"The fleet of the user, null if it was not captured"`
	TournamentAttemptsLeft *int64         `json:"tournament_attempts_left" doc:"Remaining tournament battle attempts, null unless a tournament was running"`
}

// EncodeMeta renders the metadata of every collection.
func EncodeMeta(collections []models.Collection) []Metadata {
	out := make([]Metadata, len(collections))
	for i := range collections {
		out[i] = EncodeMetadata(&collections[i])
	}
	return out
}

// EncodeFleets renders c with its fleets.
func EncodeFleets(c *models.Collection, alliances []models.Alliance) *FleetsPayload {
	return &FleetsPayload{Meta: EncodeMetadata(c), Fleets: EncodeAlliances(alliances)}
}

// EncodeUserList renders c with the given users.
func EncodeUserList(c *models.Collection, users []models.User) (*UsersPayload, error) {
	tuples, err := EncodeUsers(users)
	if err != nil {
		return nil, err
	}
	return &UsersPayload{Meta: EncodeMetadata(c), Users: tuples}, nil
}

// EncodeAllianceDetail renders alliance a of collection c with its members.
func EncodeAllianceDetail(c *models.Collection, a *models.Alliance, members []models.User) (*AllianceDetail, error) {
	users, err := EncodeUsers(members)
	if err != nil {
		return nil, err
	}
	return &AllianceDetail{
		Collection: EncodeMetadata(c),
		Fleet:      EncodeAlliance(a),
		Users:      users,
	}, nil
}

// EncodeUserDetail renders user u of collection c with its alliance a, which
// may be nil.
func EncodeUserDetail(c *models.Collection, u *models.User, a *models.Alliance) (*UserDetail, error) {
	user, err := EncodeUser(u)
	if err != nil {
		return nil, err
	}
	d := &UserDetail{
		Collection:             EncodeMetadata(c),
		User:                   user,
		TournamentAttemptsLeft: models.TournamentAttemptsLeft(c, u),
	}
	if a != nil {
		fleet := EncodeAlliance(a)
		d.Fleet = &fleet
	}
	return d, nil
}

package pss

import "fmt"

// Rank is the membership level of a user within an alliance.
type Rank string

const (
	RankNone         Rank = "None"
	RankCandidate    Rank = "Candidate"
	RankEnsign       Rank = "Ensign"
	RankLieutenant   Rank = "Lieutenant"
	RankMajor        Rank = "Major"
	RankCommander    Rank = "Commander"
	RankViceAdmiral  Rank = "ViceAdmiral"
	RankFleetAdmiral Rank = "FleetAdmiral"
)

// rankCodes is the integer encoding used from schema version 4 on.
var rankCodes = map[Rank]int{
	RankNone:         -1,
	RankFleetAdmiral: 0,
	RankViceAdmiral:  1,
	RankCommander:    2,
	RankMajor:        3,
	RankLieutenant:   4,
	RankEnsign:       5,
	RankCandidate:    6,
}

var ranksByCode = func() map[int]Rank {
	m := make(map[int]Rank, len(rankCodes))
	for r, c := range rankCodes {
		m[c] = r
	}
	return m
}()

// Ranks lists every rank from lowest to highest, None first.
func Ranks() []Rank {
	return []Rank{
		RankNone,
		RankCandidate,
		RankEnsign,
		RankLieutenant,
		RankMajor,
		RankCommander,
		RankViceAdmiral,
		RankFleetAdmiral,
	}
}

// ParseRank looks up a rank by its exact name.
func ParseRank(name string) (Rank, error) {
	r := Rank(name)
	if _, ok := rankCodes[r]; !ok {
		return "", fmt.Errorf("unknown alliance membership %q", name)
	}
	return r, nil
}

// RankFromCode decodes the signed integer encoding (-1..6).
func RankFromCode(code int64) (Rank, error) {
	r, ok := ranksByCode[int(code)]
	if !ok || int64(int(code)) != code {
		return "", fmt.Errorf("unknown alliance membership code %d, expected a value between -1 and 6", code)
	}
	return r, nil
}

// Code returns the integer encoding of r.
func (r Rank) Code() (int, error) {
	c, ok := rankCodes[r]
	if !ok {
		return 0, fmt.Errorf("unknown alliance membership %q", string(r))
	}
	return c, nil
}

// Valid reports whether r is one of the known ranks.
func (r Rank) Valid() bool {
	_, ok := rankCodes[r]
	return ok
}

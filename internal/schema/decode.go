package schema

import (
	"go-fleetdata/internal/fleeterr"
	"go-fleetdata/internal/models"
	"go-fleetdata/internal/pss"
)

// Decoder turns a payload of one schema version into a canonical collection.
// Decoders do not run the model validation; Dispatch does.
type Decoder func(p *Payload) (*models.Collection, error)

type canonicalAlliance interface{ canonical() models.Alliance }

type canonicalUser interface{ canonical() models.User }

type fleetReader func(t tuple) (models.Alliance, error)

type userReader func(t tuple) (models.User, error)

func readFleetAs[T canonicalAlliance](read func(tuple) (T, error)) fleetReader {
	return func(t tuple) (models.Alliance, error) {
		r, err := read(t)
		if err != nil {
			return models.Alliance{}, err
		}
		return r.canonical(), nil
	}
}

func readUserAs[T canonicalUser](read func(tuple) (T, error)) userReader {
	return func(t tuple) (models.User, error) {
		r, err := read(t)
		if err != nil {
			return models.User{}, err
		}
		return r.canonical(), nil
	}
}

// DecodeV2 reads fleets of [id, name, score] and users split into name
// pairs and detail rows. Divisions and alliance trophies are derived.
func DecodeV2(p *Payload) (*models.Collection, error) {
	return decodeLegacy(p, 2, allianceArityV2)
}

// DecodeV3 extends DecodeV2 with an explicit division per fleet. Fleets
// without one still get the derived division.
func DecodeV3(p *Payload) (*models.Collection, error) {
	return decodeLegacy(p, 3, allianceArityV2, allianceArityV3)
}

// DecodeV4 reads flat user tuples with epoch second dates and fleets
// carrying their trophy.
func DecodeV4(p *Payload) (*models.Collection, error) {
	return decodeFlat(p, 4,
		readFleetAs(readAllianceV4), allianceArityV4,
		readUserAs(readUserV4), userArityV4)
}

// DecodeV5 has the shape of DecodeV4.
func DecodeV5(p *Payload) (*models.Collection, error) {
	return decodeFlat(p, 5,
		readFleetAs(readAllianceV4), allianceArityV4,
		readUserAs(readUserV4), userArityV4)
}

// DecodeV6 adds championship scores to fleets and users.
func DecodeV6(p *Payload) (*models.Collection, error) {
	return decodeFlat(p, 6,
		readFleetAs(readAllianceV6), allianceArityV6,
		readUserAs(readUserV6), userArityV6)
}

// DecodeV7 adds member counts to fleets.
func DecodeV7(p *Payload) (*models.Collection, error) {
	return decodeFlat(p, 7,
		readFleetAs(readAllianceV7), allianceArityV7,
		readUserAs(readUserV6), userArityV6)
}

// DecodeV8 adds the highest trophy count to users.
func DecodeV8(p *Payload) (*models.Collection, error) {
	return decodeFlat(p, 8,
		readFleetAs(readAllianceV7), allianceArityV7,
		readUserAs(readUserV8), userArityV8)
}

// DecodeV9 adds the tournament bonus score to users and the battle attempt
// limit to the metadata.
func DecodeV9(p *Payload) (*models.Collection, error) {
	return decodeFlat(p, 9,
		readFleetAs(readAllianceV7), allianceArityV7,
		readUserAs(readUserV9), userArityV9)
}

func decodeLegacy(p *Payload, version int, fleetArities ...int) (*models.Collection, error) {
	m, err := parseMetadata(p.Meta)
	if err != nil {
		return nil, err
	}

	details := make(map[int64]userDataV3, len(p.Data))
	for i, raw := range p.Data {
		t, err := newTuple("user data row", i, raw)
		if err != nil {
			return nil, err
		}
		if err := t.checkArity(userDataArityV3); err != nil {
			return nil, err
		}
		d, err := readUserDataV3(t)
		if err != nil {
			return nil, err
		}
		details[d.ID] = d
	}

	users := newUserSet(len(p.Users))
	for i, raw := range p.Users {
		t, err := newTuple("user", i, raw)
		if err != nil {
			return nil, err
		}
		if err := t.checkArity(userArityV3); err != nil {
			return nil, err
		}
		u, err := readUserV3(t)
		if err != nil {
			return nil, err
		}
		d, ok := details[u.ID]
		if !ok {
			return nil, fleeterr.SchemaValidation("the user at index %d (ID %d) has no corresponding entry in data", i, u.ID)
		}
		users.put(u.canonical(d))
	}

	fleets := newFleetSet(len(p.Fleets))
	for i, raw := range p.Fleets {
		t, err := newTuple("fleet", i, raw)
		if err != nil {
			return nil, err
		}
		if err := t.checkArity(fleetArities...); err != nil {
			return nil, err
		}
		if t.arity() == allianceArityV2 {
			a, err := readAllianceV2(t)
			if err != nil {
				return nil, err
			}
			fleet := a.canonical()
			fleet.DivisionDesignID = divisionForRank(i, m.TourneyRunning)
			fleets.put(fleet)
			continue
		}
		a, err := readAllianceV3(t)
		if err != nil {
			return nil, err
		}
		fleets.put(a.canonical())
	}

	c := newCollection(m, version)
	c.Alliances = fleets.items
	c.Users = users.items
	backfillTrophies(c)
	return c, nil
}

func decodeFlat(p *Payload, version int, readFleet fleetReader, fleetArity int, readUser userReader, userArity int) (*models.Collection, error) {
	m, err := parseMetadata(p.Meta)
	if err != nil {
		return nil, err
	}
	if version >= 9 {
		if err := m.checkTournamentAttempts(); err != nil {
			return nil, err
		}
	}

	fleets := newFleetSet(len(p.Fleets))
	for i, raw := range p.Fleets {
		t, err := newTuple("fleet", i, raw)
		if err != nil {
			return nil, err
		}
		if err := t.checkArity(fleetArity); err != nil {
			return nil, err
		}
		a, err := readFleet(t)
		if err != nil {
			return nil, err
		}
		fleets.put(a)
	}

	users := newUserSet(len(p.Users))
	for i, raw := range p.Users {
		t, err := newTuple("user", i, raw)
		if err != nil {
			return nil, err
		}
		if err := t.checkArity(userArity); err != nil {
			return nil, err
		}
		u, err := readUser(t)
		if err != nil {
			return nil, err
		}
		users.put(u)
	}

	c := newCollection(m, version)
	c.Alliances = fleets.items
	c.Users = users.items
	backfillTrophies(c)
	return c, nil
}

func newCollection(m *metadata, version int) *models.Collection {
	c := &models.Collection{
		CollectedAt:       m.Timestamp,
		Duration:          m.Duration,
		FleetCount:        m.FleetCount,
		UserCount:         m.UserCount,
		TournamentRunning: m.TourneyRunning,
	}
	if version >= 9 {
		c.MaxTournamentBattleAttempts = m.MaxTournamentBattleAttempts
	}
	// The declared data_version wins over the schema version the payload
	// was decoded with.
	dv := version
	if m.DataVersion != nil {
		dv = *m.DataVersion
	}
	c.DataVersion = max(dv, pss.OldestSchemaVersion)
	return c
}

// divisionForRank derives the division of a fleet from its position in the
// ranking. Outside of tournaments there are no divisions.
func divisionForRank(rank int, tourneyRunning bool) int {
	if !tourneyRunning {
		return 0
	}
	switch {
	case rank < 8:
		return 1
	case rank < 20:
		return 2
	case rank < 50:
		return 3
	default:
		return 4
	}
}

// backfillTrophies sets the trophy of fleets that carry none to the sum of
// their members' trophies.
func backfillTrophies(c *models.Collection) {
	sums := make(map[int64]int64, len(c.Alliances))
	for _, u := range c.Users {
		sums[u.AllianceID] += u.Trophy
	}
	for i := range c.Alliances {
		if c.Alliances[i].Trophy != nil {
			continue
		}
		sum := sums[c.Alliances[i].AllianceID]
		c.Alliances[i].Trophy = &sum
	}
}

// fleetSet keeps fleets in upload order; a repeated ID replaces the earlier
// entry in place.
type fleetSet struct {
	index map[int64]int
	items []models.Alliance
}

func newFleetSet(n int) *fleetSet {
	return &fleetSet{index: make(map[int64]int, n), items: make([]models.Alliance, 0, n)}
}

func (s *fleetSet) put(a models.Alliance) {
	if i, ok := s.index[a.AllianceID]; ok {
		s.items[i] = a
		return
	}
	s.index[a.AllianceID] = len(s.items)
	s.items = append(s.items, a)
}

// userSet is fleetSet for users.
type userSet struct {
	index map[int64]int
	items []models.User
}

func newUserSet(n int) *userSet {
	return &userSet{index: make(map[int64]int, n), items: make([]models.User, 0, n)}
}

func (s *userSet) put(u models.User) {
	if i, ok := s.index[u.UserID]; ok {
		s.items[i] = u
		return
	}
	s.index[u.UserID] = len(s.items)
	s.items = append(s.items, u)
}

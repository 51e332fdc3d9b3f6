package player

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"pokestate/internal/apperr"
	"pokestate/internal/logger"
	"pokestate/internal/page"
	"pokestate/internal/pokemon"
)

const idPrefix = "player_"

// ChangeKind names a mutation observed on the store.
type ChangeKind string

const (
	ChangePlayerCreated   ChangeKind = "player_created"
	ChangePlayerUpdated   ChangeKind = "player_updated"
	ChangePlayerDeleted   ChangeKind = "player_deleted"
	ChangeTeamUpdated     ChangeKind = "team_updated"
	ChangeLocationUpdated ChangeKind = "location_updated"
	ChangeThoughtAdded    ChangeKind = "thought_added"
	ChangeBattleStarted   ChangeKind = "battle_started"
	ChangeBattleConcluded ChangeKind = "battle_concluded"
	ChangeStoreReplaced   ChangeKind = "store_replaced"
)

// Change describes one applied mutation. It is delivered after the store lock
// is released.
type Change struct {
	Kind     ChangeKind
	PlayerID string
	Detail   string
}

type Option func(*Store)

// WithClock overrides time.Now, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

func WithLogger(log *logger.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithObserver registers a callback for every applied mutation.
func WithObserver(fn func(Change)) Option {
	return func(s *Store) { s.observers = append(s.observers, fn) }
}

// Store is the process-wide source of truth for current player state. All
// read-modify-write sequences run under one mutex and every value handed out
// is a deep copy.
type Store struct {
	mu        sync.RWMutex
	players   map[string]*Player
	order     []string
	nextID    int
	clock     func() time.Time
	log       *logger.Logger
	observers []func(Change)
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		players: make(map[string]*Player),
		nextID:  1,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) now() time.Time {
	return s.clock().UTC().Round(0)
}

// Create allocates a new player from spec.
func (s *Store) Create(spec Spec) (*Player, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return nil, apperr.New(apperr.CodeValidation, "player name is required")
	}
	if len(spec.Team) > MaxTeamSize {
		return nil, apperr.New(apperr.CodeCapacityExceeded, fmt.Sprintf("team has %d members, maximum is %d", len(spec.Team), MaxTeamSize))
	}
	for _, member := range spec.Team {
		if err := member.Validate(); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	now := s.now()
	p := &Player{
		ID:             fmt.Sprintf("%s%d", idPrefix, s.nextID),
		Name:           strings.TrimSpace(spec.Name),
		Team:           make([]*pokemon.Pokemon, 0, len(spec.Team)),
		Location:       spec.Location.Clone(),
		ThoughtHistory: []Thought{},
		BattleHistory:  []*Battle{},
		MatchupRecords: map[string]*MatchupRecord{},
		Items:          append([]string{}, spec.Items...),
		Badges:         badgeSet(spec.Badges),
		NextPokemonID:  1,
		CreatedAt:      now,
		LastUpdated:    now,
	}
	for _, member := range spec.Team {
		p.Team = append(p.Team, pokemon.New(p.NextPokemonID, member))
		p.NextPokemonID++
	}
	s.nextID++
	s.players[p.ID] = p
	s.order = append(s.order, p.ID)
	out := p.Clone()
	s.mu.Unlock()

	s.notify(Change{Kind: ChangePlayerCreated, PlayerID: out.ID, Detail: out.Name})
	return out, nil
}

func (s *Store) Get(id string) (*Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

// List returns one page of players in creation order.
func (s *Store) List(pageNum, perPage int) page.Result[*Player] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req := page.Clamp(pageNum, perPage, page.DefaultSize)
	result := page.Slice(s.order, req)
	players := make([]*Player, 0, len(result.Items))
	for _, id := range result.Items {
		players = append(players, s.players[id].Clone())
	}
	return page.Result[*Player]{
		Items:      players,
		Total:      result.Total,
		Page:       result.Page,
		PerPage:    result.PerPage,
		TotalPages: result.TotalPages,
	}
}

// All returns deep copies of every player in creation order.
func (s *Store) All() []*Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Player, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.players[id].Clone())
	}
	return out
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

// Update replaces name, location, items and badges.
func (s *Store) Update(id string, spec UpdateSpec) (*Player, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return nil, apperr.New(apperr.CodeValidation, "player name is required")
	}
	s.mu.Lock()
	p, err := s.lookup(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	p.Name = strings.TrimSpace(spec.Name)
	p.Location = spec.Location.Clone()
	p.Items = append([]string{}, spec.Items...)
	p.Badges = badgeSet(spec.Badges)
	s.touch(p)
	out := p.Clone()
	s.mu.Unlock()

	s.notify(Change{Kind: ChangePlayerUpdated, PlayerID: id})
	return out, nil
}

// Delete removes the player together with everything it owns.
func (s *Store) Delete(id string) (*Player, error) {
	s.mu.Lock()
	p, err := s.lookup(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	delete(s.players, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.notify(Change{Kind: ChangePlayerDeleted, PlayerID: id, Detail: p.Name})
	return p, nil
}

// Replace swaps the whole store for players, as done when a save is loaded.
// There is no merge with the previous contents.
func (s *Store) Replace(players []*Player) {
	next := make(map[string]*Player, len(players))
	order := make([]string, 0, len(players))
	maxSuffix := 0
	for _, p := range players {
		if p == nil {
			continue
		}
		c := p.Clone()
		normalize(c)
		if _, dup := next[c.ID]; !dup {
			order = append(order, c.ID)
		}
		next[c.ID] = c
		if n, ok := idSuffix(c.ID); ok && n > maxSuffix {
			maxSuffix = n
		}
	}

	s.mu.Lock()
	s.players = next
	s.order = order
	if maxSuffix >= s.nextID {
		s.nextID = maxSuffix + 1
	}
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeStoreReplaced, Detail: strconv.Itoa(len(order))})
}

func (s *Store) Team(id string) ([]*pokemon.Pokemon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return pokemon.CloneTeam(p.Team), nil
}

// AddTeamMember appends a new member with the player's next Pokémon id.
func (s *Store) AddTeamMember(id string, spec pokemon.Spec) (*pokemon.Pokemon, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	p, err := s.lookup(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if len(p.Team) >= MaxTeamSize {
		s.mu.Unlock()
		return nil, apperr.New(apperr.CodeCapacityExceeded, fmt.Sprintf("team already has maximum %d pokemon", MaxTeamSize))
	}
	member := pokemon.New(p.NextPokemonID, spec)
	p.NextPokemonID++
	p.Team = append(p.Team, member)
	s.touch(p)
	out := member.Clone()
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeTeamUpdated, PlayerID: id, Detail: "added " + out.Name})
	return out, nil
}

// UpdateTeamMember replaces the member at index, keeping its id. HP is reset
// from the new base stats.
func (s *Store) UpdateTeamMember(id string, index int, spec pokemon.Spec) (*pokemon.Pokemon, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	p, err := s.lookup(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := checkIndex(p, index); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	member := pokemon.New(p.Team[index].ID, spec)
	p.Team[index] = member
	s.touch(p)
	out := member.Clone()
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeTeamUpdated, PlayerID: id, Detail: "replaced " + out.Name})
	return out, nil
}

// RemoveTeamMember removes by position; later members shift down by one.
func (s *Store) RemoveTeamMember(id string, index int) (*pokemon.Pokemon, error) {
	s.mu.Lock()
	p, err := s.lookup(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := checkIndex(p, index); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	removed := p.Team[index]
	p.Team = append(p.Team[:index], p.Team[index+1:]...)
	s.touch(p)
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeTeamUpdated, PlayerID: id, Detail: "removed " + removed.Name})
	return removed, nil
}

func (s *Store) Location(id string) (Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.lookup(id)
	if err != nil {
		return Location{}, err
	}
	return p.Location.Clone(), nil
}

func (s *Store) SetLocation(id string, loc Location) (Location, error) {
	s.mu.Lock()
	p, err := s.lookup(id)
	if err != nil {
		s.mu.Unlock()
		return Location{}, err
	}
	p.Location = loc.Clone()
	s.touch(p)
	out := p.Location.Clone()
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeLocationUpdated, PlayerID: id, Detail: strings.Join(out.Path, " > ")})
	return out, nil
}

// AppendThought adds an entry to the thought log with a server timestamp.
func (s *Store) AppendThought(id, content, category string, context map[string]any) (Thought, error) {
	if strings.TrimSpace(category) == "" {
		category = DefaultThoughtCategory
	}
	s.mu.Lock()
	p, err := s.lookup(id)
	if err != nil {
		s.mu.Unlock()
		return Thought{}, err
	}
	ts := s.now()
	if n := len(p.ThoughtHistory); n > 0 && ts.Before(p.ThoughtHistory[n-1].Timestamp) {
		ts = p.ThoughtHistory[n-1].Timestamp
	}
	thought := Thought{
		Content:   content,
		Category:  category,
		Timestamp: ts,
		Context:   cloneMap(context),
	}
	p.ThoughtHistory = append(p.ThoughtHistory, thought)
	s.touch(p)
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeThoughtAdded, PlayerID: id, Detail: category})
	return thought.Clone(), nil
}

// Thoughts lists the thought log newest first, optionally by category.
func (s *Store) Thoughts(id string, filter ThoughtFilter, pageNum, perPage int) (page.Result[Thought], error) {
	s.mu.RLock()
	p, err := s.lookup(id)
	if err != nil {
		s.mu.RUnlock()
		return page.Result[Thought]{}, err
	}
	matched := make([]Thought, 0, len(p.ThoughtHistory))
	for i := len(p.ThoughtHistory) - 1; i >= 0; i-- {
		t := p.ThoughtHistory[i]
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		matched = append(matched, t.Clone())
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})
	return page.Slice(matched, page.Clamp(pageNum, perPage, page.DefaultSize)), nil
}

// StartBattle records a new in-progress battle holding a copy of the
// player's current team.
func (s *Store) StartBattle(id, opponentID, opponentName string) (*Battle, error) {
	s.mu.Lock()
	p, err := s.lookup(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	battle := &Battle{
		ID:           fmt.Sprintf("battle_%d", len(p.BattleHistory)+1),
		OpponentID:   opponentID,
		OpponentName: opponentName,
		PlayerTeam:   pokemon.CloneTeam(p.Team),
		OpponentTeam: []*pokemon.Pokemon{},
		StartTime:    s.now(),
		Turns:        []map[string]any{},
	}
	p.BattleHistory = append(p.BattleHistory, battle)
	s.touch(p)
	out := battle.Clone()
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeBattleStarted, PlayerID: id, Detail: out.ID})
	return out, nil
}

func (s *Store) Battle(id, battleID string) (*Battle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	b, err := findBattle(p, battleID)
	if err != nil {
		return nil, err
	}
	return b.Clone(), nil
}

// Battles lists battle history newest first, optionally by opponent.
func (s *Store) Battles(id string, filter BattleFilter, pageNum, perPage int) (page.Result[*Battle], error) {
	s.mu.RLock()
	p, err := s.lookup(id)
	if err != nil {
		s.mu.RUnlock()
		return page.Result[*Battle]{}, err
	}
	matched := make([]*Battle, 0, len(p.BattleHistory))
	for i := len(p.BattleHistory) - 1; i >= 0; i-- {
		b := p.BattleHistory[i]
		if filter.OpponentID != "" && b.OpponentID != filter.OpponentID {
			continue
		}
		matched = append(matched, b.Clone())
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].StartTime.After(matched[j].StartTime)
	})
	return page.Slice(matched, page.Clamp(pageNum, perPage, page.DefaultSize)), nil
}

// ConcludeBattle sets the result of an in-progress battle and folds it into
// the opponent's matchup record. A concluded battle cannot be concluded again.
func (s *Store) ConcludeBattle(id, battleID, result string) (*Battle, error) {
	s.mu.Lock()
	p, err := s.lookup(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	b, err := findBattle(p, battleID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	r, err := ParseResult(result)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	now := s.now()
	if err := b.conclude(r, now); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	record, ok := p.MatchupRecords[b.OpponentID]
	if !ok {
		record = &MatchupRecord{OpponentID: b.OpponentID, OpponentName: b.OpponentName}
		p.MatchupRecords[b.OpponentID] = record
	}
	record.record(r, now)
	s.touch(p)
	out := b.Clone()
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeBattleConcluded, PlayerID: id, Detail: fmt.Sprintf("%s %s vs %s", out.ID, r, out.OpponentID)})
	return out, nil
}

func (s *Store) Matchups(id string) (map[string]*MatchupRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*MatchupRecord, len(p.MatchupRecords))
	for k, v := range p.MatchupRecords {
		out[k] = v.Clone()
	}
	return out, nil
}

func (s *Store) Matchup(id, opponentID string) (*MatchupRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	record, ok := p.MatchupRecords[opponentID]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, fmt.Sprintf("matchup record with opponent %s not found", opponentID))
	}
	return record.Clone(), nil
}

func (s *Store) lookup(id string) (*Player, error) {
	p, ok := s.players[id]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, fmt.Sprintf("player with ID %s not found", id))
	}
	return p, nil
}

// touch refreshes last_updated, never letting it fall behind created_at.
func (s *Store) touch(p *Player) {
	now := s.now()
	if now.Before(p.CreatedAt) {
		now = p.CreatedAt
	}
	p.LastUpdated = now
}

func (s *Store) notify(change Change) {
	if s.log != nil {
		s.log.Event(string(change.Kind), change.PlayerID, change.Detail)
	}
	for _, fn := range s.observers {
		fn(change)
	}
}

func checkIndex(p *Player, index int) error {
	if index < 0 || index >= len(p.Team) {
		return apperr.New(apperr.CodeIndexOutOfRange, fmt.Sprintf("pokemon at index %d not found", index))
	}
	return nil
}

func findBattle(p *Player, battleID string) (*Battle, error) {
	for _, b := range p.BattleHistory {
		if b.ID == battleID {
			return b, nil
		}
	}
	return nil, apperr.New(apperr.CodeNotFound, fmt.Sprintf("battle with ID %s not found", battleID))
}

func idSuffix(id string) (int, bool) {
	if !strings.HasPrefix(id, idPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, idPrefix))
	if err != nil {
		return 0, false
	}
	return n, true
}

// normalize fills collections that older or hand-edited documents may omit
// and makes sure the next Pokémon id is past every id on the team.
func normalize(p *Player) {
	if p.Team == nil {
		p.Team = []*pokemon.Pokemon{}
	}
	if p.ThoughtHistory == nil {
		p.ThoughtHistory = []Thought{}
	}
	if p.BattleHistory == nil {
		p.BattleHistory = []*Battle{}
	}
	if p.MatchupRecords == nil {
		p.MatchupRecords = map[string]*MatchupRecord{}
	}
	if p.Items == nil {
		p.Items = []string{}
	}
	p.Badges = badgeSet(p.Badges)
	maxID := 0
	for _, member := range p.Team {
		if member != nil && member.ID > maxID {
			maxID = member.ID
		}
	}
	if p.NextPokemonID <= maxID {
		p.NextPokemonID = maxID + 1
	}
	if p.LastUpdated.Before(p.CreatedAt) {
		p.LastUpdated = p.CreatedAt
	}
}

package brawlstars

// BattleKind distinguishes the shapes a battle takes in the battle log.
type BattleKind string

// Battle kinds.
const (
	BattleTeam BattleKind = "team"
	BattleSolo BattleKind = "solo"
	BattleDuel BattleKind = "duel"
	BattleBoss BattleKind = "boss"
)

// BattleBrawler is the brawler a player used in a battle.
type BattleBrawler struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Power        int    `json:"power"`
	Trophies     int    `json:"trophies"`
	TrophyChange *int   `json:"trophyChange,omitempty"`
}

// BattlePlayer is a battle participant. Duel participants list several
// Brawlers; everyone else has a single Brawler.
type BattlePlayer struct {
	Tag      string          `json:"tag"`
	Name     string          `json:"name"`
	Brawler  *BattleBrawler  `json:"brawler,omitempty"`
	Brawlers []BattleBrawler `json:"brawlers,omitempty"`
}

// BossLevel is the difficulty of a boss fight.
type BossLevel struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Battle holds the fields of every battle shape. Which ones are set
// depends on Kind.
type Battle struct {
	Mode         string           `json:"mode"`
	Type         string           `json:"type,omitempty"`
	Result       string           `json:"result,omitempty"`
	Duration     int              `json:"duration,omitempty"`
	Rank         int              `json:"rank,omitempty"`
	TrophyChange *int             `json:"trophyChange,omitempty"`
	StarPlayer   *BattlePlayer    `json:"starPlayer,omitempty"`
	Teams        [][]BattlePlayer `json:"teams,omitempty"`
	Players      []BattlePlayer   `json:"players,omitempty"`
	Level        *BossLevel       `json:"level,omitempty"`
}

// Kind classifies the battle by the fields present.
func (b *Battle) Kind() BattleKind {
	switch {
	case len(b.Teams) > 0:
		return BattleTeam
	case b.Level != nil:
		return BattleBoss
	case b.Rank > 0:
		return BattleSolo
	}
	for _, p := range b.Players {
		if len(p.Brawlers) > 0 {
			return BattleDuel
		}
	}
	return BattleSolo
}

// BattleLogEntry is one battle from a player's recent history.
type BattleLogEntry struct {
	BattleTime Time   `json:"battleTime"`
	Event      Event  `json:"event"`
	Battle     Battle `json:"battle"`
}

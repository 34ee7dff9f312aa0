package brawlstars

// Icon identifies a player profile icon.
type Icon struct {
	ID int `json:"id"`
}

// PlayerClub is the club summary embedded in a player profile.
type PlayerClub struct {
	Tag  string `json:"tag"`
	Name string `json:"name"`
}

// Player is a player profile.
type Player struct {
	Tag                                  string        `json:"tag"`
	Name                                 string        `json:"name"`
	NameColor                            string        `json:"nameColor"`
	Icon                                 Icon          `json:"icon"`
	Trophies                             int           `json:"trophies"`
	HighestTrophies                      int           `json:"highestTrophies"`
	ExpLevel                             int           `json:"expLevel"`
	ExpPoints                            int           `json:"expPoints"`
	IsQualifiedFromChampionshipChallenge bool          `json:"isQualifiedFromChampionshipChallenge"`
	TrioVictories                        int           `json:"3vs3Victories"`
	SoloVictories                        int           `json:"soloVictories"`
	DuoVictories                         int           `json:"duoVictories"`
	BestRoboRumbleTime                   int           `json:"bestRoboRumbleTime"`
	BestTimeAsBigBrawler                 int           `json:"bestTimeAsBigBrawler"`
	Club                                 *PlayerClub   `json:"club,omitempty"`
	Brawlers                             []BrawlerStat `json:"brawlers"`
}

// InClub reports whether the player belongs to a club. The API sends an
// empty object for club-less players.
func (p *Player) InClub() bool {
	return p.Club != nil && p.Club.Tag != ""
}

// Gadget is a brawler gadget.
type Gadget struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// StarPower is a brawler star power.
type StarPower struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Gear is an equipped gear with its level.
type Gear struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// Brawler is a brawler definition from the catalogue.
type Brawler struct {
	ID         int         `json:"id"`
	Name       string      `json:"name"`
	StarPowers []StarPower `json:"starPowers"`
	Gadgets    []Gadget    `json:"gadgets"`
}

// BrawlerStat is a player's progress on one brawler.
type BrawlerStat struct {
	ID               int         `json:"id"`
	Name             string      `json:"name"`
	Power            int         `json:"power"`
	Rank             int         `json:"rank"`
	Trophies         int         `json:"trophies"`
	HighestTrophies  int         `json:"highestTrophies"`
	MaxWinStreak     int         `json:"maxWinStreak"`
	CurrentWinStreak int         `json:"currentWinStreak"`
	Gears            []Gear      `json:"gears"`
	Gadgets          []Gadget    `json:"gadgets"`
	StarPowers       []StarPower `json:"starPowers"`
}

// ClubRole is a member's role within a club.
type ClubRole string

// Club roles.
const (
	RoleMember        ClubRole = "member"
	RoleSenior        ClubRole = "senior"
	RoleVicePresident ClubRole = "vicePresident"
	RolePresident     ClubRole = "president"
	RoleNotMember     ClubRole = "notMember"
	RoleUnknown       ClubRole = "unknown"
)

// ClubType is a club's join policy.
type ClubType string

// Club types.
const (
	ClubOpen       ClubType = "open"
	ClubInviteOnly ClubType = "inviteOnly"
	ClubClosed     ClubType = "closed"
	ClubUnknown    ClubType = "unknown"
)

// ClubMember is one entry of a club's member list.
type ClubMember struct {
	Tag       string   `json:"tag"`
	Name      string   `json:"name"`
	NameColor string   `json:"nameColor"`
	Trophies  int      `json:"trophies"`
	Role      ClubRole `json:"role"`
	Icon      Icon     `json:"icon"`
}

// Club is a club profile.
type Club struct {
	Tag              string       `json:"tag"`
	Name             string       `json:"name"`
	Description      string       `json:"description"`
	Trophies         int          `json:"trophies"`
	RequiredTrophies int          `json:"requiredTrophies"`
	Members          []ClubMember `json:"members"`
	Type             ClubType     `json:"type"`
	BadgeID          int          `json:"badgeId"`
}

// President returns the club president, if listed.
func (c *Club) President() (ClubMember, bool) {
	for _, m := range c.Members {
		if m.Role == RolePresident {
			return m, true
		}
	}
	return ClubMember{}, false
}

// ClubName is the club summary embedded in rankings.
type ClubName struct {
	Name string `json:"name"`
}

// GameMode is a game mode from the catalogue.
type GameMode struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Event is a map slot. Mode and Map are empty for community maps.
type Event struct {
	ID     int    `json:"id"`
	ModeID int    `json:"modeId"`
	Mode   string `json:"mode,omitempty"`
	Map    string `json:"map,omitempty"`
}

// EventEntry is one slot of the current event rotation.
type EventEntry struct {
	Event     Event `json:"event"`
	StartTime Time  `json:"startTime"`
	EndTime   Time  `json:"endTime"`
	SlotID    int   `json:"slotId"`
}

// PlayerRanking is a row of a player or brawler leaderboard.
type PlayerRanking struct {
	Tag       string    `json:"tag"`
	Name      string    `json:"name"`
	Rank      int       `json:"rank"`
	Trophies  int       `json:"trophies"`
	NameColor string    `json:"nameColor"`
	Club      *ClubName `json:"club,omitempty"`
	Icon      Icon      `json:"icon"`
}

// ClubRanking is a row of a club leaderboard.
type ClubRanking struct {
	Tag         string `json:"tag"`
	Name        string `json:"name"`
	Rank        int    `json:"rank"`
	Trophies    int    `json:"trophies"`
	MemberCount int    `json:"memberCount"`
	BadgeID     int    `json:"badgeId"`
}

// Cursors are the opaque pagination markers of a list response.
type Cursors struct {
	After  string `json:"after,omitempty"`
	Before string `json:"before,omitempty"`
}

// Paging wraps the cursors of a list response.
type Paging struct {
	Cursors Cursors `json:"cursors"`
}

// Page is a paginated list response.
type Page[T any] struct {
	Items  []T    `json:"items"`
	Paging Paging `json:"paging"`
}

// HasNext reports whether a following page exists.
func (p *Page[T]) HasNext() bool {
	return p.Paging.Cursors.After != ""
}

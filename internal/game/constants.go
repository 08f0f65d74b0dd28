package game

// Character is the closed roster of playable characters. Stored by name, not
// as a separate table.
type Character string

const (
	Ahri       Character = "Ahri"
	Blitzcrank Character = "Blitzcrank"
	Braum      Character = "Braum"
	Darius     Character = "Darius"
	Ekko       Character = "Ekko"
	Illaoi     Character = "Illaoi"
	Jinx       Character = "Jinx"
	Teemo      Character = "Teemo"
	Vi         Character = "Vi"
	Warwick    Character = "Warwick"
	Yasuo      Character = "Yasuo"
)

var Characters = []Character{
	Ahri, Blitzcrank, Braum, Darius, Ekko, Illaoi, Jinx, Teemo, Vi, Warwick, Yasuo,
}

// Fuse is the team mechanic a duo starts the match with.
type Fuse string

const (
	FuseDoubleDown Fuse = "DoubleDown"
	FuseSidekick   Fuse = "Sidekick"
	FuseJuggernaut Fuse = "Juggernaut"
	FuseFury       Fuse = "Fury"
	FuseFreestyle  Fuse = "Freestyle"
)

var Fuses = []Fuse{FuseDoubleDown, FuseSidekick, FuseJuggernaut, FuseFury, FuseFreestyle}

type MatchContext string

const (
	ContextRanked     MatchContext = "ranked"
	ContextCasual     MatchContext = "casual"
	ContextTournament MatchContext = "tournament"
)

var MatchContexts = []MatchContext{ContextRanked, ContextCasual, ContextTournament}

type PlayerRole string

const (
	RolePoint  PlayerRole = "point"
	RoleAssist PlayerRole = "assist"
)

type VideoPlatform string

const (
	PlatformYouTube VideoPlatform = "youtube"
	PlatformTwitch  VideoPlatform = "twitch"
)

func ValidCharacter(c Character) bool {
	for _, v := range Characters {
		if v == c {
			return true
		}
	}
	return false
}

func ValidFuse(f Fuse) bool {
	for _, v := range Fuses {
		if v == f {
			return true
		}
	}
	return false
}

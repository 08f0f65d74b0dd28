package game

import "time"

// TeamInput identifies a team by its natural key. Identical tuples share one
// stored team row.
type TeamInput struct {
	PointChar           Character `json:"pointChar" validate:"required,character"`
	AssistChar          Character `json:"assistChar" validate:"required,character,nefield=PointChar"`
	Fuse                Fuse      `json:"fuse" validate:"required,fuse"`
	CharSwapBeforeRound bool      `json:"charSwapBeforeRound"`
}

type SideInput struct {
	Team             TeamInput `json:"team"`
	PointPlayerName  string    `json:"pointPlayerName" validate:"required"`
	AssistPlayerName *string   `json:"assistPlayerName" validate:"omitempty,min=1"`
}

// MatchInput is a validated match submission. The video URL is re-resolved to
// an external id inside the writer even though validation already checked it.
type MatchInput struct {
	Video string    `json:"video" validate:"required,youtubeurl"`
	Left  SideInput `json:"left"`
	Right SideInput `json:"right"`
	Patch string    `json:"patch"`
}

type Team struct {
	ID                  int64     `json:"id"`
	PointChar           Character `json:"pointChar"`
	AssistChar          Character `json:"assistChar"`
	Fuse                Fuse      `json:"fuse"`
	CharSwapBeforeRound bool      `json:"charSwapBeforeRound"`
}

type PlayerRef struct {
	Name string `json:"name"`
}

type SidePlayer struct {
	Role   PlayerRole `json:"role"`
	Player PlayerRef  `json:"player"`
}

type MatchSide struct {
	Team        Team         `json:"team"`
	SidePlayers []SidePlayer `json:"sidePlayers"`
}

type Video struct {
	ID         int64         `json:"id"`
	Platform   VideoPlatform `json:"platform"`
	ExternalID string        `json:"externalId"`
	URL        string        `json:"url"`
}

// CombinedMatchInfo is the nested read shape for a single match.
type CombinedMatchInfo struct {
	ID        int64         `json:"id"`
	Video     Video         `json:"video"`
	StartSec  int           `json:"startSec"`
	EndSec    *int          `json:"endSec"`
	Title     *string       `json:"title"`
	Context   *MatchContext `json:"context"`
	Patch     *string       `json:"patch"`
	Notes     *string       `json:"notes"`
	CreatedAt time.Time     `json:"created_at"`
	LeftSide  MatchSide     `json:"leftSide"`
	RightSide MatchSide     `json:"rightSide"`
}

// MatchFilter narrows a match query. All fields are optional and combine with
// AND across kinds.
type MatchFilter struct {
	Player    string      `json:"player"`
	Character []Character `json:"character"`
	Fuse      []Fuse      `json:"fuse"`
	Patch     string      `json:"patch"`
	Limit     int         `json:"limit"`
	Page      int         `json:"page"`
}

type MatchPage struct {
	Rows       []CombinedMatchInfo `json:"rows"`
	TotalCount int                 `json:"totalCount"`
	Offset     int                 `json:"offset"`
}

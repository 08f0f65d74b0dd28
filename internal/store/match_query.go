package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mverbeck/vodlog/internal/game"
	"github.com/mverbeck/vodlog/internal/querybuilder"
)

// Column manifests for the three sub-views the match query is assembled from.
// The side view is aggregated to one row per match side; the outer query
// joins it twice (left/right) onto the match+video view.

var sideColumns = []querybuilder.Column{
	{Name: "id", Expr: "ms.id"},
	{Name: "team_id", Expr: "t.id"},
	{Name: "point_char", Expr: "t.point_char"},
	{Name: "assist_char", Expr: "t.assist_char"},
	{Name: "fuse", Expr: "t.fuse"},
	{Name: "char_swap", Expr: "t.char_swap_before_round"},
	{Name: "players", Expr: "json_group_array(json_object('name', p.name, 'role', msp.role))"},
}

var matchColumns = []querybuilder.Column{
	{Name: "match_id", Expr: "m.id"},
	{Name: "match_left_side_id", Expr: "m.left_side_id"},
	{Name: "match_right_side_id", Expr: "m.right_side_id"},
	{Name: "match_start_sec", Expr: "m.start_sec"},
	{Name: "match_end_sec", Expr: "m.end_sec"},
	{Name: "match_title", Expr: "m.title"},
	{Name: "match_context", Expr: "m.context"},
	{Name: "match_patch", Expr: "m.patch"},
	{Name: "match_notes", Expr: "m.notes"},
	{Name: "match_created_at", Expr: "m.created_at"},
}

var videoColumns = []querybuilder.Column{
	{Name: "video_id", Expr: "v.id"},
	{Name: "video_platform", Expr: "v.platform"},
	{Name: "video_external_id", Expr: "v.external_id"},
	{Name: "video_url", Expr: "v.url"},
}

type combinedRow struct {
	MatchID          int64              `db:"match_id"`
	MatchLeftSideID  int64              `db:"match_left_side_id"`
	MatchRightSideID int64              `db:"match_right_side_id"`
	MatchStartSec    int                `db:"match_start_sec"`
	MatchEndSec      *int               `db:"match_end_sec"`
	MatchTitle       *string            `db:"match_title"`
	MatchContext     *game.MatchContext `db:"match_context"`
	MatchPatch       *string            `db:"match_patch"`
	MatchNotes       *string            `db:"match_notes"`
	MatchCreatedAt   time.Time          `db:"match_created_at"`

	VideoID         int64              `db:"video_id"`
	VideoPlatform   game.VideoPlatform `db:"video_platform"`
	VideoExternalID string             `db:"video_external_id"`
	VideoURL        string             `db:"video_url"`

	LeftID         int64          `db:"left_id"`
	LeftTeamID     int64          `db:"left_team_id"`
	LeftPointChar  game.Character `db:"left_point_char"`
	LeftAssistChar game.Character `db:"left_assist_char"`
	LeftFuse       game.Fuse      `db:"left_fuse"`
	LeftCharSwap   bool           `db:"left_char_swap"`
	LeftPlayers    string         `db:"left_players"`

	RightID         int64          `db:"right_id"`
	RightTeamID     int64          `db:"right_team_id"`
	RightPointChar  game.Character `db:"right_point_char"`
	RightAssistChar game.Character `db:"right_assist_char"`
	RightFuse       game.Fuse      `db:"right_fuse"`
	RightCharSwap   bool           `db:"right_char_swap"`
	RightPlayers    string         `db:"right_players"`
}

// matchQuery assembles the filtered match query:
//
//	WITH side_info AS (per-side aggregate with computed filter flags),
//	     match_video AS (match joined with its video source)
//	SELECT ... FROM match_video mv
//	LEFT JOIN side_info ls/rs ON the two side ids
//	WHERE <flag and character predicates>
//
// The player/fuse flags pass when either side passes; each requested
// character must appear in one of the four character slots, and multiple
// requested characters all have to appear somewhere. That asymmetry is
// deliberate.
func (s *MatchStore) matchQuery(f game.MatchFilter, extra ...querybuilder.Condition) *querybuilder.SelectBuilder {
	side := querybuilder.Select().Columns(sideColumns)

	// Filter flags are OR-aggregated over the side's player rows with max():
	// a duo side passes the player filter when either member's name matches.
	if f.Player != "" {
		side.Column("max(p.name LIKE ?) AS player_filter", "%"+f.Player+"%")
	} else {
		side.Column("1 AS player_filter")
	}
	if len(f.Fuse) > 0 {
		side.Column("max(t.fuse IN ("+placeholders(len(f.Fuse))+")) AS fuse_filter", asAnySlice(f.Fuse)...)
	} else {
		side.Column("1 AS fuse_filter")
	}

	side.From("match_side ms").
		InnerJoin("team t", "t.id = ms.team_id").
		InnerJoin("match_side_player msp", "msp.side_id = ms.id").
		InnerJoin("player p", "p.id = msp.player_id").
		GroupBy("ms.id", "t.id", "t.point_char", "t.assist_char", "t.fuse", "t.char_swap_before_round")

	matchVideo := querybuilder.Select().
		Columns(matchColumns).
		Columns(videoColumns).
		From(`"match" m`).
		InnerJoin("video_source v", "v.id = m.video_id")

	base := querybuilder.Select(s.projection()...).
		With("side_info", side).
		With("match_video", matchVideo).
		From("match_video mv").
		LeftJoin("side_info ls", "ls.id = mv.match_left_side_id").
		LeftJoin("side_info rs", "rs.id = mv.match_right_side_id").
		Where(
			querybuilder.Expr("(ls.player_filter = 1 OR rs.player_filter = 1)"),
			querybuilder.Expr("(ls.fuse_filter = 1 OR rs.fuse_filter = 1)"),
		)

	for _, c := range f.Character {
		base.Where(querybuilder.Expr(
			"? IN (ls.point_char, ls.assist_char, rs.point_char, rs.assist_char)", string(c)))
	}
	if f.Patch != "" {
		base.Where(querybuilder.Eq("mv.match_patch", f.Patch))
	}

	return base.Where(extra...)
}

// projection lists the outer select: every match_video column by name, plus
// the side manifest re-aliased once per side.
func (s *MatchStore) projection() []string {
	var cols []string
	for _, c := range matchColumns {
		cols = append(cols, "mv."+c.Name)
	}
	for _, c := range videoColumns {
		cols = append(cols, "mv."+c.Name)
	}
	for _, side := range []struct{ alias, prefix string }{{"ls", "left"}, {"rs", "right"}} {
		for _, c := range sideColumns {
			cols = append(cols, fmt.Sprintf("%s.%s AS %s_%s", side.alias, c.Name, side.prefix, c.Name))
		}
	}
	return cols
}

// GetMatch fetches one match with both sides denormalized back into the
// nested shape. Returns (nil, nil) when the id does not exist.
func (s *MatchStore) GetMatch(ctx context.Context, id int64) (*game.CombinedMatchInfo, error) {
	query, args, err := s.matchQuery(game.MatchFilter{}, querybuilder.Eq("mv.match_id", id)).ToSQL()
	if err != nil {
		return nil, err
	}

	var row combinedRow
	err = s.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match %d: %w", id, err)
	}

	info, err := row.toMatchInfo()
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// GetMatches runs the filtered, paginated match query. TotalCount ignores
// pagination; Offset is echoed so callers can render paging state.
func (s *MatchStore) GetMatches(ctx context.Context, f game.MatchFilter) (game.MatchPage, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	countQuery, countArgs, err := querybuilder.Select("count(1)").
		FromSelect(s.matchQuery(f), "q").
		ToSQL()
	if err != nil {
		return game.MatchPage{}, err
	}

	var total int
	if err := s.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return game.MatchPage{}, fmt.Errorf("failed to count matches: %w", err)
	}

	rowsQuery, rowsArgs, err := querybuilder.Select("*").
		FromSelect(s.matchQuery(f), "q").
		OrderBy("match_created_at DESC", "match_id DESC").
		Limit(limit).
		Offset(offset).
		ToSQL()
	if err != nil {
		return game.MatchPage{}, err
	}

	var rows []combinedRow
	if err := s.db.SelectContext(ctx, &rows, rowsQuery, rowsArgs...); err != nil {
		return game.MatchPage{}, fmt.Errorf("failed to query matches: %w", err)
	}

	infos := make([]game.CombinedMatchInfo, 0, len(rows))
	for _, row := range rows {
		info, err := row.toMatchInfo()
		if err != nil {
			return game.MatchPage{}, err
		}
		infos = append(infos, info)
	}

	return game.MatchPage{Rows: infos, TotalCount: total, Offset: offset}, nil
}

func (r combinedRow) toMatchInfo() (game.CombinedMatchInfo, error) {
	left, err := parseSide(r.LeftTeamID, r.LeftPointChar, r.LeftAssistChar, r.LeftFuse, r.LeftCharSwap, r.LeftPlayers)
	if err != nil {
		return game.CombinedMatchInfo{}, fmt.Errorf("match %d left side: %w", r.MatchID, err)
	}
	right, err := parseSide(r.RightTeamID, r.RightPointChar, r.RightAssistChar, r.RightFuse, r.RightCharSwap, r.RightPlayers)
	if err != nil {
		return game.CombinedMatchInfo{}, fmt.Errorf("match %d right side: %w", r.MatchID, err)
	}

	return game.CombinedMatchInfo{
		ID: r.MatchID,
		Video: game.Video{
			ID:         r.VideoID,
			Platform:   r.VideoPlatform,
			ExternalID: r.VideoExternalID,
			URL:        r.VideoURL,
		},
		StartSec:  r.MatchStartSec,
		EndSec:    r.MatchEndSec,
		Title:     r.MatchTitle,
		Context:   r.MatchContext,
		Patch:     r.MatchPatch,
		Notes:     r.MatchNotes,
		CreatedAt: r.MatchCreatedAt,
		LeftSide:  left,
		RightSide: right,
	}, nil
}

// parseSide unpacks the json_group_array player payload back into typed side
// players.
func parseSide(teamID int64, point, assist game.Character, fuse game.Fuse, charSwap bool, playersJSON string) (game.MatchSide, error) {
	var raw []struct {
		Name string          `json:"name"`
		Role game.PlayerRole `json:"role"`
	}
	if err := json.Unmarshal([]byte(playersJSON), &raw); err != nil {
		return game.MatchSide{}, fmt.Errorf("failed to parse side players: %w", err)
	}

	players := make([]game.SidePlayer, 0, len(raw))
	for _, p := range raw {
		players = append(players, game.SidePlayer{Role: p.Role, Player: game.PlayerRef{Name: p.Name}})
	}

	return game.MatchSide{
		Team: game.Team{
			ID:                  teamID,
			PointChar:           point,
			AssistChar:          assist,
			Fuse:                fuse,
			CharSwapBeforeRound: charSwap,
		},
		SidePlayers: players,
	}, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func asAnySlice[T ~string](vals []T) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}

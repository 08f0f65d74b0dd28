package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mverbeck/vodlog/internal/game"
	"github.com/mverbeck/vodlog/internal/utils"
	"github.com/mverbeck/vodlog/internal/video"
)

type MatchStore struct {
	db *sqlx.DB
}

func NewMatchStore(db *sqlx.DB) *MatchStore {
	return &MatchStore{db: db}
}

// ResolvedVideo is the outcome of resolving a submitted URL against the
// video_source table.
type ResolvedVideo struct {
	ID         int64
	ExternalID string
	URL        string
	StartSec   int
}

// MatchRow is the flat "match" table row; only the columns the writer touches.
type MatchRow struct {
	ID          int64   `db:"id"`
	VideoID     int64   `db:"video_id"`
	LeftSideID  int64   `db:"left_side_id"`
	RightSideID int64   `db:"right_side_id"`
	StartSec    int     `db:"start_sec"`
	Patch       *string `db:"patch"`
}

// ResolveVideo finds or creates the video_source row for rawURL. Existing
// rows are never updated; a concurrent insert of the same external id is
// absorbed by the ON CONFLICT DO NOTHING + re-read.
func (s *MatchStore) ResolveVideo(ctx context.Context, tx *sqlx.Tx, rawURL string) (ResolvedVideo, error) {
	info, ok := video.ExtractYouTubeInfo(rawURL)
	if !ok {
		// Schema validation upstream should have rejected this already.
		return ResolvedVideo{}, fmt.Errorf("url %q does not contain a youtube video id", rawURL)
	}

	var id int64
	err := tx.GetContext(ctx, &id, "SELECT id FROM video_source WHERE external_id = ?", info.ID)
	if errors.Is(err, sql.ErrNoRows) {
		// TODO: also match on platform once twitch submissions are supported
		_, err = tx.ExecContext(ctx,
			"INSERT INTO video_source (platform, external_id, url) VALUES (?, ?, ?) ON CONFLICT DO NOTHING",
			game.PlatformYouTube, info.ID, rawURL)
		if err == nil {
			err = tx.GetContext(ctx, &id, "SELECT id FROM video_source WHERE external_id = ?", info.ID)
		}
	}
	if err != nil {
		return ResolvedVideo{}, fmt.Errorf("failed to resolve video source: %w", err)
	}

	return ResolvedVideo{
		ID:         id,
		ExternalID: info.ID,
		URL:        rawURL,
		StartSec:   utils.OrZero(info.Start),
	}, nil
}

// FindOrCreateTeam resolves the team row identified by the exact
// (pointChar, assistChar, fuse, charSwapBeforeRound) tuple. Existing rows are
// never updated.
func (s *MatchStore) FindOrCreateTeam(ctx context.Context, tx *sqlx.Tx, team game.TeamInput) (int64, error) {
	const lookup = `SELECT id FROM team
		WHERE point_char = ? AND assist_char = ? AND fuse = ? AND char_swap_before_round = ?`

	var id int64
	err := tx.GetContext(ctx, &id, lookup, team.PointChar, team.AssistChar, team.Fuse, team.CharSwapBeforeRound)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO team (point_char, assist_char, fuse, char_swap_before_round)
			VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`,
			team.PointChar, team.AssistChar, team.Fuse, team.CharSwapBeforeRound)
		if err == nil {
			err = tx.GetContext(ctx, &id, lookup, team.PointChar, team.AssistChar, team.Fuse, team.CharSwapBeforeRound)
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find or create team: %w", err)
	}
	return id, nil
}

func (s *MatchStore) FindOrCreatePlayer(ctx context.Context, tx *sqlx.Tx, name string) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, "SELECT id FROM player WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = tx.ExecContext(ctx, "INSERT INTO player (name) VALUES (?) ON CONFLICT DO NOTHING", name)
		if err == nil {
			err = tx.GetContext(ctx, &id, "SELECT id FROM player WHERE name = ?", name)
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find or create player %q: %w", name, err)
	}
	return id, nil
}

// UpsertSide inserts a match side (existingSideID nil) or retargets an
// existing one. On update only the team reference changes on the side row;
// the player roster is deleted and rebuilt in full. Players and teams
// themselves are only ever found or created, never updated.
func (s *MatchStore) UpsertSide(ctx context.Context, tx *sqlx.Tx, side game.SideInput, existingSideID *int64) (int64, error) {
	teamID, err := s.FindOrCreateTeam(ctx, tx, side.Team)
	if err != nil {
		return 0, err
	}

	var sideID int64
	if existingSideID == nil {
		res, err := tx.ExecContext(ctx, "INSERT INTO match_side (team_id) VALUES (?)", teamID)
		if err != nil {
			return 0, fmt.Errorf("failed to insert match side: %w", err)
		}
		sideID, err = res.LastInsertId()
		if err != nil {
			return 0, err
		}
	} else {
		sideID = *existingSideID
		if _, err := tx.ExecContext(ctx, "UPDATE match_side SET team_id = ? WHERE id = ?", teamID, sideID); err != nil {
			return 0, fmt.Errorf("failed to update match side %d: %w", sideID, err)
		}
		// Replace the roster wholesale, never patch it.
		if _, err := tx.ExecContext(ctx, "DELETE FROM match_side_player WHERE side_id = ?", sideID); err != nil {
			return 0, fmt.Errorf("failed to clear side %d players: %w", sideID, err)
		}
	}

	addPlayer := func(name string, role game.PlayerRole) error {
		playerID, err := s.FindOrCreatePlayer(ctx, tx, name)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO match_side_player (side_id, player_id, role) VALUES (?, ?, ?)",
			sideID, playerID, role)
		return err
	}

	if err := addPlayer(side.PointPlayerName, game.RolePoint); err != nil {
		return 0, err
	}
	if side.AssistPlayerName != nil {
		if err := addPlayer(*side.AssistPlayerName, game.RoleAssist); err != nil {
			return 0, err
		}
	}

	return sideID, nil
}

func (s *MatchStore) InsertMatch(ctx context.Context, tx *sqlx.Tx, row *MatchRow) (int64, error) {
	res, err := tx.NamedExecContext(ctx, `INSERT INTO "match" (video_id, left_side_id, right_side_id, start_sec, patch)
		VALUES (:video_id, :left_side_id, :right_side_id, :start_sec, :patch)`, row)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *MatchStore) GetMatchRow(ctx context.Context, tx *sqlx.Tx, id int64) (*MatchRow, error) {
	var row MatchRow
	err := tx.GetContext(ctx, &row,
		`SELECT id, video_id, left_side_id, right_side_id, start_sec, patch FROM "match" WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdateMatchRow rewrites the mutable match columns. Side ids never change
// across an update.
func (s *MatchStore) UpdateMatchRow(ctx context.Context, tx *sqlx.Tx, row *MatchRow) error {
	_, err := tx.NamedExecContext(ctx,
		`UPDATE "match" SET video_id = :video_id, start_sec = :start_sec, patch = :patch WHERE id = :id`, row)
	return err
}

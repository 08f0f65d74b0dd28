package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/mverbeck/vodlog/internal/game"
	"github.com/mverbeck/vodlog/internal/store"
	"github.com/mverbeck/vodlog/internal/utils"
)

type MatchService struct {
	db    *sqlx.DB
	store *store.MatchStore
}

func NewMatchService(db *sqlx.DB, store *store.MatchStore) *MatchService {
	return &MatchService{db: db, store: store}
}

// CreateMatch records a new match in one transaction: resolve the video,
// build both sides, insert the match row. A collision on (video, start
// second) becomes a DuplicateMatchError.
func (s *MatchService) CreateMatch(ctx context.Context, input game.MatchInput) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	resolved, err := s.store.ResolveVideo(ctx, tx, input.Video)
	if err != nil {
		return 0, err
	}

	leftSideID, err := s.store.UpsertSide(ctx, tx, input.Left, nil)
	if err != nil {
		return 0, err
	}
	rightSideID, err := s.store.UpsertSide(ctx, tx, input.Right, nil)
	if err != nil {
		return 0, err
	}

	matchID, err := s.store.InsertMatch(ctx, tx, &store.MatchRow{
		VideoID:     resolved.ID,
		LeftSideID:  leftSideID,
		RightSideID: rightSideID,
		StartSec:    resolved.StartSec,
		Patch:       utils.StringOrNil(input.Patch),
	})
	if err != nil {
		return 0, translateUniqueViolation(err, resolved.ExternalID, resolved.StartSec)
	}

	return matchID, tx.Commit()
}

// UpdateMatch rewrites an existing match in place. The side ids recorded on
// the match row are reused, so sides are updated rather than recreated; a
// blank patch keeps the stored value instead of overwriting it.
func (s *MatchService) UpdateMatch(ctx context.Context, matchID int64, input game.MatchInput) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	existing, err := s.store.GetMatchRow(ctx, tx, matchID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("match %d: %w", matchID, game.ErrMatchNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load match %d: %w", matchID, err)
	}

	patch := utils.StringOrNil(input.Patch)
	if patch == nil {
		patch = existing.Patch
	}

	resolved, err := s.store.ResolveVideo(ctx, tx, input.Video)
	if err != nil {
		return 0, err
	}

	if _, err := s.store.UpsertSide(ctx, tx, input.Left, &existing.LeftSideID); err != nil {
		return 0, err
	}
	if _, err := s.store.UpsertSide(ctx, tx, input.Right, &existing.RightSideID); err != nil {
		return 0, err
	}

	err = s.store.UpdateMatchRow(ctx, tx, &store.MatchRow{
		ID:          matchID,
		VideoID:     resolved.ID,
		LeftSideID:  existing.LeftSideID,
		RightSideID: existing.RightSideID,
		StartSec:    resolved.StartSec,
		Patch:       patch,
	})
	if err != nil {
		return 0, translateUniqueViolation(err, resolved.ExternalID, resolved.StartSec)
	}

	return matchID, tx.Commit()
}

// GetMatch returns nil (no error) when the match does not exist.
func (s *MatchService) GetMatch(ctx context.Context, matchID int64) (*game.CombinedMatchInfo, error) {
	return s.store.GetMatch(ctx, matchID)
}

func (s *MatchService) GetMatches(ctx context.Context, filter game.MatchFilter) (game.MatchPage, error) {
	return s.store.GetMatches(ctx, filter)
}

// translateUniqueViolation converts a sqlite unique-constraint failure into
// the typed duplicate error; anything else passes through unchanged.
func translateUniqueViolation(err error, externalVideoID string, startSec int) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return &game.DuplicateMatchError{ExternalVideoID: externalVideoID, StartSec: startSec}
	}
	return err
}

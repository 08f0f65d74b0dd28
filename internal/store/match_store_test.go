package store

import (
	"context"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/mverbeck/vodlog/internal/game"
	"github.com/mverbeck/vodlog/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:?_txlock=immediate&_foreign_keys=on")
	require.NoError(t, err, "Failed to connect to in-memory DB")

	// an in-memory database exists per connection
	database.SetMaxOpenConns(1)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return database
}

func inTx(t *testing.T, db *sqlx.DB, fn func(tx *sqlx.Tx)) {
	t.Helper()
	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	fn(tx)
	require.NoError(t, tx.Commit())
}

func TestResolveVideoCreatesAndReuses(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	s := NewMatchStore(db)

	var first ResolvedVideo
	inTx(t, db, func(tx *sqlx.Tx) {
		var err error
		first, err = s.ResolveVideo(context.Background(), tx, "https://www.youtube.com/watch?v=hsP7lO_yz7Q&t=90")
		require.NoError(t, err)
	})

	assert.Equal(t, "hsP7lO_yz7Q", first.ExternalID)
	assert.Equal(t, 90, first.StartSec)

	// A different URL shape for the same video reuses the stored row.
	var second ResolvedVideo
	inTx(t, db, func(tx *sqlx.Tx) {
		var err error
		second, err = s.ResolveVideo(context.Background(), tx, "https://youtu.be/hsP7lO_yz7Q")
		require.NoError(t, err)
	})

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 0, second.StartSec)

	var count int
	require.NoError(t, db.Get(&count, "SELECT count(1) FROM video_source"))
	assert.Equal(t, 1, count)
}

func TestResolveVideoRejectsUnrecognizedURL(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	s := NewMatchStore(db)

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = s.ResolveVideo(context.Background(), tx, "https://vimeo.com/123")
	assert.Error(t, err)
}

func TestFindOrCreateTeamDeduplicates(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	s := NewMatchStore(db)

	team := game.TeamInput{
		PointChar:  game.Ahri,
		AssistChar: game.Blitzcrank,
		Fuse:       game.FuseDoubleDown,
	}

	var id1, id2, id3 int64
	inTx(t, db, func(tx *sqlx.Tx) {
		var err error
		id1, err = s.FindOrCreateTeam(context.Background(), tx, team)
		require.NoError(t, err)
		id2, err = s.FindOrCreateTeam(context.Background(), tx, team)
		require.NoError(t, err)

		// charSwapBeforeRound is part of the natural key
		swapped := team
		swapped.CharSwapBeforeRound = true
		id3, err = s.FindOrCreateTeam(context.Background(), tx, swapped)
		require.NoError(t, err)
	})

	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)

	var count int
	require.NoError(t, db.Get(&count, "SELECT count(1) FROM team"))
	assert.Equal(t, 2, count)
}

func TestFindOrCreatePlayer(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	s := NewMatchStore(db)

	var id1, id2 int64
	inTx(t, db, func(tx *sqlx.Tx) {
		var err error
		id1, err = s.FindOrCreatePlayer(context.Background(), tx, "leftPad")
		require.NoError(t, err)
		id2, err = s.FindOrCreatePlayer(context.Background(), tx, "leftPad")
		require.NoError(t, err)
	})

	assert.Equal(t, id1, id2)

	var count int
	require.NoError(t, db.Get(&count, "SELECT count(1) FROM player"))
	assert.Equal(t, 1, count)
}

func TestUpsertSideCreateAndUpdate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	s := NewMatchStore(db)

	side := game.SideInput{
		Team: game.TeamInput{
			PointChar:  game.Ekko,
			AssistChar: game.Darius,
			Fuse:       game.FuseSidekick,
		},
		PointPlayerName:  "foo",
		AssistPlayerName: utils.Ptr("bar"),
	}

	var sideID int64
	inTx(t, db, func(tx *sqlx.Tx) {
		var err error
		sideID, err = s.UpsertSide(context.Background(), tx, side, nil)
		require.NoError(t, err)
	})

	var roles []string
	require.NoError(t, db.Select(&roles,
		"SELECT role FROM match_side_player WHERE side_id = ? ORDER BY role", sideID))
	assert.Equal(t, []string{"assist", "point"}, roles)

	// Update path: new team, assist dropped. The roster is fully replaced and
	// the side id stays stable.
	updated := side
	updated.Team.AssistChar = game.Illaoi
	updated.PointPlayerName = "baz"
	updated.AssistPlayerName = nil

	var updatedSideID int64
	inTx(t, db, func(tx *sqlx.Tx) {
		var err error
		updatedSideID, err = s.UpsertSide(context.Background(), tx, updated, &sideID)
		require.NoError(t, err)
	})

	assert.Equal(t, sideID, updatedSideID)

	var names []string
	require.NoError(t, db.Select(&names,
		`SELECT p.name FROM match_side_player msp JOIN player p ON p.id = msp.player_id
		WHERE msp.side_id = ?`, sideID))
	assert.Equal(t, []string{"baz"}, names)

	var assistChar string
	require.NoError(t, db.Get(&assistChar,
		"SELECT t.assist_char FROM match_side ms JOIN team t ON t.id = ms.team_id WHERE ms.id = ?", sideID))
	assert.Equal(t, "Illaoi", assistChar)

	// players are never deleted, only unreferenced
	var playerCount int
	require.NoError(t, db.Get(&playerCount, "SELECT count(1) FROM player"))
	assert.Equal(t, 3, playerCount)
}

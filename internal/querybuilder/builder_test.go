package querybuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectBasic(t *testing.T) {
	query, args, err := Select("id", "name").
		From("player").
		Where(Eq("name", "leftPad")).
		OrderBy("id DESC").
		Limit(5).
		ToSQL()

	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name FROM player WHERE name = ? ORDER BY id DESC LIMIT 5", query)
	assert.Equal(t, []any{"leftPad"}, args)
}

func TestSelectRequiresColumnsAndTable(t *testing.T) {
	_, _, err := Select().From("player").ToSQL()
	assert.Error(t, err)

	_, _, err = Select("id").ToSQL()
	assert.Error(t, err)
}

func TestInCondition(t *testing.T) {
	query, args, err := Select("id").
		From("team").
		Where(In("fuse", []any{"Sidekick", "Fury"})).
		ToSQL()

	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM team WHERE fuse IN (?, ?)", query)
	assert.Equal(t, []any{"Sidekick", "Fury"}, args)
}

func TestInConditionEmptyMatchesNothing(t *testing.T) {
	query, _, err := Select("id").From("team").Where(In("fuse", nil)).ToSQL()

	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM team WHERE 1=0", query)
}

func TestOrCondition(t *testing.T) {
	query, args, err := Select("id").
		From("m").
		Where(Or(Expr("a = ?", 1), Expr("b = ?", 2)), Eq("c", 3)).
		ToSQL()

	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM m WHERE (a = ? OR b = ?) AND c = ?", query)
	assert.Equal(t, []any{1, 2, 3}, args)
}

func TestColumnManifest(t *testing.T) {
	manifest := []Column{
		{Name: "id", Expr: "t.id"},
		{Name: "fuse", Expr: "fuse"},
	}

	query, _, err := Select().Columns(manifest).From("team t").ToSQL()

	require.NoError(t, err)
	assert.Equal(t, "SELECT t.id AS id, fuse FROM team t", query)
}

func TestCTEAndJoins(t *testing.T) {
	side := Select("ms.id AS id").
		Column("max(p.name LIKE ?) AS player_filter", "%pad%").
		From("match_side ms").
		InnerJoin("player p", "p.id = ms.player_id").
		GroupBy("ms.id")

	query, args, err := Select("mv.id", "ls.player_filter").
		With("side_info", side).
		From("match_video mv").
		LeftJoin("side_info ls", "ls.id = mv.left_side_id").
		Where(Expr("ls.player_filter = 1")).
		ToSQL()

	require.NoError(t, err)
	assert.Equal(t,
		"WITH side_info AS (SELECT ms.id AS id, max(p.name LIKE ?) AS player_filter "+
			"FROM match_side ms INNER JOIN player p ON p.id = ms.player_id GROUP BY ms.id) "+
			"SELECT mv.id, ls.player_filter FROM match_video mv "+
			"LEFT JOIN side_info ls ON ls.id = mv.left_side_id WHERE ls.player_filter = 1",
		query)
	assert.Equal(t, []any{"%pad%"}, args)
}

func TestFromSelect(t *testing.T) {
	inner := Select("id").From("team").Where(Eq("fuse", "Fury"))

	query, args, err := Select("count(1)").FromSelect(inner, "q").ToSQL()

	require.NoError(t, err)
	assert.Equal(t, "SELECT count(1) FROM (SELECT id FROM team WHERE fuse = ?) q", query)
	assert.Equal(t, []any{"Fury"}, args)
}

func TestLimitOffset(t *testing.T) {
	query, _, err := Select("id").From("m").OrderBy("id DESC").Limit(10).Offset(20).ToSQL()

	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM m ORDER BY id DESC LIMIT 10 OFFSET 20", query)
}

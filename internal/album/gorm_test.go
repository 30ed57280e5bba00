package album

import (
	"testing"

	"github.com/Conceptual-Machines/eternal-union/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dryRunDB builds statements without touching a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=test dbname=test sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestScopes_SQL(t *testing.T) {
	db := dryRunDB(t)

	stmt := db.Scopes(ownedPhoto(3, "abc")).Delete(&models.SavedPhoto{}).Statement
	assert.Equal(t, `DELETE FROM "wedding_photos" WHERE id = $1 AND user_id = $2`, stmt.SQL.String())
	assert.Equal(t, []any{"abc", uint(3)}, stmt.Vars)

	var photos []models.SavedPhoto
	stmt = db.Scopes(newestFirst(3)).Find(&photos).Statement
	assert.Equal(t, `SELECT * FROM "wedding_photos" WHERE user_id = $1 ORDER BY created_at DESC`, stmt.SQL.String())
}

func TestUpsertProfile_SQL(t *testing.T) {
	db := dryRunDB(t)

	stmt := db.Clauses(upsertProfile()).Create(&models.Profile{ID: 9, SealedAPIKey: "sealed"}).Statement
	sql := stmt.SQL.String()
	assert.Contains(t, sql, `INSERT INTO "profiles"`)
	assert.Contains(t, sql, `ON CONFLICT ("id") DO UPDATE SET`)
	assert.Contains(t, sql, `"sealed_api_key"="excluded"."sealed_api_key"`)
}

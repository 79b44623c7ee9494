// database/migrate.go - Team Corner Database Migrations
package database

import (
	"log"

	"github.com/binary-knight/usurper-reborn-sub009/models"

	"gorm.io/gorm"
)

// RunMigrations creates all tables used by the team economy core.
func RunMigrations() {
	if err := Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
}

// Migrate runs AutoMigrate plus index creation against the given handle.
// Split out so tests can run it against an in-memory database.
func Migrate(db *gorm.DB) error {
	log.Println("Running Team Corner migrations...")

	if err := db.AutoMigrate(
		&models.Player{},
		&models.Team{},
		&models.TeamVault{},
		&models.TeamUpgrade{},
		&models.TeamWar{},
		&models.NewsItem{},
	); err != nil {
		return err
	}

	if err := createIndexes(db); err != nil {
		return err
	}

	log.Println("Team Corner migrations completed")
	return nil
}

func createIndexes(db *gorm.DB) error {
	// Player indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_players_team ON players(team)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_players_online ON players(is_online)")

	// Team indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_teams_active ON teams(is_active)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_teams_turf ON teams(controls_turf)")

	// War indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_team_wars_challenger ON team_wars(challenger)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_team_wars_defender ON team_wars(defender)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_team_wars_status ON team_wars(status)")

	// News indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_news_items_category ON news_items(category)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_news_items_created ON news_items(created_at DESC)")

	return nil
}

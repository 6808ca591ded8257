package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Analyses table - one row per batch run or capture window
		`CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			file_name TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL CHECK(type IN ('batting', 'bowling', 'fielding')),
			overall_score INTEGER NOT NULL,
			frame_count INTEGER NOT NULL DEFAULT 0,
			summary TEXT NOT NULL
		)`,

		// Settings table - application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_type ON analyses(type)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

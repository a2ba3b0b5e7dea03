package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per capture run
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			frame_count INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,

		// Frames table - one row per displayed frame
		`CREATE TABLE IF NOT EXISTS frames (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			frame_index INTEGER NOT NULL,
			detected INTEGER NOT NULL DEFAULT 0,
			tip_x REAL,
			tip_y REAL,
			created_at DATETIME NOT NULL,
			UNIQUE(session_id, frame_index)
		)`,

		// Frame landmarks table - pixel-space hand landmarks of a frame
		`CREATE TABLE IF NOT EXISTS frame_landmarks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			frame_id INTEGER NOT NULL REFERENCES frames(id) ON DELETE CASCADE,
			landmark_index INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			z REAL NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_frames_session_id ON frames(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_frame_landmarks_frame_id ON frame_landmarks(frame_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

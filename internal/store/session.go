package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session is one capture run.
type Session struct {
	ID         string
	Width      int
	Height     int
	FrameCount int
	StartedAt  time.Time
	EndedAt    *time.Time
}

// Ended reports whether the session has been closed.
func (s *Session) Ended() bool {
	return s.EndedAt != nil
}

// SessionRepository provides operations for capture sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session. A random ID is assigned when sess.ID is
// empty and StartedAt is set to the current time.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	sess.StartedAt = time.Now()
	sess.EndedAt = nil

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, width, height, frame_count, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Width, sess.Height, sess.FrameCount, sess.StartedAt,
	)
	return err
}

// End marks a session as finished with the given number of frames.
func (r *SessionRepository) End(id string, frames int) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET frame_count = ?, ended_at = ? WHERE id = ?`,
		frames, time.Now(), id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	row := r.db.QueryRow(
		`SELECT id, width, height, frame_count, started_at, ended_at
		 FROM sessions WHERE id = ?`,
		id,
	)

	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List retrieves all sessions, newest first.
func (r *SessionRepository) List() ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, width, height, frame_count, started_at, ended_at
		 FROM sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Delete removes a session and its frames.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (*Session, error) {
	s := &Session{}
	var ended sql.NullTime

	if err := sc.Scan(&s.ID, &s.Width, &s.Height, &s.FrameCount, &s.StartedAt, &ended); err != nil {
		return nil, err
	}
	if ended.Valid {
		t := ended.Time
		s.EndedAt = &t
	}
	return s, nil
}

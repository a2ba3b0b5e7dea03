package store

import (
	"database/sql"
	"time"
)

// Frame is one processed frame of a session. TipX and TipY hold the index
// fingertip in pixels and are only meaningful when Detected is true.
type Frame struct {
	ID        int64
	SessionID string
	Index     int
	Detected  bool
	TipX      float64
	TipY      float64
	CreatedAt time.Time
}

// Landmark is one pixel-space hand landmark of a frame.
type Landmark struct {
	Index int
	X     float64
	Y     float64
	Z     float64
}

// FrameRepository provides operations for recorded frames.
type FrameRepository struct {
	db *sql.DB
}

// Frames returns the frame repository for this store.
func (s *Store) Frames() *FrameRepository {
	return &FrameRepository{db: s.db}
}

// Append inserts a frame and its landmarks in a single transaction and sets
// f.ID and f.CreatedAt.
func (r *FrameRepository) Append(f *Frame, landmarks []Landmark) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var tipX, tipY sql.NullFloat64
	if f.Detected {
		tipX = sql.NullFloat64{Float64: f.TipX, Valid: true}
		tipY = sql.NullFloat64{Float64: f.TipY, Valid: true}
	}
	createdAt := time.Now()

	result, err := tx.Exec(
		`INSERT INTO frames (session_id, frame_index, detected, tip_x, tip_y, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		f.SessionID, f.Index, f.Detected, tipX, tipY, createdAt,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	if len(landmarks) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO frame_landmarks (frame_id, landmark_index, x, y, z) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, l := range landmarks {
			if _, err := stmt.Exec(id, l.Index, l.X, l.Y, l.Z); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	f.ID = id
	f.CreatedAt = createdAt
	return nil
}

// ListBySession retrieves the frames of a session in capture order.
func (r *FrameRepository) ListBySession(sessionID string) ([]*Frame, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, frame_index, detected, tip_x, tip_y, created_at
		 FROM frames
		 WHERE session_id = ?
		 ORDER BY frame_index`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []*Frame
	for rows.Next() {
		f := &Frame{}
		var tipX, tipY sql.NullFloat64
		if err := rows.Scan(&f.ID, &f.SessionID, &f.Index, &f.Detected, &tipX, &tipY, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.TipX, f.TipY = tipX.Float64, tipY.Float64
		frames = append(frames, f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return frames, nil
}

// Landmarks retrieves the landmarks of a frame ordered by landmark index.
// A frame without a detected hand has none.
func (r *FrameRepository) Landmarks(frameID int64) ([]Landmark, error) {
	rows, err := r.db.Query(
		`SELECT landmark_index, x, y, z
		 FROM frame_landmarks
		 WHERE frame_id = ?
		 ORDER BY landmark_index`,
		frameID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var landmarks []Landmark
	for rows.Next() {
		var l Landmark
		if err := rows.Scan(&l.Index, &l.X, &l.Y, &l.Z); err != nil {
			return nil, err
		}
		landmarks = append(landmarks, l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return landmarks, nil
}

// CountDetected returns how many frames of a session had a hand.
func (r *FrameRepository) CountDetected(sessionID string) (int, error) {
	var n int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM frames WHERE session_id = ? AND detected = 1`,
		sessionID,
	).Scan(&n)
	return n, err
}

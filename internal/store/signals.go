package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lankasignal/lankasignal/internal/window"
)

// AddSignal persists a signal snapshot and returns its id.
func (s *Store) AddSignal(sig Signal) (int64, error) {
	meta := sig.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return 0, fmt.Errorf("encoding signal metadata: %w", err)
	}
	detected := sig.DetectedAt
	if detected.IsZero() {
		detected = s.now()
	}

	var id int64
	err = s.writeDB.QueryRow(s.dialect.rebind(`
		INSERT INTO signals (signal_type, description, severity, category, detected_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`), sig.Type, sig.Description, nullString(sig.Severity), nullString(sig.Category), detected.UnixNano(), string(data)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("adding signal: %w", err)
	}
	return id, nil
}

// RecentSignals returns signals detected inside w, newest first. An empty
// signalType matches every type.
func (s *Store) RecentSignals(signalType string, w window.Window) ([]Signal, error) {
	start, end := window.Normalize(w.Older, w.Newer).Bounds(s.now())
	query := `SELECT id, signal_type, description, severity, category, detected_at, metadata
		FROM signals WHERE detected_at >= ? AND detected_at < ?`
	args := []any{start.UnixNano(), end.UnixNano()}
	if signalType != "" {
		query += " AND signal_type = ?"
		args = append(args, signalType)
	}
	query += " ORDER BY detected_at DESC, id DESC"

	rows, err := s.readDB.Query(s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying signals: %w", err)
	}
	defer rows.Close()

	var out []Signal
	for rows.Next() {
		var (
			sig      Signal
			severity sql.NullString
			cat      sql.NullString
			detected int64
			meta     string
		)
		if err := rows.Scan(&sig.ID, &sig.Type, &sig.Description, &severity, &cat, &detected, &meta); err != nil {
			return nil, fmt.Errorf("scanning signal: %w", err)
		}
		sig.Severity = severity.String
		sig.Category = cat.String
		sig.DetectedAt = time.Unix(0, detected)
		if meta != "" {
			if err := json.Unmarshal([]byte(meta), &sig.Metadata); err != nil {
				return nil, fmt.Errorf("decoding signal %d metadata: %w", sig.ID, err)
			}
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

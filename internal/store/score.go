package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Leaderboard limits.
const (
	LeaderboardSize = 5
	MaxNameLength   = 12
	DefaultName     = "You"
)

// rankOrder sorts numeric points best first; anything else sinks to the
// bottom.
const rankOrder = `typeof(points) IN ('integer', 'real') DESC, points DESC, created_at ASC`

// Score is one leaderboard entry.
type Score struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Points    int       `json:"points"`
	SessionID string    `json:"sessionId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ScoreRepository reads and writes leaderboard entries. Only the best keep
// entries are retained.
type ScoreRepository struct {
	db   *sql.DB
	keep int
}

// Scores returns the leaderboard repository.
func (s *Store) Scores() *ScoreRepository {
	return &ScoreRepository{db: s.db, keep: LeaderboardSize}
}

// NormalizeName trims the name, caps it at MaxNameLength runes and falls
// back to DefaultName when empty.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		name = string([]rune(name)[:MaxNameLength])
	}
	return name
}

// Add records a score and drops entries that fall off the board.
func (r *ScoreRepository) Add(name string, points int, sessionID string) (*Score, error) {
	sc := &Score{
		ID:        uuid.NewString(),
		Name:      NormalizeName(name),
		Points:    points,
		SessionID: sessionID,
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.db.Exec(
		`INSERT INTO scores (id, name, points, session_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		sc.ID, sc.Name, sc.Points, sc.SessionID, sc.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert score: %w", err)
	}

	if r.keep > 0 {
		_, err = r.db.Exec(
			`DELETE FROM scores WHERE id NOT IN (
				SELECT id FROM scores ORDER BY ` + rankOrder + ` LIMIT ?
			)`,
			r.keep,
		)
		if err != nil {
			return nil, fmt.Errorf("prune scores: %w", err)
		}
	}
	return sc, nil
}

// Top returns up to n entries, best first. Rows that cannot be decoded are
// skipped.
func (r *ScoreRepository) Top(n int) ([]*Score, error) {
	if n <= 0 {
		n = LeaderboardSize
	}

	rows, err := r.db.Query(
		`SELECT id, name, points, session_id, created_at
		 FROM scores ORDER BY ` + rankOrder + ` LIMIT ?`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	scores := make([]*Score, 0, n)
	for rows.Next() {
		var (
			sc     Score
			points any
			name   sql.NullString
		)
		if err := rows.Scan(&sc.ID, &name, &points, &sc.SessionID, &sc.CreatedAt); err != nil {
			log.Warn().Err(err).Msg("skipping unreadable score row")
			continue
		}
		p, ok := toPoints(points)
		if !ok {
			log.Warn().Str("id", sc.ID).Interface("points", points).Msg("skipping corrupt score row")
			continue
		}
		sc.Name = NormalizeName(name.String)
		sc.Points = p
		scores = append(scores, &sc)
	}
	return scores, rows.Err()
}

func toPoints(v any) (int, bool) {
	switch p := v.(type) {
	case int64:
		return int(p), true
	case float64:
		return int(p), true
	case []byte:
		return parsePoints(string(p))
	case string:
		return parsePoints(p)
	default:
		return 0, false
	}
}

func parsePoints(s string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

// Clear deletes every entry.
func (r *ScoreRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM scores`); err != nil {
		return fmt.Errorf("clear scores: %w", err)
	}
	return nil
}

// Best returns the highest score, or ErrNotFound on an empty board.
func (r *ScoreRepository) Best() (*Score, error) {
	top, err := r.Top(1)
	if err != nil {
		return nil, err
	}
	if len(top) == 0 {
		return nil, ErrNotFound
	}
	return top[0], nil
}

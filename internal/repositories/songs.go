package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/arvkevi/walkup/internal/models"
	"github.com/arvkevi/walkup/internal/shared"
)

// SongRepository implements the persistence gateway for walk_up_songs.
type SongRepository struct {
	db     *sql.DB
	driver shared.Driver
}

// NewSongRepository creates a new SongRepository with the given database connection
func NewSongRepository(db *sql.DB, driver shared.Driver) *SongRepository {
	return &SongRepository{db: db, driver: driver}
}

// CurrentEntries loads every current entry keyed by player. Loaded once per
// run and fed into reconciliation; all mutation goes back through Apply.
//
// If the table ever holds two current rows for one player (a broken
// invariant, not a state this gateway produces), the most recently updated
// row wins so the next Supersede repairs it.
func (r *SongRepository) CurrentEntries(ctx context.Context) (map[string]*models.SongEntry, error) {
	query := shared.Rebind(r.driver, `
		SELECT id, team, player, song_title, song_artist, catalog_uri, explicit,
		       first_seen_date, last_updated_date, is_current
		FROM walk_up_songs
		WHERE is_current = TRUE
	`)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query current entries: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]*models.SongEntry)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		key := entry.PlayerKey()
		if existing, ok := entries[key]; ok && existing.LastUpdated.After(entry.LastUpdated) {
			continue
		}
		entries[key] = entry
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// ListCurrent retrieves current entries, optionally filtered by team, ordered
// by team then player.
func (r *SongRepository) ListCurrent(ctx context.Context, team string) ([]*models.SongEntry, error) {
	query := `
		SELECT id, team, player, song_title, song_artist, catalog_uri, explicit,
		       first_seen_date, last_updated_date, is_current
		FROM walk_up_songs
		WHERE is_current = TRUE
	`
	args := []any{}
	if team != "" {
		query += " AND team = ?"
		args = append(args, team)
	}
	query += " ORDER BY team, player"

	rows, err := r.db.QueryContext(ctx, shared.Rebind(r.driver, query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query current entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.SongEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// Apply commits one player's reconciliation decision atomically.
//
// A unique-constraint violation is a logic error (the insert path is already
// an upsert); it is retried once and then surfaced for the caller to skip
// the player.
func (r *SongRepository) Apply(ctx context.Context, decision models.Decision) error {
	err := r.apply(ctx, decision)
	if err == nil || !shared.IsConflict(err) {
		return err
	}

	if err := r.apply(ctx, decision); err != nil {
		if shared.IsConflict(err) {
			return fmt.Errorf("%w: player %s: %v", shared.ErrConflict, decision.Entry.Player, err)
		}
		return err
	}
	return nil
}

func (r *SongRepository) apply(ctx context.Context, decision models.Decision) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	switch decision.Action {
	case models.ActionNoOp:
		if err := r.refresh(ctx, tx, decision.Entry); err != nil {
			return err
		}

	case models.ActionInsert:
		if err := r.upsert(ctx, tx, decision.Entry); err != nil {
			return err
		}
		if err := insertChangeEvent(ctx, tx, r.driver, decision.Event); err != nil {
			return err
		}

	case models.ActionSupersede:
		if err := r.retire(ctx, tx, decision.Previous); err != nil {
			return err
		}
		if err := r.upsert(ctx, tx, decision.Entry); err != nil {
			return err
		}
		if err := insertChangeEvent(ctx, tx, r.driver, decision.Event); err != nil {
			return err
		}

	default:
		return fmt.Errorf("%w: unknown action %v", shared.ErrInvalidInput, decision.Action)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit decision: %w", err)
	}
	return nil
}

// refresh bumps last_updated_date on an unchanged current entry.
func (r *SongRepository) refresh(ctx context.Context, tx *sql.Tx, entry models.SongEntry) error {
	query := shared.Rebind(r.driver, `
		UPDATE walk_up_songs
		SET last_updated_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`)

	result, err := tx.ExecContext(ctx, query, entry.LastUpdated, entry.ID)
	if err != nil {
		return fmt.Errorf("failed to refresh entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: entry %s", shared.ErrEntryNotFound, entry.ID)
	}
	return nil
}

// retire closes out a superseded entry.
func (r *SongRepository) retire(ctx context.Context, tx *sql.Tx, entry *models.SongEntry) error {
	query := shared.Rebind(r.driver, `
		UPDATE walk_up_songs
		SET is_current = FALSE, last_updated_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND is_current = TRUE
	`)

	if _, err := tx.ExecContext(ctx, query, entry.LastUpdated, entry.ID); err != nil {
		return fmt.Errorf("failed to retire entry: %w", err)
	}
	return nil
}

// upsert opens a new current entry. When the player returns to a song already
// on file, the UNIQUE(team, player, song_title) row is revived instead:
// is_current flips back on and the enrichment fields refresh, while
// first_seen_date keeps the date the song was genuinely first observed.
func (r *SongRepository) upsert(ctx context.Context, tx *sql.Tx, entry models.SongEntry) error {
	query := shared.Rebind(r.driver, `
		INSERT INTO walk_up_songs
			(id, team, player, song_title, song_artist, catalog_uri, explicit,
			 first_seen_date, last_updated_date, is_current)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (team, player, song_title) DO UPDATE SET
			song_artist = excluded.song_artist,
			catalog_uri = excluded.catalog_uri,
			explicit = excluded.explicit,
			last_updated_date = excluded.last_updated_date,
			is_current = TRUE,
			updated_at = CURRENT_TIMESTAMP
	`)

	_, err := tx.ExecContext(ctx, query,
		entry.ID,
		entry.Team,
		entry.Player,
		entry.SongTitle,
		entry.SongArtist,
		entry.CatalogURI,
		entry.Explicit,
		entry.FirstSeen,
		entry.LastUpdated,
		entry.IsCurrent,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert entry: %w", err)
	}
	return nil
}

// scanEntry scans a row from [sql.Rows] into a [models.SongEntry]
func scanEntry(rows *sql.Rows) (*models.SongEntry, error) {
	var (
		id          string
		team        string
		player      string
		songTitle   string
		songArtist  sql.NullString
		catalogURI  sql.NullString
		explicit    sql.NullBool
		firstSeen   time.Time
		lastUpdated time.Time
		isCurrent   bool
	)

	err := rows.Scan(&id, &team, &player, &songTitle, &songArtist, &catalogURI,
		&explicit, &firstSeen, &lastUpdated, &isCurrent)
	if err != nil {
		return nil, fmt.Errorf("failed to scan entry: %w", err)
	}

	entry := &models.SongEntry{
		ID:          id,
		Team:        team,
		Player:      player,
		SongTitle:   songTitle,
		SongArtist:  songArtist.String,
		FirstSeen:   firstSeen,
		LastUpdated: lastUpdated,
		IsCurrent:   isCurrent,
	}
	if catalogURI.Valid {
		entry.CatalogURI = &catalogURI.String
	}
	if explicit.Valid {
		entry.Explicit = &explicit.Bool
	}

	return entry, nil
}

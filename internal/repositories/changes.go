package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/arvkevi/walkup/internal/models"
	"github.com/arvkevi/walkup/internal/shared"
)

// ChangeEventRepository reads the song_change_events log.
type ChangeEventRepository struct {
	db     *sql.DB
	driver shared.Driver
}

// NewChangeEventRepository creates a new ChangeEventRepository with the given database connection
func NewChangeEventRepository(db *sql.DB, driver shared.Driver) *ChangeEventRepository {
	return &ChangeEventRepository{db: db, driver: driver}
}

// List retrieves change events newest-first, optionally filtered by player
// name, capped at limit (default 50).
func (r *ChangeEventRepository) List(ctx context.Context, player string, limit int) ([]*models.ChangeEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, team, player, previous_song_title, previous_song_artist,
		       new_song_title, new_song_artist, change_date
		FROM song_change_events
	`
	args := []any{}
	if player != "" {
		query += " WHERE player = ?"
		args = append(args, player)
	}
	query += " ORDER BY change_date DESC, created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, shared.Rebind(r.driver, query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query change events: %w", err)
	}
	defer rows.Close()

	var events []*models.ChangeEvent
	for rows.Next() {
		event, err := scanChangeEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

// insertChangeEvent writes an event inside an Apply transaction. Events are
// immutable once written; there is no update path.
func insertChangeEvent(ctx context.Context, tx *sql.Tx, driver shared.Driver, event *models.ChangeEvent) error {
	if event == nil {
		return fmt.Errorf("%w: decision carries no change event", shared.ErrInvalidInput)
	}

	query := shared.Rebind(driver, `
		INSERT INTO song_change_events
			(id, team, player, previous_song_title, previous_song_artist,
			 new_song_title, new_song_artist, change_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := tx.ExecContext(ctx, query,
		event.ID,
		event.Team,
		event.Player,
		event.PreviousTitle,
		event.PreviousArtist,
		event.NewTitle,
		event.NewArtist,
		event.ChangeDate,
	)
	if err != nil {
		return fmt.Errorf("failed to insert change event: %w", err)
	}
	return nil
}

// scanChangeEvent scans a row from [sql.Rows] into a [models.ChangeEvent]
func scanChangeEvent(rows *sql.Rows) (*models.ChangeEvent, error) {
	var (
		id             string
		team           string
		player         string
		previousTitle  sql.NullString
		previousArtist sql.NullString
		newTitle       string
		newArtist      sql.NullString
		changeDate     time.Time
	)

	err := rows.Scan(&id, &team, &player, &previousTitle, &previousArtist,
		&newTitle, &newArtist, &changeDate)
	if err != nil {
		return nil, fmt.Errorf("failed to scan change event: %w", err)
	}

	event := &models.ChangeEvent{
		ID:         id,
		Team:       team,
		Player:     player,
		NewTitle:   newTitle,
		NewArtist:  newArtist.String,
		ChangeDate: changeDate,
	}
	if previousTitle.Valid {
		event.PreviousTitle = &previousTitle.String
	}
	if previousArtist.Valid {
		event.PreviousArtist = &previousArtist.String
	}

	return event, nil
}

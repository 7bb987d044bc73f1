package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/grouphunt/groupsearch-bot/internal/biz/domain"
	"github.com/grouphunt/groupsearch-bot/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// groupRepo implements the persistence gateway on SQLite
type groupRepo struct {
	db *sql.DB
}

// NewGroupRepo opens (or creates) the group database
func NewGroupRepo(dbPath string) (repo.GroupRepo, error) {
	if dbPath != ":memory:" {
		// Ensure directory exists
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer; SQLite serializes the rest
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS searched_groups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			group_key TEXT UNIQUE NOT NULL,
			group_name TEXT NOT NULL,
			group_username TEXT NOT NULL DEFAULT '',
			group_description TEXT NOT NULL DEFAULT '',
			members_label TEXT NOT NULL DEFAULT '',
			members_count INTEGER NOT NULL DEFAULT 0,
			group_type TEXT NOT NULL DEFAULT 'group',
			invite_link TEXT NOT NULL DEFAULT '',
			search_query TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			found_date INTEGER NOT NULL,
			is_verified INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create searched_groups table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS search_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			search_query TEXT NOT NULL,
			results_count INTEGER NOT NULL,
			search_date INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create search_history table: %w", err)
	}

	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_groups_ranking ON searched_groups(members_count DESC, found_date DESC)`)
	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_history_user ON search_history(user_id, search_date)`)

	fmt.Printf("[Store] Database initialized: %s\n", dbPath)
	return &groupRepo{db: db}, nil
}

// unavailable tags a storage error with the persistence error kind
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrPersistenceUnavailable, op, err)
}

// SaveGroup upserts a group on its natural key
func (r *groupRepo) SaveGroup(ctx context.Context, g *domain.Group) error {
	foundAt := g.FoundAt
	if foundAt.IsZero() {
		foundAt = time.Now()
	}
	groupType := g.Type
	if groupType == "" {
		groupType = domain.GroupTypeGroup
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO searched_groups (
			group_key, group_name, group_username, group_description, members_label, members_count,
			group_type, invite_link, search_query, source, found_date, is_verified
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(group_key) DO UPDATE SET
			group_name = excluded.group_name,
			group_username = excluded.group_username,
			group_description = excluded.group_description,
			members_label = excluded.members_label,
			members_count = excluded.members_count,
			group_type = excluded.group_type,
			invite_link = excluded.invite_link,
			search_query = excluded.search_query,
			source = excluded.source,
			found_date = excluded.found_date,
			is_verified = excluded.is_verified
	`,
		g.StorageKey(), g.Title, g.Username, g.Description, g.Members, g.MemberCount(),
		groupType, g.InviteLink, g.SourceQuery, g.Source, foundAt.UnixMilli(), g.IsVerified,
	)
	if err != nil {
		return unavailable("save group", err)
	}
	return nil
}

const groupColumns = `group_name, group_username, group_description, members_label, group_type,
	invite_link, search_query, source, found_date, is_verified`

// GetGroup gets a stored group by username
func (r *groupRepo) GetGroup(ctx context.Context, username string) (*domain.Group, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+groupColumns+`
		FROM searched_groups
		WHERE group_key = ?
	`, "@"+strings.ToLower(username))

	g, err := scanGroup(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get group", err)
	}
	return g, nil
}

// FindSavedGroups searches stored groups by substring
func (r *groupRepo) FindSavedGroups(ctx context.Context, fragment string, limit int) ([]*domain.Group, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + escapeLike(strings.ToLower(fragment)) + "%"

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+groupColumns+`
		FROM searched_groups
		WHERE lower(search_query) LIKE ? ESCAPE '\'
			OR lower(group_name) LIKE ? ESCAPE '\'
			OR lower(group_description) LIKE ? ESCAPE '\'
		ORDER BY members_count DESC, found_date DESC
		LIMIT ?
	`, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, unavailable("find saved groups", err)
	}
	defer rows.Close()

	var groups []*domain.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, unavailable("scan group", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate groups", err)
	}
	return groups, nil
}

// SaveSearchEvent appends a search history row
func (r *groupRepo) SaveSearchEvent(ctx context.Context, e *domain.SearchEvent) error {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO search_history (user_id, search_query, results_count, search_date)
		VALUES (?, ?, ?, ?)
	`, e.UserID, e.Query, e.ResultCount, createdAt.UnixMilli())
	if err != nil {
		return unavailable("save search", err)
	}
	return nil
}

// RecentSearches lists a user's latest searches
func (r *groupRepo) RecentSearches(ctx context.Context, userID string, limit int) ([]*domain.SearchEvent, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, search_query, results_count, search_date
		FROM search_history
		WHERE user_id = ?
		ORDER BY search_date DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, unavailable("list searches", err)
	}
	defer rows.Close()

	var events []*domain.SearchEvent
	for rows.Next() {
		var e domain.SearchEvent
		var createdAt int64
		if err := rows.Scan(&e.UserID, &e.Query, &e.ResultCount, &createdAt); err != nil {
			return nil, unavailable("scan search", err)
		}
		e.CreatedAt = time.UnixMilli(createdAt)
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate searches", err)
	}
	return events, nil
}

// CountSearches counts a user's searches
func (r *groupRepo) CountSearches(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM search_history WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, unavailable("count searches", err)
	}
	return count, nil
}

// Close closes the database connection
func (r *groupRepo) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (*domain.Group, error) {
	var g domain.Group
	var foundAt int64
	err := row.Scan(&g.Title, &g.Username, &g.Description, &g.Members, &g.Type,
		&g.InviteLink, &g.SourceQuery, &g.Source, &foundAt, &g.IsVerified)
	if err != nil {
		return nil, err
	}
	g.FoundAt = time.UnixMilli(foundAt)
	return &g, nil
}

// escapeLike escapes LIKE wildcards so the fragment matches literally
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

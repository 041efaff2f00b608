package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fanforge/fanforge/pkg/fanforge"
)

// DBTX is an interface that allows us to use either a connection pool or a
// transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements fanforge.Repository using PostgreSQL. Sibling lists
// read inside a transaction take row locks (FOR UPDATE), so concurrent order
// swaps on the same parent serialize on the database.
type Repository struct {
	db   DBTX
	pool *pgxpool.Pool // nil when this repository is transaction-scoped
}

// New creates a new PostgreSQL repository over an existing connection or
// transaction. InTransaction on such a repository reuses the given handle.
func New(db DBTX) fanforge.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with a connection pool,
// enabling real transactions.
func NewWithPool(pool *pgxpool.Pool) fanforge.Repository {
	return &Repository{db: pool, pool: pool}
}

// lockClause returns FOR UPDATE inside a transaction so the read-compare-swap
// of the ordering engine holds its sibling rows until commit.
func (r *Repository) lockClause() string {
	if r.pool == nil {
		return " FOR UPDATE"
	}
	return ""
}

func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "filter") {
				return fanforge.ErrDuplicateFilterValue
			}
			return fanforge.ErrConflict
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		case "40001": // serialization_failure
			return fanforge.ErrConflict
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Fandom operations

func (r *Repository) CreateFandom(ctx context.Context, fandom *fanforge.Fandom) error {
	query := `
		INSERT INTO fandom (id, name, description, image_ref, creator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		fandom.ID, fandom.Name, fandom.Description, fandom.ImageRef,
		fandom.CreatorID, fandom.CreatedAt, fandom.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create fandom", err)
	}

	return nil
}

func (r *Repository) GetFandom(ctx context.Context, id uuid.UUID) (*fanforge.Fandom, error) {
	query := `
		SELECT id, name, description, image_ref, creator_id, created_at, updated_at
		FROM fandom WHERE id = $1`

	var fandom fanforge.Fandom
	err := r.db.QueryRow(ctx, query, id).Scan(
		&fandom.ID, &fandom.Name, &fandom.Description, &fandom.ImageRef,
		&fandom.CreatorID, &fandom.CreatedAt, &fandom.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fanforge.ErrFandomNotFound
		}
		return nil, r.handlePostgresError("get fandom", err)
	}

	return &fandom, nil
}

func (r *Repository) UpdateFandom(ctx context.Context, fandom *fanforge.Fandom) error {
	query := `
		UPDATE fandom SET name = $2, description = $3, image_ref = $4, updated_at = $5
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		fandom.ID, fandom.Name, fandom.Description, fandom.ImageRef, fandom.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update fandom", err)
	}
	if tag.RowsAffected() == 0 {
		return fanforge.ErrFandomNotFound
	}

	return nil
}

func (r *Repository) ListFandoms(ctx context.Context) ([]*fanforge.Fandom, error) {
	query := `
		SELECT id, name, description, image_ref, creator_id, created_at, updated_at
		FROM fandom ORDER BY created_at DESC, id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, r.handlePostgresError("list fandoms", err)
	}
	defer rows.Close()

	var fandoms []*fanforge.Fandom
	for rows.Next() {
		var fandom fanforge.Fandom
		if err := rows.Scan(
			&fandom.ID, &fandom.Name, &fandom.Description, &fandom.ImageRef,
			&fandom.CreatorID, &fandom.CreatedAt, &fandom.UpdatedAt); err != nil {
			return nil, r.handlePostgresError("scan fandom", err)
		}
		fandoms = append(fandoms, &fandom)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("iterate fandom rows", err)
	}

	return fandoms, nil
}

// Page operations

func (r *Repository) CreatePage(ctx context.Context, page *fanforge.Page) error {
	query := `
		INSERT INTO page (id, fandom_id, title, description, hero_title, hero_subtitle,
			hero_button_label, background_color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		page.ID, page.FandomID, page.Title, page.Description, page.HeroTitle,
		page.HeroSubtitle, page.HeroButtonLabel, page.BackgroundColor,
		page.CreatedAt, page.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create page", err)
	}

	return nil
}

const pageColumns = `id, fandom_id, title, description, hero_title, hero_subtitle,
	hero_button_label, background_color, created_at, updated_at`

func scanPage(row pgx.Row) (*fanforge.Page, error) {
	var page fanforge.Page
	err := row.Scan(
		&page.ID, &page.FandomID, &page.Title, &page.Description, &page.HeroTitle,
		&page.HeroSubtitle, &page.HeroButtonLabel, &page.BackgroundColor,
		&page.CreatedAt, &page.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fanforge.ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

func (r *Repository) GetPage(ctx context.Context, id uuid.UUID) (*fanforge.Page, error) {
	query := `SELECT ` + pageColumns + ` FROM page WHERE id = $1`
	return scanPage(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) GetPageByFandomID(ctx context.Context, fandomID uuid.UUID) (*fanforge.Page, error) {
	query := `SELECT ` + pageColumns + ` FROM page WHERE fandom_id = $1`
	return scanPage(r.db.QueryRow(ctx, query, fandomID))
}

func (r *Repository) UpdatePage(ctx context.Context, page *fanforge.Page) error {
	query := `
		UPDATE page SET title = $2, description = $3, hero_title = $4, hero_subtitle = $5,
			hero_button_label = $6, background_color = $7, updated_at = $8
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		page.ID, page.Title, page.Description, page.HeroTitle, page.HeroSubtitle,
		page.HeroButtonLabel, page.BackgroundColor, page.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update page", err)
	}
	if tag.RowsAffected() == 0 {
		return fanforge.ErrPageNotFound
	}

	return nil
}

// Section operations

func (r *Repository) CreateSection(ctx context.Context, section *fanforge.Section) error {
	query := `
		INSERT INTO section (id, page_id, type, title, description, sort_order, active,
			content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		section.ID, section.PageID, string(section.Type), section.Title,
		section.Description, section.Order, section.Active, section.Content,
		section.CreatedAt, section.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create section", err)
	}

	return nil
}

const sectionColumns = `id, page_id, type, title, description, sort_order, active,
	content, created_at, updated_at`

func scanSection(row pgx.Row) (*fanforge.Section, error) {
	var section fanforge.Section
	var sectionType string
	err := row.Scan(
		&section.ID, &section.PageID, &sectionType, &section.Title,
		&section.Description, &section.Order, &section.Active, &section.Content,
		&section.CreatedAt, &section.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fanforge.ErrSectionNotFound
		}
		return nil, err
	}
	section.Type = fanforge.SectionType(sectionType)
	return &section, nil
}

func (r *Repository) GetSection(ctx context.Context, id uuid.UUID) (*fanforge.Section, error) {
	query := `SELECT ` + sectionColumns + ` FROM section WHERE id = $1`
	return scanSection(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) UpdateSection(ctx context.Context, section *fanforge.Section) error {
	query := `
		UPDATE section SET title = $2, description = $3, sort_order = $4, active = $5,
			content = $6, updated_at = $7
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		section.ID, section.Title, section.Description, section.Order,
		section.Active, section.Content, section.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update section", err)
	}
	if tag.RowsAffected() == 0 {
		return fanforge.ErrSectionNotFound
	}

	return nil
}

func (r *Repository) ListSections(ctx context.Context, pageID uuid.UUID, activeOnly bool) ([]*fanforge.Section, error) {
	query := `SELECT ` + sectionColumns + ` FROM section WHERE page_id = $1`
	if activeOnly {
		query += ` AND active`
	}
	query += ` ORDER BY sort_order, created_at, id` + r.lockClause()

	rows, err := r.db.Query(ctx, query, pageID)
	if err != nil {
		return nil, r.handlePostgresError("list sections", err)
	}
	defer rows.Close()

	var sections []*fanforge.Section
	for rows.Next() {
		section, err := scanSection(rows)
		if err != nil {
			return nil, r.handlePostgresError("scan section", err)
		}
		sections = append(sections, section)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("iterate section rows", err)
	}

	return sections, nil
}

// Item operations

func (r *Repository) CreateItem(ctx context.Context, item *fanforge.Item) error {
	query := `
		INSERT INTO item (id, section_id, item_type, title, description, image_ref,
			color, sort_order, active, custom_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(ctx, query,
		item.ID, item.SectionID, item.ItemType, item.Title, item.Description,
		item.ImageRef, item.Color, item.Order, item.Active, item.CustomData,
		item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create item", err)
	}

	return nil
}

const itemColumns = `id, section_id, item_type, title, description, image_ref,
	color, sort_order, active, custom_data, created_at, updated_at`

func scanItem(row pgx.Row) (*fanforge.Item, error) {
	var item fanforge.Item
	err := row.Scan(
		&item.ID, &item.SectionID, &item.ItemType, &item.Title, &item.Description,
		&item.ImageRef, &item.Color, &item.Order, &item.Active, &item.CustomData,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fanforge.ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*fanforge.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM item WHERE id = $1`
	return scanItem(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) UpdateItem(ctx context.Context, item *fanforge.Item) error {
	query := `
		UPDATE item SET item_type = $2, title = $3, description = $4, image_ref = $5,
			color = $6, sort_order = $7, active = $8, custom_data = $9, updated_at = $10
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		item.ID, item.ItemType, item.Title, item.Description, item.ImageRef,
		item.Color, item.Order, item.Active, item.CustomData, item.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update item", err)
	}
	if tag.RowsAffected() == 0 {
		return fanforge.ErrItemNotFound
	}

	return nil
}

func (r *Repository) ListItems(ctx context.Context, sectionID uuid.UUID, activeOnly bool) ([]*fanforge.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM item WHERE section_id = $1`
	if activeOnly {
		query += ` AND active`
	}
	query += ` ORDER BY sort_order, created_at, id` + r.lockClause()

	rows, err := r.db.Query(ctx, query, sectionID)
	if err != nil {
		return nil, r.handlePostgresError("list items", err)
	}
	defer rows.Close()

	var items []*fanforge.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, r.handlePostgresError("scan item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("iterate item rows", err)
	}

	return items, nil
}

// Filter operations

func (r *Repository) CreateFilter(ctx context.Context, filter *fanforge.Filter) error {
	query := `
		INSERT INTO filter (id, section_id, label, value, color, sort_order, active,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		filter.ID, filter.SectionID, filter.Label, filter.Value, filter.Color,
		filter.Order, filter.Active, filter.CreatedAt, filter.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create filter", err)
	}

	return nil
}

const filterColumns = `id, section_id, label, value, color, sort_order, active,
	created_at, updated_at`

func scanFilter(row pgx.Row) (*fanforge.Filter, error) {
	var filter fanforge.Filter
	err := row.Scan(
		&filter.ID, &filter.SectionID, &filter.Label, &filter.Value, &filter.Color,
		&filter.Order, &filter.Active, &filter.CreatedAt, &filter.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fanforge.ErrFilterNotFound
		}
		return nil, err
	}
	return &filter, nil
}

func (r *Repository) GetFilter(ctx context.Context, id uuid.UUID) (*fanforge.Filter, error) {
	query := `SELECT ` + filterColumns + ` FROM filter WHERE id = $1`
	return scanFilter(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) GetFilterByValue(ctx context.Context, sectionID uuid.UUID, value string) (*fanforge.Filter, error) {
	query := `SELECT ` + filterColumns + ` FROM filter WHERE section_id = $1 AND value = $2`
	return scanFilter(r.db.QueryRow(ctx, query, sectionID, value))
}

func (r *Repository) UpdateFilter(ctx context.Context, filter *fanforge.Filter) error {
	query := `
		UPDATE filter SET label = $2, value = $3, color = $4, sort_order = $5,
			active = $6, updated_at = $7
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		filter.ID, filter.Label, filter.Value, filter.Color, filter.Order,
		filter.Active, filter.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update filter", err)
	}
	if tag.RowsAffected() == 0 {
		return fanforge.ErrFilterNotFound
	}

	return nil
}

// DeleteFilter is a hard delete. Item category lists are left untouched.
func (r *Repository) DeleteFilter(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM filter WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete filter", err)
	}
	if tag.RowsAffected() == 0 {
		return fanforge.ErrFilterNotFound
	}

	return nil
}

func (r *Repository) ListFilters(ctx context.Context, sectionID uuid.UUID, activeOnly bool) ([]*fanforge.Filter, error) {
	query := `SELECT ` + filterColumns + ` FROM filter WHERE section_id = $1`
	if activeOnly {
		query += ` AND active`
	}
	query += ` ORDER BY sort_order, created_at, id` + r.lockClause()

	rows, err := r.db.Query(ctx, query, sectionID)
	if err != nil {
		return nil, r.handlePostgresError("list filters", err)
	}
	defer rows.Close()

	var filters []*fanforge.Filter
	for rows.Next() {
		filter, err := scanFilter(rows)
		if err != nil {
			return nil, r.handlePostgresError("scan filter", err)
		}
		filters = append(filters, filter)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("iterate filter rows", err)
	}

	return filters, nil
}

// Follow operations

func (r *Repository) CreateFollow(ctx context.Context, follow *fanforge.Follow) error {
	query := `
		INSERT INTO follow (user_id, fandom_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, fandom_id) DO NOTHING`

	_, err := r.db.Exec(ctx, query, follow.UserID, follow.FandomID, follow.CreatedAt)
	if err != nil {
		return r.handlePostgresError("create follow", err)
	}

	return nil
}

func (r *Repository) DeleteFollow(ctx context.Context, userID, fandomID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM follow WHERE user_id = $1 AND fandom_id = $2`, userID, fandomID)
	if err != nil {
		return r.handlePostgresError("delete follow", err)
	}
	if tag.RowsAffected() == 0 {
		return fanforge.ErrFollowNotFound
	}

	return nil
}

func (r *Repository) GetFollow(ctx context.Context, userID, fandomID uuid.UUID) (*fanforge.Follow, error) {
	query := `SELECT user_id, fandom_id, created_at FROM follow WHERE user_id = $1 AND fandom_id = $2`

	var follow fanforge.Follow
	err := r.db.QueryRow(ctx, query, userID, fandomID).Scan(
		&follow.UserID, &follow.FandomID, &follow.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fanforge.ErrFollowNotFound
		}
		return nil, r.handlePostgresError("get follow", err)
	}

	return &follow, nil
}

func (r *Repository) ListFollowedFandoms(ctx context.Context, userID uuid.UUID) ([]*fanforge.Fandom, error) {
	query := `
		SELECT f.id, f.name, f.description, f.image_ref, f.creator_id, f.created_at, f.updated_at
		FROM fandom f
		JOIN follow fl ON fl.fandom_id = f.id
		WHERE fl.user_id = $1
		ORDER BY f.created_at DESC, f.id`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, r.handlePostgresError("list followed fandoms", err)
	}
	defer rows.Close()

	var fandoms []*fanforge.Fandom
	for rows.Next() {
		var fandom fanforge.Fandom
		if err := rows.Scan(
			&fandom.ID, &fandom.Name, &fandom.Description, &fandom.ImageRef,
			&fandom.CreatorID, &fandom.CreatedAt, &fandom.UpdatedAt); err != nil {
			return nil, r.handlePostgresError("scan followed fandom", err)
		}
		fandoms = append(fandoms, &fandom)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("iterate followed fandom rows", err)
	}

	return fandoms, nil
}

// InTransaction runs fn against a transaction-scoped repository. Without a
// pool (already inside a transaction, or constructed over a bare connection)
// fn runs against the current handle.
func (r *Repository) InTransaction(ctx context.Context, fn func(fanforge.Repository) error) error {
	if r.pool == nil {
		return fn(r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Repository{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

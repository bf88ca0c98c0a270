package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/placepix/placemedia/pkg/placemedia"
)

// Repository implements placemedia.Repository using PostgreSQL. The
// credential batch insert and the cascade delete run in transactions;
// everything else is single-row and relies on per-statement atomicity.
type Repository struct {
	pool *pgxpool.Pool
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) placemedia.Repository {
	return &Repository{pool: pool}
}

func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("duplicate entry in %s: %s", operation, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found in %s", operation)
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		}
		return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

const mediaColumns = `
	id, owner_id, client_key, status, original_key, thumbnail_key,
	original_url, thumbnail_url, lat, lng, captured_at, address,
	display_order, parent_kind, parent_id, created_at, updated_at`

func scanMedia(row pgx.Row) (*placemedia.Media, error) {
	var m placemedia.Media
	var lat, lng *float64
	var capturedAt *time.Time
	var parentKind *string
	var parentID *uuid.UUID

	err := row.Scan(
		&m.ID, &m.OwnerID, &m.ClientKey, &m.Status, &m.OriginalKey, &m.ThumbnailKey,
		&m.OriginalURL, &m.ThumbnailURL, &lat, &lng, &capturedAt, &m.Address,
		&m.DisplayOrder, &parentKind, &parentID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if lat != nil && lng != nil {
		m.Location = &placemedia.GeoPoint{Lat: *lat, Lng: *lng}
	}
	m.CapturedAt = capturedAt
	if parentKind != nil && parentID != nil {
		m.Parent = &placemedia.ParentRef{Kind: placemedia.PostKind(*parentKind), ID: *parentID}
	}
	return &m, nil
}

func mediaArgs(m *placemedia.Media) []interface{} {
	var lat, lng *float64
	if m.Location != nil {
		lat, lng = &m.Location.Lat, &m.Location.Lng
	}
	var parentKind *string
	var parentID *uuid.UUID
	if m.Parent != nil {
		k := string(m.Parent.Kind)
		parentKind, parentID = &k, &m.Parent.ID
	}
	return []interface{}{
		m.ID, m.OwnerID, m.ClientKey, m.Status, m.OriginalKey, m.ThumbnailKey,
		m.OriginalURL, m.ThumbnailURL, lat, lng, m.CapturedAt, m.Address,
		m.DisplayOrder, parentKind, parentID, m.CreatedAt, m.UpdatedAt,
	}
}

// Media operations

func (r *Repository) CreateMediaBatch(ctx context.Context, media []*placemedia.Media) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return handlePostgresError("create media batch", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO media (` + mediaColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	for _, m := range media {
		if _, err := tx.Exec(ctx, query, mediaArgs(m)...); err != nil {
			return handlePostgresError("create media batch", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return handlePostgresError("create media batch", err)
	}
	return nil
}

func (r *Repository) GetMedia(ctx context.Context, id uuid.UUID) (*placemedia.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media WHERE id = $1`

	m, err := scanMedia(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, placemedia.ErrMediaNotFound
		}
		return nil, handlePostgresError("get media", err)
	}
	return m, nil
}

func (r *Repository) ListPendingMediaByOwner(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]*placemedia.Media, error) {
	query := `
		SELECT ` + mediaColumns + `
		FROM media
		WHERE id = ANY($1) AND owner_id = $2 AND status = $3`

	rows, err := r.pool.Query(ctx, query, ids, ownerID, placemedia.MediaStatusPending)
	if err != nil {
		return nil, handlePostgresError("list pending media", err)
	}
	defer rows.Close()

	return collectMedia(rows)
}

func (r *Repository) ListMediaByParent(ctx context.Context, parent placemedia.ParentRef) ([]*placemedia.Media, error) {
	query := `
		SELECT ` + mediaColumns + `
		FROM media
		WHERE parent_kind = $1 AND parent_id = $2
		ORDER BY display_order ASC`

	rows, err := r.pool.Query(ctx, query, string(parent.Kind), parent.ID)
	if err != nil {
		return nil, handlePostgresError("list media by parent", err)
	}
	defer rows.Close()

	return collectMedia(rows)
}

func collectMedia(rows pgx.Rows) ([]*placemedia.Media, error) {
	var result []*placemedia.Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, handlePostgresError("scan media", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("scan media", err)
	}
	return result, nil
}

func (r *Repository) UpdateMedia(ctx context.Context, media *placemedia.Media) error {
	query := `
		UPDATE media SET
			client_key = $2, status = $3, original_key = $4, thumbnail_key = $5,
			original_url = $6, thumbnail_url = $7, lat = $8, lng = $9,
			captured_at = $10, address = $11, display_order = $12,
			parent_kind = $13, parent_id = $14, updated_at = $15
		WHERE id = $1`

	var lat, lng *float64
	if media.Location != nil {
		lat, lng = &media.Location.Lat, &media.Location.Lng
	}
	var parentKind *string
	var parentID *uuid.UUID
	if media.Parent != nil {
		k := string(media.Parent.Kind)
		parentKind, parentID = &k, &media.Parent.ID
	}

	// owner_id and created_at never change after creation
	tag, err := r.pool.Exec(ctx, query,
		media.ID, media.ClientKey, media.Status, media.OriginalKey, media.ThumbnailKey,
		media.OriginalURL, media.ThumbnailURL, lat, lng, media.CapturedAt,
		media.Address, media.DisplayOrder, parentKind, parentID, media.UpdatedAt)
	if err != nil {
		return handlePostgresError("update media", err)
	}
	if tag.RowsAffected() == 0 {
		return placemedia.ErrMediaNotFound
	}
	return nil
}

func (r *Repository) DeleteMedia(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM media WHERE id = $1`, id)
	if err != nil {
		return handlePostgresError("delete media", err)
	}
	if tag.RowsAffected() == 0 {
		return placemedia.ErrMediaNotFound
	}
	return nil
}

// Post operations

func (r *Repository) CreatePost(ctx context.Context, post *placemedia.Post) error {
	query := `
		INSERT INTO posts (
			id, kind, owner_id, description, main_image_url, media_count,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		post.ID, string(post.Kind), post.OwnerID, post.Description,
		post.MainImageURL, post.MediaCount, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return handlePostgresError("create post", err)
	}
	return nil
}

func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*placemedia.Post, error) {
	query := `
		SELECT id, kind, owner_id, description, main_image_url, media_count,
		       created_at, updated_at
		FROM posts WHERE id = $1`

	var p placemedia.Post
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Kind, &p.OwnerID, &p.Description, &p.MainImageURL,
		&p.MediaCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, placemedia.ErrPostNotFound
		}
		return nil, handlePostgresError("get post", err)
	}
	return &p, nil
}

func (r *Repository) UpdatePost(ctx context.Context, post *placemedia.Post) error {
	query := `
		UPDATE posts SET
			description = $2, main_image_url = $3, media_count = $4, updated_at = $5
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		post.ID, post.Description, post.MainImageURL, post.MediaCount, post.UpdatedAt)
	if err != nil {
		return handlePostgresError("update post", err)
	}
	if tag.RowsAffected() == 0 {
		return placemedia.ErrPostNotFound
	}
	return nil
}

func (r *Repository) DeletePostCascade(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return handlePostgresError("delete post", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM media WHERE parent_id = $1`, id); err != nil {
		return handlePostgresError("delete post media", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return handlePostgresError("delete post", err)
	}
	if tag.RowsAffected() == 0 {
		return placemedia.ErrPostNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return handlePostgresError("delete post", err)
	}
	return nil
}

func (r *Repository) ListPostsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*placemedia.Post, error) {
	query := `
		SELECT id, kind, owner_id, description, main_image_url, media_count,
		       created_at, updated_at
		FROM posts WHERE owner_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, handlePostgresError("list posts", err)
	}
	defer rows.Close()

	var result []*placemedia.Post
	for rows.Next() {
		var p placemedia.Post
		err := rows.Scan(
			&p.ID, &p.Kind, &p.OwnerID, &p.Description, &p.MainImageURL,
			&p.MediaCount, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, handlePostgresError("scan post", err)
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("scan post", err)
	}
	return result, nil
}

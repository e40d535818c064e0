package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const pgUniqueViolation = "23505"

const commentsSchema = `CREATE TABLE IF NOT EXISTS comments (
	id       TEXT PRIMARY KEY,
	movie_id TEXT NOT NULL DEFAULT '',
	name     TEXT NOT NULL DEFAULT '',
	email    TEXT NOT NULL,
	text     TEXT NOT NULL,
	date     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS comments_email_idx ON comments (email)`

// criticsTxOptions makes the report read a single committed snapshot.
var criticsTxOptions = pgx.TxOptions{IsoLevel: pgx.Serializable, AccessMode: pgx.ReadOnly}

// PostgresCommentStore persists comments in Postgres.
type PostgresCommentStore struct {
	pool *pgxpool.Pool
	opts Options
}

// NewPostgresCommentStore creates a store backed by Postgres.
func NewPostgresCommentStore(pool *pgxpool.Pool, opts Options) *PostgresCommentStore {
	return &PostgresCommentStore{pool: pool, opts: opts}
}

// EnsureSchema creates the comments table when missing.
func (s *PostgresCommentStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, commentsSchema)
	return err
}

func (s *PostgresCommentStore) Get(ctx context.Context, id string) (Comment, error) {
	ctx, cancel := s.opts.withDeadline(ctx)
	defer cancel()

	const q = `SELECT id, movie_id, name, email, text, date FROM comments WHERE id = $1`
	var c Comment
	err := s.pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.MovieID, &c.Name, &c.Email, &c.Text, &c.Date)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Comment{}, ErrNotFound
		}
		return Comment{}, fmt.Errorf("get comment %s: %w", id, deadline("get", err))
	}
	c.Date = c.Date.UTC()
	return c, nil
}

func (s *PostgresCommentStore) Add(ctx context.Context, c Comment) (Comment, error) {
	if c.ID == "" {
		return Comment{}, missingID()
	}
	ctx, cancel := s.opts.withDeadline(ctx)
	defer cancel()

	const q = `INSERT INTO comments (id, movie_id, name, email, text, date)
	           VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := s.pool.Exec(ctx, q, c.ID, c.MovieID, c.Name, c.Email, c.Text, c.Date); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			s.opts.logger().Warn("duplicate comment id", zap.String("comment_id", c.ID))
			return Comment{}, &WriteError{Op: "insert", Err: ErrDuplicateKey}
		}
		s.opts.logger().Error("insert comment failed", zap.String("comment_id", c.ID), zap.Error(err))
		return Comment{}, &WriteError{Op: "insert", Err: deadline("insert", err)}
	}
	return c, nil
}

func (s *PostgresCommentStore) UpdateText(ctx context.Context, id, text, email string) (bool, error) {
	ctx, cancel := s.opts.withDeadline(ctx)
	defer cancel()

	const q = `UPDATE comments SET text = $1, date = $2 WHERE id = $3 AND email = $4`
	tag, err := s.pool.Exec(ctx, q, text, s.opts.now(), id, email)
	if err != nil {
		s.opts.logger().Error("update comment failed", zap.String("comment_id", id), zap.Error(err))
		return false, &WriteError{Op: "update", Err: deadline("update", err)}
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresCommentStore) Delete(ctx context.Context, id, email string) (bool, error) {
	if id == "" {
		return false, missingID()
	}
	if email == "" {
		return false, nil
	}
	ctx, cancel := s.opts.withDeadline(ctx)
	defer cancel()

	const q = `DELETE FROM comments WHERE id = $1 AND email = $2`
	tag, err := s.pool.Exec(ctx, q, id, email)
	if err != nil {
		s.opts.logger().Error("delete comment failed", zap.String("comment_id", id), zap.Error(err))
		return false, &WriteError{Op: "delete", Err: deadline("delete", err)}
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresCommentStore) MostActiveCommenters(ctx context.Context) ([]Critic, error) {
	ctx, cancel := s.opts.withDeadline(ctx)
	defer cancel()

	tx, err := s.pool.BeginTx(ctx, criticsTxOptions)
	if err != nil {
		return nil, fmt.Errorf("begin critics tx: %w", deadline("critics", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const q = `SELECT email, COUNT(*) AS count
	           FROM comments
	           GROUP BY email
	           ORDER BY count DESC, email ASC
	           LIMIT $1`
	rows, err := tx.Query(ctx, q, CriticsLimit)
	if err != nil {
		return nil, fmt.Errorf("query critics: %w", deadline("critics", err))
	}
	critics, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Critic])
	if err != nil {
		return nil, fmt.Errorf("scan critics: %w", deadline("critics", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit critics tx: %w", err)
	}
	return critics, nil
}

func (s *PostgresCommentStore) Ping(ctx context.Context) error {
	ctx, cancel := s.opts.withDeadline(ctx)
	defer cancel()
	return s.pool.Ping(ctx)
}

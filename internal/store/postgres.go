package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	// Use advisory lock to prevent concurrent migrations from multiple services.
	// Note: In production, use dedicated migration tools (e.g., golang-migrate/migrate)
	// that run as a separate deployment step before app services start.
	const lockID = 874120533 // arbitrary number for this application's migration lock

	var acquired bool
	err := s.db.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, lockID).Scan(&acquired)
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}

	if !acquired {
		// Another service is running migrations; wait briefly and skip
		time.Sleep(2 * time.Second)
		return nil
	}

	defer func() {
		_, _ = s.db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
	}()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS articles (
			id UUID PRIMARY KEY,
			source_url TEXT,
			title TEXT,
			site_name TEXT,
			content TEXT,
			status TEXT,
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS reports (
			article_id UUID PRIMARY KEY REFERENCES articles(id) ON DELETE CASCADE,
			summary TEXT,
			sentiment TEXT,
			sentiment_basis TEXT,
			risks TEXT[],
			opportunities TEXT[],
			model TEXT,
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS digests (
			id UUID PRIMARY KEY,
			paragraph TEXT,
			bullets TEXT[],
			article_count INT,
			model TEXT,
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS reports_created_at_idx ON reports (created_at);`,
		`CREATE INDEX IF NOT EXISTS digests_created_at_idx ON digests (created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) CreateArticle(ctx context.Context, sourceURL, title string) (Article, error) {
	id := uuid.New()
	status := StatusFetching
	if sourceURL == "" {
		// Pasted or uploaded text skips the fetch stage.
		status = StatusAnalyzing
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO articles(id, source_url, title, status) VALUES($1,$2,$3,$4)`,
		id, sourceURL, title, status)
	if err != nil {
		return Article{}, err
	}
	return Article{ID: id, SourceURL: sourceURL, Title: title, Status: status, CreatedAt: time.Now()}, nil
}

func (s *PostgresStore) GetArticle(ctx context.Context, id uuid.UUID) (Article, error) {
	var a Article
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source_url, title, site_name, content, status, created_at FROM articles WHERE id=$1`, id)
	var sourceURL, title, siteName, content sql.NullString
	if err := row.Scan(&a.ID, &sourceURL, &title, &siteName, &content, &a.Status, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Article{}, ErrArticleNotFound
		}
		return Article{}, fmt.Errorf("failed to get article %s: %w", id, err)
	}
	a.SourceURL = sourceURL.String
	a.Title = title.String
	a.SiteName = siteName.String
	a.Content = content.String
	return a, nil
}

func (s *PostgresStore) UpdateArticleStatus(ctx context.Context, id uuid.UUID, status ArticleStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE articles SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrArticleNotFound
	}
	return nil
}

func (s *PostgresStore) SetArticleContent(ctx context.Context, id uuid.UUID, title, siteName, content string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE articles SET title=COALESCE(NULLIF($1,''), title), site_name=$2, content=$3 WHERE id=$4`,
		title, siteName, content, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrArticleNotFound
	}
	return nil
}

func (s *PostgresStore) SaveReport(ctx context.Context, report Report) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports(article_id, summary, sentiment, sentiment_basis, risks, opportunities, model)
		VALUES($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (article_id) DO UPDATE SET
			summary=excluded.summary,
			sentiment=excluded.sentiment,
			sentiment_basis=excluded.sentiment_basis,
			risks=excluded.risks,
			opportunities=excluded.opportunities,
			model=excluded.model,
			created_at=now()`,
		report.ArticleID, report.Summary, report.Sentiment, report.SentimentBasis,
		pqStringArray(report.Risks), pqStringArray(report.Opportunities), report.Model)
	return err
}

func (s *PostgresStore) GetReport(ctx context.Context, articleID uuid.UUID) (Report, error) {
	var rep Report
	var risks, opportunities []string
	row := s.db.QueryRowContext(ctx, `
		SELECT summary, sentiment, sentiment_basis, risks, opportunities, model, created_at
		FROM reports WHERE article_id=$1`, articleID)
	if err := row.Scan(&rep.Summary, &rep.Sentiment, &rep.SentimentBasis,
		pq.Array(&risks), pq.Array(&opportunities), &rep.Model, &rep.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Report{}, ErrReportNotFound
		}
		return Report{}, fmt.Errorf("failed to get report for article %s: %w", articleID, err)
	}
	rep.ArticleID = articleID
	rep.Risks = risks
	rep.Opportunities = opportunities
	return rep, nil
}

func (s *PostgresStore) ListReportsSince(ctx context.Context, since time.Time) ([]Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT article_id, summary, sentiment, sentiment_basis, risks, opportunities, model, created_at
		FROM reports WHERE created_at >= $1 ORDER BY created_at`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		var rep Report
		var risks, opportunities []string
		if err := rows.Scan(&rep.ArticleID, &rep.Summary, &rep.Sentiment, &rep.SentimentBasis,
			pq.Array(&risks), pq.Array(&opportunities), &rep.Model, &rep.CreatedAt); err != nil {
			return nil, err
		}
		rep.Risks = risks
		rep.Opportunities = opportunities
		out = append(out, rep)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveDigest(ctx context.Context, digest Digest) (Digest, error) {
	if digest.ID == uuid.Nil {
		digest.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO digests(id, paragraph, bullets, article_count, model)
		VALUES($1,$2,$3,$4,$5)`,
		digest.ID, digest.Paragraph, pqStringArray(digest.Bullets), digest.ArticleCount, digest.Model)
	if err != nil {
		return Digest{}, err
	}
	digest.CreatedAt = time.Now()
	return digest, nil
}

func (s *PostgresStore) LatestDigest(ctx context.Context) (Digest, error) {
	var d Digest
	var bullets []string
	row := s.db.QueryRowContext(ctx, `
		SELECT id, paragraph, bullets, article_count, model, created_at
		FROM digests ORDER BY created_at DESC LIMIT 1`)
	if err := row.Scan(&d.ID, &d.Paragraph, pq.Array(&bullets), &d.ArticleCount, &d.Model, &d.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Digest{}, ErrDigestNotFound
		}
		return Digest{}, fmt.Errorf("failed to get latest digest: %w", err)
	}
	d.Bullets = bullets
	return d, nil
}

func pqStringArray(items []string) any {
	if len(items) == 0 {
		return pq.Array([]string{})
	}
	return pq.Array(items)
}

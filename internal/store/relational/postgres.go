// internal/store/relational/postgres.go
package relational

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	apperrors "quotegenius/internal/common/errors"
	"quotegenius/internal/common/logger"
	"quotegenius/internal/models"

	"github.com/lib/pq"
)

const storeName = "postgres"

// pq SQLSTATE for foreign_key_violation.
const fkViolation = "23503"

const schema = `
CREATE TABLE IF NOT EXISTS customers (
	customer_id         TEXT PRIMARY KEY,
	customer_name       TEXT NOT NULL,
	industry            TEXT NOT NULL DEFAULT '',
	relationship_length INTEGER NOT NULL DEFAULT 0,
	credit_score        DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS quotes (
	quote_id     TEXT PRIMARY KEY,
	customer_id  TEXT NOT NULL,
	project_name TEXT NOT NULL,
	total_price  DOUBLE PRECISION NOT NULL,
	status       TEXT NOT NULL DEFAULT 'pending',
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	quote_data   JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quotes_customer ON quotes (customer_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_quotes_status_price ON quotes (status, total_price);

CREATE TABLE IF NOT EXISTS feedback (
	feedback_id   BIGSERIAL PRIMARY KEY,
	quote_id      TEXT NOT NULL REFERENCES quotes (quote_id),
	feedback_text TEXT NOT NULL,
	accepted      BOOLEAN NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feedback_quote ON feedback (quote_id, created_at);
`

const (
	queryGetQuote = `SELECT quote_data, status FROM quotes WHERE quote_id = $1`

	queryUpsertQuote = `
		INSERT INTO quotes (quote_id, customer_id, project_name, total_price, status, created_at, updated_at, quote_data)
		VALUES ($1, $2, $3, $4, $5, $6, now(), $7)
		ON CONFLICT (quote_id) DO UPDATE SET
			customer_id  = EXCLUDED.customer_id,
			project_name = EXCLUDED.project_name,
			total_price  = EXCLUDED.total_price,
			updated_at   = now(),
			quote_data   = jsonb_set(EXCLUDED.quote_data, '{status}', to_jsonb(quotes.status))`

	queryCustomerQuotes = `
		SELECT quote_data, status FROM quotes
		WHERE customer_id = $1
		ORDER BY created_at DESC`

	queryGetCustomer = `
		SELECT customer_id, customer_name, industry, relationship_length, credit_score
		FROM customers WHERE customer_id = $1`

	queryUpsertCustomer = `
		INSERT INTO customers (customer_id, customer_name, industry, relationship_length, credit_score)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (customer_id) DO UPDATE SET
			customer_name       = EXCLUDED.customer_name,
			industry            = EXCLUDED.industry,
			relationship_length = EXCLUDED.relationship_length,
			credit_score        = EXCLUDED.credit_score`

	queryInsertFeedback = `
		INSERT INTO feedback (quote_id, feedback_text, accepted, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING feedback_id`

	queryListFeedback = `
		SELECT feedback_id, quote_id, feedback_text, accepted, created_at
		FROM feedback WHERE quote_id = $1
		ORDER BY created_at, feedback_id`

	// The blob's status is rewritten in the same statement as the column.
	querySetStatus = `
		UPDATE quotes
		SET status = $2,
			quote_data = jsonb_set(quote_data, '{status}', to_jsonb($2::text)),
			updated_at = now()
		WHERE quote_id = $1`

	queryAcceptedInRange = `
		SELECT quote_data, status FROM quotes
		WHERE status = 'accepted'
			AND total_price BETWEEN $1 AND $2
			AND quote_id <> $3
		ORDER BY created_at DESC
		LIMIT $4`

	queryStatusBreakdown = `
		SELECT status, COUNT(*), COALESCE(AVG(total_price), 0)
		FROM quotes
		GROUP BY status
		ORDER BY status`

	queryMonthlyTrends = `
		SELECT to_char(date_trunc('month', created_at), 'YYYY-MM') AS month,
			COUNT(*),
			COALESCE(AVG(total_price), 0),
			COUNT(*) FILTER (WHERE status = 'accepted')
		FROM quotes
		GROUP BY month
		ORDER BY month DESC
		LIMIT 12`
)

// PostgresStore implements Store on Postgres through database/sql and lib/pq.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "relational-store"}),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates the tables and indexes if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return apperrors.NewStoreWriteError(storeName, fmt.Errorf("migrate: %w", err))
	}
	return nil
}

func (s *PostgresStore) GetQuote(ctx context.Context, id string) (*models.Quote, error) {
	var (
		blob   []byte
		status string
	)
	err := s.db.QueryRowContext(ctx, queryGetQuote, id).Scan(&blob, &status)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewQuoteNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewStoreReadError(storeName, err).WithMetadata("quoteId", id)
	}

	q, err := decodeQuote(blob, status)
	if err != nil {
		return nil, apperrors.NewStoreReadError(storeName, err).WithMetadata("quoteId", id)
	}
	return q, nil
}

// PutQuote inserts q or re-prices an existing row. Status is only written on
// insert; afterwards SetQuoteStatus owns it.
func (s *PostgresStore) PutQuote(ctx context.Context, q models.Quote) error {
	if q.Status == "" {
		q.Status = models.QuoteStatusPending
	}
	blob, err := json.Marshal(q)
	if err != nil {
		return apperrors.NewStoreWriteError(storeName, fmt.Errorf("encode quote: %w", err)).WithMetadata("quoteId", q.ID)
	}

	_, err = s.db.ExecContext(ctx, queryUpsertQuote,
		q.ID, q.CustomerID, q.ProjectName, q.TotalPrice, string(q.Status), q.CreatedAt, blob)
	if err != nil {
		return apperrors.NewStoreWriteError(storeName, err).WithMetadata("quoteId", q.ID)
	}

	s.logger.Debug("Quote stored", map[string]interface{}{
		"quoteId":    q.ID,
		"totalPrice": q.TotalPrice,
		"status":     q.Status,
	})
	return nil
}

func (s *PostgresStore) GetCustomerQuotes(ctx context.Context, customerID string) ([]models.Quote, error) {
	rows, err := s.db.QueryContext(ctx, queryCustomerQuotes, customerID)
	if err != nil {
		return nil, apperrors.NewStoreReadError(storeName, err).WithMetadata("customerId", customerID)
	}
	quotes, err := scanQuotes(rows)
	if err != nil {
		return nil, apperrors.NewStoreReadError(storeName, err).WithMetadata("customerId", customerID)
	}
	return quotes, nil
}

func (s *PostgresStore) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	var c models.Customer
	err := s.db.QueryRowContext(ctx, queryGetCustomer, id).
		Scan(&c.ID, &c.Name, &c.Industry, &c.RelationshipLength, &c.CreditScore)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewCustomerNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewStoreReadError(storeName, err).WithMetadata("customerId", id)
	}
	return &c, nil
}

func (s *PostgresStore) PutCustomer(ctx context.Context, c models.Customer) error {
	_, err := s.db.ExecContext(ctx, queryUpsertCustomer, c.ID, c.Name, c.Industry, c.RelationshipLength, c.CreditScore)
	if err != nil {
		return apperrors.NewStoreWriteError(storeName, err).WithMetadata("customerId", c.ID)
	}
	return nil
}

func (s *PostgresStore) AppendFeedback(ctx context.Context, quoteID, text string, accepted bool) (*models.Feedback, error) {
	fb := &models.Feedback{
		QuoteID:   quoteID,
		Text:      text,
		Accepted:  accepted,
		CreatedAt: s.now(),
	}

	err := s.db.QueryRowContext(ctx, queryInsertFeedback, quoteID, text, accepted, fb.CreatedAt).Scan(&fb.ID)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && string(pqErr.Code) == fkViolation {
			return nil, apperrors.NewQuoteNotFoundError(quoteID)
		}
		return nil, apperrors.NewStoreWriteError(storeName, err).WithMetadata("quoteId", quoteID)
	}
	return fb, nil
}

func (s *PostgresStore) ListFeedback(ctx context.Context, quoteID string) ([]models.Feedback, error) {
	rows, err := s.db.QueryContext(ctx, queryListFeedback, quoteID)
	if err != nil {
		return nil, apperrors.NewStoreReadError(storeName, err).WithMetadata("quoteId", quoteID)
	}
	defer rows.Close()

	var out []models.Feedback
	for rows.Next() {
		var fb models.Feedback
		if err := rows.Scan(&fb.ID, &fb.QuoteID, &fb.Text, &fb.Accepted, &fb.CreatedAt); err != nil {
			return nil, apperrors.NewStoreReadError(storeName, err).WithMetadata("quoteId", quoteID)
		}
		out = append(out, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreReadError(storeName, err).WithMetadata("quoteId", quoteID)
	}
	return out, nil
}

func (s *PostgresStore) SetQuoteStatus(ctx context.Context, quoteID string, status models.QuoteStatus) error {
	if !status.Valid() {
		return apperrors.NewInvalidInputError(fmt.Sprintf("unknown quote status %q", status))
	}

	res, err := s.db.ExecContext(ctx, querySetStatus, quoteID, string(status))
	if err != nil {
		return apperrors.NewStoreWriteError(storeName, err).WithMetadata("quoteId", quoteID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewStoreWriteError(storeName, err).WithMetadata("quoteId", quoteID)
	}
	if n == 0 {
		return apperrors.NewQuoteNotFoundError(quoteID)
	}
	return nil
}

func (s *PostgresStore) FindAcceptedQuotesInRange(ctx context.Context, minPrice, maxPrice float64, excludeID string, limit int) ([]models.Quote, error) {
	rows, err := s.db.QueryContext(ctx, queryAcceptedInRange, minPrice, maxPrice, excludeID, limit)
	if err != nil {
		return nil, apperrors.NewStoreReadError(storeName, err)
	}
	quotes, err := scanQuotes(rows)
	if err != nil {
		return nil, apperrors.NewStoreReadError(storeName, err)
	}
	return quotes, nil
}

func (s *PostgresStore) AggregateAnalytics(ctx context.Context) (*models.Analytics, error) {
	out := &models.Analytics{
		StatusCounts:         map[models.QuoteStatus]int{},
		AveragePriceByStatus: map[models.QuoteStatus]float64{},
		MonthlyTrends:        []models.MonthlyTrend{},
	}

	rows, err := s.db.QueryContext(ctx, queryStatusBreakdown)
	if err != nil {
		return nil, apperrors.NewStoreReadError(storeName, err)
	}
	for rows.Next() {
		var (
			status string
			count  int
			avg    float64
		)
		if err := rows.Scan(&status, &count, &avg); err != nil {
			rows.Close()
			return nil, apperrors.NewStoreReadError(storeName, err)
		}
		out.StatusCounts[models.QuoteStatus(status)] = count
		out.AveragePriceByStatus[models.QuoteStatus(status)] = avg
		out.TotalCount += count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreReadError(storeName, err)
	}

	rows, err = s.db.QueryContext(ctx, queryMonthlyTrends)
	if err != nil {
		return nil, apperrors.NewStoreReadError(storeName, err)
	}
	defer rows.Close()
	for rows.Next() {
		var m models.MonthlyTrend
		if err := rows.Scan(&m.Month, &m.Count, &m.AveragePrice, &m.AcceptedCount); err != nil {
			return nil, apperrors.NewStoreReadError(storeName, err)
		}
		if m.Count > 0 {
			m.WinRate = float64(m.AcceptedCount) / float64(m.Count)
		}
		out.MonthlyTrends = append(out.MonthlyTrends, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreReadError(storeName, err)
	}

	if out.TotalCount > 0 {
		out.OverallWinRate = float64(out.StatusCounts[models.QuoteStatusAccepted]) / float64(out.TotalCount)
	}
	return out, nil
}

func scanQuotes(rows *sql.Rows) ([]models.Quote, error) {
	defer rows.Close()

	quotes := []models.Quote{}
	for rows.Next() {
		var (
			blob   []byte
			status string
		)
		if err := rows.Scan(&blob, &status); err != nil {
			return nil, err
		}
		q, err := decodeQuote(blob, status)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, *q)
	}
	return quotes, rows.Err()
}

// decodeQuote rebuilds a quote from its blob. The status column wins if the
// two ever disagree.
func decodeQuote(blob []byte, status string) (*models.Quote, error) {
	var q models.Quote
	if err := json.Unmarshal(blob, &q); err != nil {
		return nil, fmt.Errorf("decode quote blob: %w", err)
	}
	if status != "" {
		q.Status = models.QuoteStatus(status)
	}
	if q.Breakdown == nil {
		q.Breakdown = map[string]float64{}
	}
	return &q, nil
}

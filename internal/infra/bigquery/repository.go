package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/spending-forecast/internal/features"
)

// TransactionRepository is the record store contract the pipeline consumes.
type TransactionRepository interface {
	// ListUserTransactions returns every transaction for the user ordered
	// by date ascending, with no pagination limit.
	ListUserTransactions(ctx context.Context, userID string) ([]features.Transaction, error)

	// InsertTransactions appends a batch of transactions.
	InsertTransactions(ctx context.Context, txs []features.Transaction) error

	// CountUserTransactions returns the user's transaction count.
	CountUserTransactions(ctx context.Context, userID string) (int64, error)

	// DeleteUserTransactions removes every transaction for the user.
	DeleteUserTransactions(ctx context.Context, userID string) error

	// Close releases the underlying client.
	Close() error
}

// BigQueryTransactionRepository is the concrete TransactionRepository
// backed by BigQuery. It holds a shared client; the caller owns the
// connect/close lifecycle.
type BigQueryTransactionRepository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	tableName string
}

// NewTransactionRepository creates a repository with its own BigQuery
// client. Call Close when done.
func NewTransactionRepository(ctx context.Context, projectID, datasetID, tableName string) (*BigQueryTransactionRepository, error) {
	if projectID == "" {
		return nil, fmt.Errorf("NewTransactionRepository: project ID is required")
	}
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewTransactionRepository: creating client: %w", err)
	}
	return &BigQueryTransactionRepository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
		tableName: tableName,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryTransactionRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *BigQueryTransactionRepository) table() string {
	return fmt.Sprintf("`%s.%s.%s`", r.projectID, r.datasetID, r.tableName)
}

// ListUserTransactions implements TransactionRepository.
func (r *BigQueryTransactionRepository) ListUserTransactions(ctx context.Context, userID string) ([]features.Transaction, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
			t.transaction_id,
			t.user_id,
			t.transaction_date,
			t.amount,
			t.tran_type,
			t.category,
			t.description,
			t.for_who,
			t.created_ts
		FROM %s t
		WHERE t.user_id = @user_id
		ORDER BY t.transaction_date, t.created_ts
	`, r.table()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListUserTransactions: query read: %w", err)
	}

	var txs []features.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListUserTransactions: iter next: %w", err)
		}
		tx, err := row.ToTransaction()
		if err != nil {
			return nil, fmt.Errorf("ListUserTransactions: row %s: %w", row.TransactionID, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// InsertTransactions implements TransactionRepository.
func (r *BigQueryTransactionRepository) InsertTransactions(ctx context.Context, txs []features.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	rows := make([]*TransactionRow, 0, len(txs))
	for i, tx := range txs {
		row, err := NewTransactionRow(newTransactionID(), tx)
		if err != nil {
			return fmt.Errorf("InsertTransactions: transaction %d: %w", i, err)
		}
		rows = append(rows, row)
	}

	table := r.client.DatasetInProject(r.projectID, r.datasetID).Table(r.tableName)
	if err := table.Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}
	return nil
}

// CountUserTransactions implements TransactionRepository.
func (r *BigQueryTransactionRepository) CountUserTransactions(ctx context.Context, userID string) (int64, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT COUNT(*) AS n FROM %s WHERE user_id = @user_id
	`, r.table()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("CountUserTransactions: query read: %w", err)
	}

	var row struct {
		N int64 `bigquery:"n"`
	}
	if err := it.Next(&row); err != nil {
		return 0, fmt.Errorf("CountUserTransactions: iter next: %w", err)
	}
	return row.N, nil
}

// DeleteUserTransactions implements TransactionRepository.
func (r *BigQueryTransactionRepository) DeleteUserTransactions(ctx context.Context, userID string) error {
	q := r.client.Query(fmt.Sprintf(`
		DELETE FROM %s WHERE user_id = @user_id
	`, r.table()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("DeleteUserTransactions: run: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("DeleteUserTransactions: wait: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("DeleteUserTransactions: job: %w", err)
	}
	return nil
}

var _ TransactionRepository = (*BigQueryTransactionRepository)(nil)

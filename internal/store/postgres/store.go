package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shopqueue/queue-service/internal/models"
	"shopqueue/queue-service/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const entryColumns = `
	entry_id, shop_id, queue_number, status, priority,
	estimated_wait_time, actual_wait_time, created_at,
	called_at, completed_at, employee_id, notes
`

func (s *Store) GetByID(ctx context.Context, id string) (models.QueueEntry, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM queue_entries
		WHERE entry_id = $1
	`, id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.QueueEntry{}, store.ErrEntryNotFound
		}
		return models.QueueEntry{}, err
	}
	if err := s.attachServiceLines(ctx, []*models.QueueEntry{&entry}); err != nil {
		return models.QueueEntry{}, err
	}
	return entry, nil
}

func (s *Store) GetByIDs(ctx context.Context, ids []string) ([]models.QueueEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM queue_entries
		WHERE entry_id = ANY($1)
		ORDER BY created_at ASC
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachLinesToSlice(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) List(ctx context.Context, filter store.ListFilter) (store.Page, error) {
	where, args := buildFilter(filter)

	var total int
	row := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM queue_entries e`+where, args...)
	if err := row.Scan(&total); err != nil {
		return store.Page{}, err
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := (page - 1) * limit

	query := fmt.Sprintf(`
		SELECT `+entryColumns+`
		FROM queue_entries e
		%s
		ORDER BY created_at ASC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return store.Page{}, err
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return store.Page{}, err
	}
	if err := s.attachLinesToSlice(ctx, entries); err != nil {
		return store.Page{}, err
	}

	return store.Page{Entries: entries, Total: total, Page: page, Limit: limit}, nil
}

func (s *Store) Update(ctx context.Context, id string, patch store.EntryPatch) (models.QueueEntry, error) {
	if patch.Empty() {
		return models.QueueEntry{}, store.ErrEmptyPatch
	}

	sets := []string{}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.Priority != nil {
		add("priority", *patch.Priority)
	}
	if patch.QueueNumber != nil {
		add("queue_number", *patch.QueueNumber)
	}
	if patch.EstimatedWaitTime != nil {
		add("estimated_wait_time", *patch.EstimatedWaitTime)
	}
	if patch.ActualWaitTime != nil {
		add("actual_wait_time", *patch.ActualWaitTime)
	}
	if patch.CalledAt != nil {
		add("called_at", *patch.CalledAt)
	}
	if patch.CompletedAt != nil {
		add("completed_at", *patch.CompletedAt)
	}
	if patch.EmployeeID != nil {
		add("employee_id", *patch.EmployeeID)
	}
	if patch.Notes != nil {
		add("notes", *patch.Notes)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE queue_entries
		SET %s
		WHERE entry_id = $%d
		RETURNING `+entryColumns+`
	`, strings.Join(sets, ", "), len(args))

	row := s.pool.QueryRow(ctx, query, args...)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.QueueEntry{}, store.ErrEntryNotFound
		}
		return models.QueueEntry{}, err
	}
	if err := s.attachServiceLines(ctx, []*models.QueueEntry{&entry}); err != nil {
		return models.QueueEntry{}, err
	}
	return entry, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM queue_entries
		WHERE entry_id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrEntryNotFound
	}
	return nil
}

func buildFilter(filter store.ListFilter) (string, []interface{}) {
	clauses := []string{}
	args := []interface{}{}
	add := func(clause string, value interface{}) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.ShopID != "" {
		add("e.shop_id = $%d", filter.ShopID)
	}
	if !filter.DateFrom.IsZero() {
		add("e.created_at >= $%d", filter.DateFrom)
	}
	if !filter.DateTo.IsZero() {
		add("e.created_at <= $%d", filter.DateTo)
	}
	if filter.EmployeeID != "" {
		add("e.employee_id = $%d", filter.EmployeeID)
	}
	if filter.ServiceID != "" {
		add("EXISTS (SELECT 1 FROM queue_service_lines l WHERE l.entry_id = e.entry_id AND l.service_id = $%d)", filter.ServiceID)
	}
	if len(filter.Statuses) > 0 {
		add("e.status = ANY($%d)", filter.Statuses)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanEntries(rows pgx.Rows) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func scanEntry(row pgx.Row) (models.QueueEntry, error) {
	var entry models.QueueEntry
	var calledAtNull sql.NullTime
	var completedAtNull sql.NullTime
	var employeeIDNull sql.NullString
	var notesNull sql.NullString
	if err := row.Scan(
		&entry.ID, &entry.ShopID, &entry.QueueNumber, &entry.Status, &entry.Priority,
		&entry.EstimatedWaitTime, &entry.ActualWaitTime, &entry.CreatedAt,
		&calledAtNull, &completedAtNull, &employeeIDNull, &notesNull,
	); err != nil {
		return models.QueueEntry{}, err
	}
	entry.CalledAt = nullTimePtr(calledAtNull)
	entry.CompletedAt = nullTimePtr(completedAtNull)
	entry.EmployeeID = nullStringPtr(employeeIDNull)
	entry.Notes = nullStringPtr(notesNull)
	return entry, nil
}

func (s *Store) attachLinesToSlice(ctx context.Context, entries []models.QueueEntry) error {
	refs := make([]*models.QueueEntry, len(entries))
	for i := range entries {
		refs[i] = &entries[i]
	}
	return s.attachServiceLines(ctx, refs)
}

func (s *Store) attachServiceLines(ctx context.Context, entries []*models.QueueEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]string, 0, len(entries))
	byID := make(map[string]*models.QueueEntry, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ID)
		byID[entry.ID] = entry
	}

	rows, err := s.pool.Query(ctx, `
		SELECT entry_id, service_id, service_name, quantity, unit_price::text
		FROM queue_service_lines
		WHERE entry_id = ANY($1)
		ORDER BY entry_id, line_no ASC
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var entryID string
		var line models.ServiceLine
		var priceText string
		if err := rows.Scan(&entryID, &line.ServiceID, &line.ServiceName, &line.Quantity, &priceText); err != nil {
			return err
		}
		price, err := decimal.NewFromString(priceText)
		if err != nil {
			return fmt.Errorf("parse unit_price for entry %s: %w", entryID, err)
		}
		line.UnitPrice = price
		if entry, ok := byID[entryID]; ok {
			entry.ServiceLines = append(entry.ServiceLines, line)
		}
	}
	return rows.Err()
}

func nullTimePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time
	return &t
}

func nullStringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}

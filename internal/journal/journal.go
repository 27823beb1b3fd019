// Package journal records every completed request/response exchange with a
// charge box in the message_journal table and lists them back for
// operators.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

const (
	defaultLimit = 50
	maxLimit     = 500

	// timeLayout is fixed width so recorded_at sorts lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// Entry is one journalled exchange.
type Entry struct {
	ID           string          `json:"id"`
	RecordedAt   time.Time       `json:"recorded_at"`
	ChargeBoxID  string          `json:"charge_box_id"`
	Direction    string          `json:"direction"`
	Action       string          `json:"action"`
	RequestID    string          `json:"request_id"`
	Sender       string          `json:"sender,omitempty"`
	Outcome      string          `json:"outcome"`
	ErrorCode    string          `json:"error_code,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	ElapsedMS    float64         `json:"elapsed_ms"`
	Request      json.RawMessage `json:"request"`
	Response     json.RawMessage `json:"response"`
}

// Filter selects journal entries. Zero fields match everything.
type Filter struct {
	ChargeBoxID string
	Action      string
	Direction   string
	Outcome     string
	Since       time.Time
	Limit       int // default 50, max 500
	Offset      int
}

// ListResult is one page of entries, newest first.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Repository stores journal entries.
type Repository interface {
	Record(ctx context.Context, e *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// EntryFromEvent builds the entry for a response event.
func EntryFromEvent(ev ocpp.ResponseEvent) (*Entry, error) {
	if ev.Request == nil {
		return nil, fmt.Errorf("journal: response event without request")
	}
	req := ev.Request

	e := &Entry{
		RecordedAt:  ev.Timestamp,
		ChargeBoxID: string(req.ChargeBoxID),
		Direction:   string(ev.Direction),
		Action:      string(req.Action),
		RequestID:   req.WireID,
		Sender:      ev.Sender,
		Outcome:     ev.Outcome(),
		ElapsedMS:   float64(ev.Elapsed) / float64(time.Millisecond),
	}
	if e.RequestID == "" {
		e.RequestID = req.ID.String()
	}

	reqJSON, err := req.EncodePayload()
	if err != nil {
		return nil, fmt.Errorf("encoding request payload: %w", err)
	}
	e.Request = reqJSON

	switch {
	case ev.Response == nil:
		e.Response = json.RawMessage("{}")
	case ev.Response.Error != nil:
		e.ErrorCode = ev.Response.Error.Code
		e.ErrorMessage = ev.Response.Error.Description
		body, err := json.Marshal(ev.Response.Error)
		if err != nil {
			return nil, fmt.Errorf("encoding response error: %w", err)
		}
		e.Response = body
	default:
		body, err := ocpp.MarshalPayload(ev.Response.Payload)
		if err != nil {
			return nil, fmt.Errorf("encoding response payload: %w", err)
		}
		e.Response = body
	}
	return e, nil
}

// Observer returns a response observer that journals every exchange into
// repo. Subscribe it with Hooks.OnAnyResponse.
func Observer(repo Repository) ocpp.ResponseObserver {
	return func(ctx context.Context, ev ocpp.ResponseEvent) error {
		e, err := EntryFromEvent(ev)
		if err != nil {
			return err
		}
		return repo.Record(ctx, e)
	}
}

// SQLiteRepository stores entries in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository over an already migrated db.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts e. ID and RecordedAt are filled in when empty.
func (r *SQLiteRepository) Record(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = "msg-" + uuid.NewString()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now()
	}
	e.RecordedAt = e.RecordedAt.UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO message_journal
		 (id, recorded_at, charge_box_id, direction, action, request_id, sender,
		  outcome, error_code, error_message, elapsed_ms, request, response)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.RecordedAt.Format(timeLayout), e.ChargeBoxID, e.Direction, e.Action,
		e.RequestID, e.Sender, e.Outcome, e.ErrorCode, e.ErrorMessage, e.ElapsedMS,
		rawOrEmpty(e.Request), rawOrEmpty(e.Response),
	)
	if err != nil {
		return fmt.Errorf("inserting journal entry: %w", err)
	}
	return nil
}

func rawOrEmpty(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}

// List returns entries matching filter, newest first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	where, args := filter.where()

	var total int
	//nolint:gosec // WHERE is built from fixed column names with ? placeholders
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM message_journal"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting journal entries: %w", err)
	}

	//nolint:gosec // WHERE is built from fixed column names with ? placeholders
	query := `SELECT id, recorded_at, charge_box_id, direction, action, request_id, sender,
		outcome, error_code, error_message, elapsed_ms, request, response
		FROM message_journal` + where + ` ORDER BY recorded_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var recordedAt, request, response string
		if err := rows.Scan(&e.ID, &recordedAt, &e.ChargeBoxID, &e.Direction, &e.Action, &e.RequestID,
			&e.Sender, &e.Outcome, &e.ErrorCode, &e.ErrorMessage, &e.ElapsedMS, &request, &response); err != nil {
			return nil, fmt.Errorf("scanning journal entry: %w", err)
		}
		e.RecordedAt, err = time.Parse(timeLayout, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing journal timestamp %q: %w", recordedAt, err)
		}
		e.Request = json.RawMessage(request)
		e.Response = json.RawMessage(response)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal: %w", err)
	}

	return &ListResult{Entries: entries, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// Prune deletes entries recorded before cutoff and returns how many went.
func (r *SQLiteRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM message_journal WHERE recorded_at < ?",
		cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("pruning journal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning journal: %w", err)
	}
	return n, nil
}

func (f Filter) where() (string, []any) {
	var conds []string
	var args []any

	add := func(column, value string) {
		if value != "" {
			conds = append(conds, column+" = ?")
			args = append(args, value)
		}
	}
	add("charge_box_id", f.ChargeBoxID)
	add("action", f.Action)
	add("direction", f.Direction)
	add("outcome", f.Outcome)

	if !f.Since.IsZero() {
		conds = append(conds, "recorded_at >= ?")
		args = append(args, f.Since.UTC().Format(timeLayout))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Package backup streams the application tables to and from a JSONL dump.
// Exports run against the primary postgres database; imports can target
// postgres or a local sqlite file, which makes the dump usable as a portable
// offline snapshot.
package backup

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3" // sqlite driver
)

const (
	defaultBatchSize = 512
	formatVersion    = 1
)

var errNoTablesSelected = errors.New("backup: no tables selected")

// ProgressReporter receives callbacks while an export runs.
type ProgressReporter interface {
	StartTable(table string, total int)
	Increment(table string, delta int)
	FinishTable(table string)
}

type noopProgress struct{}

func (noopProgress) StartTable(string, int) {}
func (noopProgress) Increment(string, int)  {}
func (noopProgress) FinishTable(string)     {}

type colKind int

const (
	kindText colKind = iota
	kindInt
	kindFloat
	kindBool
	kindTime
	kindStringArray
)

type column struct {
	name      string
	kind      colKind
	nullable  bool
	increment bool
}

type table struct {
	name    string
	columns []column
	// conflict is the column set an upsert keys on.
	conflict []string
}

// tables mirrors the schema applied by db-init.
var tables = []table{
	{
		name: "learner_profiles",
		columns: []column{
			{name: "user_id", kind: kindInt},
			{name: "language", kind: kindText},
			{name: "overall_level", kind: kindText},
			{name: "current_difficulty", kind: kindInt},
			{name: "optimal_challenge_level", kind: kindInt},
			{name: "weakness_areas", kind: kindStringArray},
			{name: "strength_areas", kind: kindStringArray},
			{name: "cultural_interests", kind: kindStringArray},
			{name: "streak_days", kind: kindInt},
			{name: "total_study_time_minutes", kind: kindInt},
			{name: "completion_rate", kind: kindFloat},
			{name: "average_session_length", kind: kindInt},
			{name: "last_active_at", kind: kindTime},
			{name: "created_at", kind: kindTime},
			{name: "updated_at", kind: kindTime},
		},
		conflict: []string{"user_id", "language"},
	},
	{
		name: "performance_records",
		columns: []column{
			{name: "id", kind: kindInt, increment: true},
			{name: "user_id", kind: kindInt},
			{name: "quest_id", kind: kindText},
			{name: "language", kind: kindText},
			{name: "score", kind: kindInt},
			{name: "time_spent_minutes", kind: kindInt},
			{name: "difficulty", kind: kindInt},
			{name: "topics_covered", kind: kindStringArray},
			{name: "completed_at", kind: kindTime},
		},
		conflict: []string{"id"},
	},
	{
		name: "quest_progress",
		columns: []column{
			{name: "user_id", kind: kindInt},
			{name: "quest_id", kind: kindText},
			{name: "status", kind: kindText},
			{name: "completed_at", kind: kindTime},
		},
		conflict: []string{"user_id", "quest_id"},
	},
	{
		name: "quests",
		columns: []column{
			{name: "id", kind: kindText},
			{name: "title", kind: kindText},
			{name: "language", kind: kindText},
			{name: "level", kind: kindText},
			{name: "cultural_context", kind: kindText},
			{name: "learning_objectives", kind: kindStringArray},
			{name: "estimated_minutes", kind: kindInt},
			{name: "created_at", kind: kindTime},
			{name: "updated_at", kind: kindTime},
		},
		conflict: []string{"id"},
	},
	{
		name: "review_sessions",
		columns: []column{
			{name: "id", kind: kindInt, increment: true},
			{name: "user_id", kind: kindInt},
			{name: "language", kind: kindText},
			{name: "started_at", kind: kindTime},
			{name: "completed_at", kind: kindTime, nullable: true},
			{name: "cards_reviewed", kind: kindInt},
			{name: "cards_correct", kind: kindInt},
			{name: "cards_incorrect", kind: kindInt},
			{name: "avg_response_time_ms", kind: kindInt},
			{name: "duration_seconds", kind: kindInt},
		},
		conflict: []string{"id"},
	},
	{
		name: "vocabulary_cards",
		columns: []column{
			{name: "id", kind: kindInt, increment: true},
			{name: "user_id", kind: kindInt},
			{name: "quest_id", kind: kindText},
			{name: "word", kind: kindText},
			{name: "normalized", kind: kindText},
			{name: "translation", kind: kindText},
			{name: "language", kind: kindText},
			{name: "ease_factor", kind: kindFloat},
			{name: "interval_days", kind: kindInt},
			{name: "repetitions", kind: kindInt},
			{name: "next_review_at", kind: kindTime},
			{name: "last_review_at", kind: kindTime, nullable: true},
			{name: "correct_count", kind: kindInt},
			{name: "incorrect_count", kind: kindInt},
			{name: "avg_response_time_ms", kind: kindInt},
			{name: "created_at", kind: kindTime},
			{name: "updated_at", kind: kindTime},
		},
		conflict: []string{"id"},
	},
}

// Service exports and imports the application tables as JSONL.
type Service struct {
	driver    string
	dsn       string
	batchSize int
	tables    []table
	byName    map[string]table
}

type Option func(*Service)

func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

type exportOptions struct {
	tables   []string
	reporter ProgressReporter
}

// ExportOption tunes a single Export call.
type ExportOption func(*exportOptions)

// WithTables restricts the export to the named tables.
func WithTables(tables []string) ExportOption {
	return func(o *exportOptions) {
		o.tables = tables
	}
}

// WithProgressReporter attaches per-table progress callbacks to the export.
func WithProgressReporter(reporter ProgressReporter) ExportOption {
	return func(o *exportOptions) {
		o.reporter = reporter
	}
}

type importOptions struct {
	tables []string
}

// ImportOption tunes a single Import call.
type ImportOption func(*importOptions)

// WithImportTables restricts the import to the named tables.
func WithImportTables(tables []string) ImportOption {
	return func(o *importOptions) {
		o.tables = tables
	}
}

// NewService constructs a backup service bound to the given driver and DSN.
func NewService(driver, dsn string, opts ...Option) (*Service, error) {
	driver = strings.TrimSpace(strings.ToLower(driver))
	switch driver {
	case "postgres", "sqlite3":
	case "":
		return nil, errors.New("backup: driver is required")
	default:
		return nil, fmt.Errorf("backup: unsupported driver %q", driver)
	}
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("backup: DSN is required")
	}

	byName := make(map[string]table, len(tables))
	for _, tbl := range tables {
		byName[tbl.name] = tbl
	}

	svc := &Service{
		driver:    driver,
		dsn:       dsn,
		batchSize: defaultBatchSize,
		tables:    tables,
		byName:    byName,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

type record struct {
	Type       string         `json:"type"`
	Version    int            `json:"version,omitempty"`
	ExportedAt *time.Time     `json:"exported_at,omitempty"`
	Tables     []string       `json:"tables,omitempty"`
	RowCounts  map[string]int `json:"row_counts,omitempty"`
	Payload    any            `json:"payload,omitempty"`
}

type rawRecord struct {
	Type       string          `json:"type"`
	Version    int             `json:"version"`
	ExportedAt *time.Time      `json:"exported_at"`
	Tables     []string        `json:"tables"`
	RowCounts  map[string]int  `json:"row_counts"`
	Payload    json.RawMessage `json:"payload"`
}

// Export streams the selected tables to w, one JSON record per line. The
// first line is a meta record describing the dump.
func (s *Service) Export(ctx context.Context, w io.Writer, opts ...ExportOption) error {
	var options exportOptions
	for _, opt := range opts {
		opt(&options)
	}

	selected, err := s.selectTables(options.tables)
	if err != nil {
		return err
	}
	reporter := options.reporter
	if reporter == nil {
		reporter = noopProgress{}
	}

	db, err := s.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	counts := make(map[string]int, len(selected))
	names := make([]string, 0, len(selected))
	for _, tbl := range selected {
		var count int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+tbl.name).Scan(&count); err != nil {
			return fmt.Errorf("count table %s: %w", tbl.name, err)
		}
		counts[tbl.name] = count
		names = append(names, tbl.name)
	}

	writer := bufio.NewWriter(w)
	defer writer.Flush()

	now := time.Now().UTC()
	if err := writeRecord(writer, record{
		Type:       "meta",
		Version:    formatVersion,
		ExportedAt: &now,
		Tables:     names,
		RowCounts:  counts,
	}); err != nil {
		return err
	}

	for _, tbl := range selected {
		reporter.StartTable(tbl.name, counts[tbl.name])
		if err := s.exportTable(ctx, db, tbl, reporter, writer); err != nil {
			return err
		}
		reporter.FinishTable(tbl.name)
	}
	return writer.Flush()
}

// Import reads a dump produced by Export and upserts its rows inside one
// transaction. Records for unselected tables are skipped.
func (s *Service) Import(ctx context.Context, r io.Reader, opts ...ImportOption) error {
	var options importOptions
	for _, opt := range opts {
		opt(&options)
	}

	selected, err := s.selectTables(options.tables)
	if err != nil {
		return err
	}
	filter := make(map[string]table, len(selected))
	for _, tbl := range selected {
		filter[tbl.name] = tbl
	}

	db, err := s.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	br := bufio.NewReader(r)
	var (
		metaSeen bool
		meta     rawRecord
		maxIDs   = make(map[string]int64)
	)

	for {
		line, readErr := br.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("read backup: %w", readErr)
		}
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			var rec rawRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				return fmt.Errorf("decode record: %w", err)
			}
			switch rec.Type {
			case "meta":
				metaSeen = true
				meta = rec
			default:
				tbl, ok := filter[rec.Type]
				if !ok {
					break
				}
				if len(rec.Payload) == 0 {
					return fmt.Errorf("backup: missing payload for table %s", rec.Type)
				}
				if err := s.importRow(ctx, tx, tbl, rec.Payload, maxIDs); err != nil {
					return err
				}
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
	}

	if !metaSeen {
		return errors.New("backup: missing meta record")
	}
	if meta.Version != formatVersion {
		return fmt.Errorf("backup: unsupported format version %d", meta.Version)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	committed = true

	return s.syncSequences(ctx, db, maxIDs)
}

func (s *Service) exportTable(ctx context.Context, db *sql.DB, tbl table, reporter ProgressReporter, w io.Writer) error {
	cols := make([]string, len(tbl.columns))
	for i, col := range tbl.columns {
		cols[i] = col.name
	}
	orderBy := " ORDER BY " + strings.Join(tbl.conflict, ", ")

	for offset := 0; ; offset += s.batchSize {
		query := fmt.Sprintf("SELECT %s FROM %s%s LIMIT %d OFFSET %d",
			strings.Join(cols, ", "), tbl.name, orderBy, s.batchSize, offset)
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("query %s: %w", tbl.name, err)
		}

		rowCount := 0
		for rows.Next() {
			dest := s.scanDest(tbl)
			if err := rows.Scan(dest...); err != nil {
				rows.Close()
				return fmt.Errorf("scan %s: %w", tbl.name, err)
			}
			payload, err := s.rowPayload(tbl, dest)
			if err != nil {
				rows.Close()
				return fmt.Errorf("encode %s: %w", tbl.name, err)
			}
			if err := writeRecord(w, record{Type: tbl.name, Payload: payload}); err != nil {
				rows.Close()
				return err
			}
			reporter.Increment(tbl.name, 1)
			rowCount++
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("iterate %s: %w", tbl.name, err)
		}
		rows.Close()
		if rowCount < s.batchSize {
			break
		}
	}
	return nil
}

// scanDest builds typed scan targets for one row of tbl.
func (s *Service) scanDest(tbl table) []any {
	dest := make([]any, len(tbl.columns))
	for i, col := range tbl.columns {
		switch col.kind {
		case kindStringArray:
			if s.driver == "postgres" {
				dest[i] = new(pq.StringArray)
			} else {
				dest[i] = new(sql.NullString)
			}
		case kindTime:
			dest[i] = new(sql.NullTime)
		case kindInt:
			dest[i] = new(sql.NullInt64)
		case kindFloat:
			dest[i] = new(sql.NullFloat64)
		case kindBool:
			dest[i] = new(sql.NullBool)
		default:
			dest[i] = new(sql.NullString)
		}
	}
	return dest
}

func (s *Service) rowPayload(tbl table, dest []any) (map[string]any, error) {
	payload := make(map[string]any, len(tbl.columns))
	for i, col := range tbl.columns {
		switch v := dest[i].(type) {
		case *pq.StringArray:
			payload[col.name] = []string(*v)
		case *sql.NullString:
			if !v.Valid {
				payload[col.name] = nil
				break
			}
			if col.kind == kindStringArray {
				// sqlite stores arrays as JSON text.
				var list []string
				if err := json.Unmarshal([]byte(v.String), &list); err != nil {
					return nil, err
				}
				payload[col.name] = list
				break
			}
			payload[col.name] = v.String
		case *sql.NullTime:
			if !v.Valid {
				payload[col.name] = nil
				break
			}
			payload[col.name] = v.Time.UTC().Format(time.RFC3339Nano)
		case *sql.NullInt64:
			if !v.Valid {
				payload[col.name] = nil
				break
			}
			payload[col.name] = v.Int64
		case *sql.NullFloat64:
			if !v.Valid {
				payload[col.name] = nil
				break
			}
			payload[col.name] = v.Float64
		case *sql.NullBool:
			if !v.Valid {
				payload[col.name] = nil
				break
			}
			payload[col.name] = v.Bool
		default:
			return nil, fmt.Errorf("unexpected scan target %T for %s", dest[i], col.name)
		}
	}
	return payload, nil
}

func (s *Service) importRow(ctx context.Context, tx *sql.Tx, tbl table, payload json.RawMessage, maxIDs map[string]int64) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode payload for %s: %w", tbl.name, err)
	}

	cols := make([]string, 0, len(tbl.columns))
	args := make([]any, 0, len(tbl.columns))
	for _, col := range tbl.columns {
		val, ok := raw[col.name]
		if !ok {
			continue
		}
		arg, err := s.importValue(col, val)
		if err != nil {
			return fmt.Errorf("convert %s.%s: %w", tbl.name, col.name, err)
		}
		if arg == nil && !col.nullable {
			return fmt.Errorf("backup: missing required value for %s.%s", tbl.name, col.name)
		}
		cols = append(cols, col.name)
		args = append(args, arg)

		if col.increment {
			if n, ok := toInt64(val); ok && n > maxIDs[tbl.name] {
				maxIDs[tbl.name] = n
			}
		}
	}
	if len(cols) == 0 {
		return nil
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)%s",
		tbl.name,
		strings.Join(cols, ", "),
		strings.Join(s.placeholders(len(cols)), ", "),
		upsertClause(tbl, cols),
	)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", tbl.name, err)
	}
	return nil
}

func (s *Service) importValue(col column, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch col.kind {
	case kindStringArray:
		list, err := toStringSlice(value)
		if err != nil {
			return nil, err
		}
		if s.driver == "postgres" {
			return pq.Array(list), nil
		}
		encoded, err := json.Marshal(list)
		if err != nil {
			return nil, err
		}
		return string(encoded), nil
	case kindTime:
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected RFC3339 string, got %T", value)
		}
		t, err := time.Parse(time.RFC3339Nano, str)
		if err != nil {
			return nil, err
		}
		return t.UTC(), nil
	case kindInt:
		n, ok := toInt64(value)
		if !ok {
			return nil, fmt.Errorf("expected integer, got %T", value)
		}
		return n, nil
	case kindFloat:
		switch v := value.(type) {
		case json.Number:
			return v.Float64()
		case float64:
			return v, nil
		default:
			return nil, fmt.Errorf("expected number, got %T", value)
		}
	case kindBool:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", value)
		}
		return b, nil
	default:
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", value)
		}
		return str, nil
	}
}

func (s *Service) placeholders(count int) []string {
	holders := make([]string, count)
	for i := range holders {
		if s.driver == "postgres" {
			holders[i] = fmt.Sprintf("$%d", i+1)
		} else {
			holders[i] = "?"
		}
	}
	return holders
}

func upsertClause(tbl table, insertCols []string) string {
	conflictSet := make(map[string]struct{}, len(tbl.conflict))
	for _, col := range tbl.conflict {
		conflictSet[col] = struct{}{}
	}
	var assignments []string
	for _, col := range insertCols {
		if _, ok := conflictSet[col]; ok {
			continue
		}
		assignments = append(assignments, fmt.Sprintf("%s = excluded.%s", col, col))
	}
	conflict := strings.Join(tbl.conflict, ", ")
	if len(assignments) == 0 {
		return fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", conflict)
	}
	return fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", conflict, strings.Join(assignments, ", "))
}

// syncSequences bumps postgres identity sequences past the highest imported
// id so future inserts do not collide. sqlite needs no fixup.
func (s *Service) syncSequences(ctx context.Context, db *sql.DB, maxIDs map[string]int64) error {
	if s.driver != "postgres" {
		return nil
	}
	for name, max := range maxIDs {
		if max <= 0 {
			continue
		}
		query := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), %d, true)", name, max)
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("sync sequence for %s: %w", name, err)
		}
	}
	return nil
}

func (s *Service) selectTables(requested []string) ([]table, error) {
	if len(requested) == 0 {
		selected := make([]table, len(s.tables))
		copy(selected, s.tables)
		sort.Slice(selected, func(i, j int) bool { return selected[i].name < selected[j].name })
		return selected, nil
	}

	set := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		n := strings.TrimSpace(strings.ToLower(name))
		if n == "" {
			continue
		}
		if _, ok := s.byName[n]; !ok {
			return nil, fmt.Errorf("backup: unsupported table %q", name)
		}
		set[n] = struct{}{}
	}
	if len(set) == 0 {
		return nil, errNoTablesSelected
	}

	var selected []table
	for _, tbl := range s.tables {
		if _, ok := set[tbl.name]; ok {
			selected = append(selected, tbl)
		}
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].name < selected[j].name })
	return selected, nil
}

func (s *Service) openDB(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(s.driver, s.dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if s.driver == "sqlite3" {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	}
	return db, nil
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case int64:
		return v, true
	case float64:
		return int64(v), v == float64(int64(v))
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func toStringSlice(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		list := make([]string, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("array element %d is %T, not string", i, item)
			}
			list[i] = str
		}
		return list, nil
	default:
		return nil, fmt.Errorf("expected string array, got %T", value)
	}
}

func writeRecord(w io.Writer, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

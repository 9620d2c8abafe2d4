// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists retrieval runs and check reports in a local SQLite
// database, with an FTS5 index over evidence text for offline history search.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/cite-gate/pkg/types"
)

const dbFile = "cite-gate.db"

// ReportKind distinguishes stored report payloads.
type ReportKind string

const (
	ReportVerify ReportKind = "verify"
	ReportAudit  ReportKind = "audit"
)

// Store manages the run-history SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// Open opens or creates the run-history database at stateDir/cite-gate.db,
// creating the schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	stateDir := cfg.StateDir
	if stateDir == "" {
		stateDir = "state"
	}
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	dbPath := filepath.Join(stateDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created TEXT NOT NULL,
			question TEXT NOT NULL,
			packet TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS evidence (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			rank INTEGER NOT NULL,
			annotation_id TEXT,
			document_filename TEXT,
			category TEXT,
			content TEXT NOT NULL,
			note TEXT,
			re_rank_score REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evidence_run_id ON evidence(run_id)`,
		`CREATE TABLE IF NOT EXISTS reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER REFERENCES runs(id),
			kind TEXT NOT NULL,
			created TEXT NOT NULL,
			status TEXT NOT NULL,
			payload TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='evidence_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE evidence_fts USING fts5(content, note, content=evidence, content_rowid=rowid)`,
			`CREATE TRIGGER evidence_ai AFTER INSERT ON evidence BEGIN
				INSERT INTO evidence_fts(rowid, content, note) VALUES (new.rowid, new.content, new.note);
			END`,
			`CREATE TRIGGER evidence_ad AFTER DELETE ON evidence BEGIN
				INSERT INTO evidence_fts(evidence_fts, rowid, content, note) VALUES('delete', old.rowid, old.content, old.note);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// SaveRun persists a retrieved packet and returns the run id. The packet is
// stored whole for exact round-trips; evidence rows feed the FTS index.
func (s *Store) SaveRun(ctx context.Context, packet *types.EvidencePacket) (int64, error) {
	packetJSON, err := json.Marshal(packet)
	if err != nil {
		return 0, fmt.Errorf("encoding packet: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (created, question, packet) VALUES (?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), packet.Question, string(packetJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO evidence (run_id, rank, annotation_id, document_filename, category, content, note, re_rank_score)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range packet.Evidence {
		_, err := stmt.ExecContext(ctx,
			runID, item.Rank, item.AnnotationID, item.DocumentFilename,
			item.Category, item.QuoteText(), item.Note, item.ReRankScore,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting evidence rank %d: %w", item.Rank, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// SaveReport persists a verification or audit report against a run. Pass
// runID 0 for reports checked against a packet loaded from a file.
func (s *Store) SaveReport(ctx context.Context, runID int64, kind ReportKind, status string, payload any) (int64, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encoding %s report: %w", kind, err)
	}

	var run any
	if runID > 0 {
		run = runID
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (run_id, kind, created, status, payload) VALUES (?, ?, ?, ?, ?)`,
		run, string(kind), time.Now().UTC().Format(time.RFC3339), status, string(payloadJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting %s report: %w", kind, err)
	}
	return res.LastInsertId()
}

// RunSummary is one row of the run listing.
type RunSummary struct {
	ID       int64  `json:"id" yaml:"id"`
	Created  string `json:"created" yaml:"created"`
	Question string `json:"question" yaml:"question"`
	Evidence int    `json:"evidence" yaml:"evidence"`
	Reports  int    `json:"reports" yaml:"reports"`
}

// ListRuns returns recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.created, r.question,
			(SELECT count(*) FROM evidence e WHERE e.run_id = r.id),
			(SELECT count(*) FROM reports p WHERE p.run_id = r.id)
		FROM runs r
		ORDER BY r.id DESC
		LIMIT ?`, s.maxResults)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Created, &r.Question, &r.Evidence, &r.Reports); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns the stored packet for a run id.
func (s *Store) GetRun(ctx context.Context, runID int64) (*types.EvidencePacket, error) {
	var packetJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT packet FROM runs WHERE id = ?`, runID,
	).Scan(&packetJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up run %d: %w", runID, err)
	}

	return decodePacket(packetJSON, runID)
}

func decodePacket(packetJSON string, runID int64) (*types.EvidencePacket, error) {
	var packet types.EvidencePacket
	if err := json.Unmarshal([]byte(packetJSON), &packet); err != nil {
		return nil, fmt.Errorf("decoding stored packet %d: %w", runID, err)
	}
	return &packet, nil
}

// SearchHit is one FTS match across stored evidence.
type SearchHit struct {
	RunID            int64   `json:"run_id" yaml:"run_id"`
	Question         string  `json:"question" yaml:"question"`
	Rank             int     `json:"rank" yaml:"rank"`
	AnnotationID     string  `json:"annotation_id,omitempty" yaml:"annotation_id,omitempty"`
	DocumentFilename string  `json:"document_filename,omitempty" yaml:"document_filename,omitempty"`
	Content          string  `json:"content" yaml:"content"`
	Note             string  `json:"note,omitempty" yaml:"note,omitempty"`
	ReRankScore      float64 `json:"re_rank_score" yaml:"re_rank_score"`
}

// SearchEvidence queries the FTS index over all stored evidence, best
// matches first.
func (s *Store) SearchEvidence(ctx context.Context, query string) ([]SearchHit, error) {
	if query == "" {
		return nil, fmt.Errorf("search query must not be empty")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT e.run_id, r.question, e.rank, e.annotation_id, e.document_filename,
			e.content, e.note, e.re_rank_score
		FROM evidence_fts
		JOIN evidence e ON e.rowid = evidence_fts.rowid
		JOIN runs r ON r.id = e.run_id
		WHERE evidence_fts MATCH ?
		ORDER BY evidence_fts.rank
		LIMIT ?`, query, s.maxResults)
	if err != nil {
		return nil, fmt.Errorf("searching evidence: %w", err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var (
			h     SearchHit
			ann   sql.NullString
			file  sql.NullString
			note  sql.NullString
			score sql.NullFloat64
		)
		if err := rows.Scan(&h.RunID, &h.Question, &h.Rank, &ann, &file, &h.Content, &note, &score); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		h.AnnotationID = ann.String
		h.DocumentFilename = file.String
		h.Note = note.String
		h.ReRankScore = score.Float64
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

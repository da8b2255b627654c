package sqlstore

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/davidahmann/tradedesk/internal/ledger"
)

type Store struct {
	db *sql.DB
}

func OpenSQLite(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) WithTx(fn func(ledger.Tx) error) error {
	tx, err := s.db.BeginTx(context.Background(), &sql.TxOptions{})
	if err != nil {
		return err
	}
	if _, err := tx.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = tx.Rollback()
		return err
	}
	wrapped := &Tx{tx: tx}
	if err := fn(wrapped); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) PutPolicyVersion(policy ledger.PolicyVersionRecord) error {
	return s.WithTx(func(tx ledger.Tx) error { return tx.PutPolicyVersion(policy) })
}

func (s *Store) GetPolicyVersion(policyHash string) (ledger.PolicyVersionRecord, bool) {
	var rec ledger.PolicyVersionRecord
	row := s.db.QueryRow(`SELECT policy_hash, policy_id, policy_version, policy_yaml, created_at FROM policy_versions WHERE policy_hash = ?`, policyHash)
	if err := row.Scan(&rec.PolicyHash, &rec.PolicyID, &rec.PolicyVersion, &rec.PolicyYAML, &rec.CreatedAt); err != nil {
		return ledger.PolicyVersionRecord{}, false
	}
	return rec, true
}

func (s *Store) PutReport(report ledger.ReportRecord) error {
	return s.WithTx(func(tx ledger.Tx) error { return tx.PutReport(report) })
}

func (s *Store) GetReport(reportID string) (ledger.ReportRecord, bool) {
	return scanReport(s.db.QueryRow(selectReport, reportID))
}

func (s *Store) PutDismissal(dismissal ledger.DismissalRecord) error {
	return s.WithTx(func(tx ledger.Tx) error { return tx.PutDismissal(dismissal) })
}

func (s *Store) DeleteDismissal(itemID string) error {
	return s.WithTx(func(tx ledger.Tx) error { return tx.DeleteDismissal(itemID) })
}

func (s *Store) ListDismissals() ([]ledger.DismissalRecord, error) {
	rows, err := s.db.Query(`SELECT dismissal_id, item_id, dismissed_by, dismissed_at, expires_at FROM dismissals ORDER BY item_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ledger.DismissalRecord{}
	for rows.Next() {
		var rec ledger.DismissalRecord
		if err := rows.Scan(&rec.DismissalID, &rec.ItemID, &rec.DismissedBy, &rec.DismissedAt, &rec.Until); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type Tx struct {
	tx *sql.Tx
}

func (t *Tx) PutPolicyVersion(policy ledger.PolicyVersionRecord) error {
	_, err := t.tx.Exec(
		`INSERT INTO policy_versions(policy_hash, policy_id, policy_version, policy_yaml, created_at)
VALUES(?,?,?,?,?)
ON CONFLICT(policy_hash) DO NOTHING`,
		policy.PolicyHash, policy.PolicyID, policy.PolicyVersion, policy.PolicyYAML, policy.CreatedAt,
	)
	return err
}

func (t *Tx) GetPolicyVersion(policyHash string) (ledger.PolicyVersionRecord, bool) {
	var rec ledger.PolicyVersionRecord
	row := t.tx.QueryRow(`SELECT policy_hash, policy_id, policy_version, policy_yaml, created_at FROM policy_versions WHERE policy_hash = ?`, policyHash)
	if err := row.Scan(&rec.PolicyHash, &rec.PolicyID, &rec.PolicyVersion, &rec.PolicyYAML, &rec.CreatedAt); err != nil {
		return ledger.PolicyVersionRecord{}, false
	}
	return rec, true
}

func (t *Tx) PutReport(report ledger.ReportRecord) error {
	_, err := t.tx.Exec(
		`INSERT INTO reports(report_id, snapshot_id, policy_hash, grade, body_json, created_at)
VALUES(?,?,?,?,?,?)
ON CONFLICT(report_id) DO NOTHING`,
		report.ReportID, report.SnapshotID, report.PolicyHash, report.Grade, string(report.BodyJSON), report.CreatedAt,
	)
	return err
}

func (t *Tx) GetReport(reportID string) (ledger.ReportRecord, bool) {
	return scanReport(t.tx.QueryRow(selectReport, reportID))
}

func (t *Tx) PutDismissal(dismissal ledger.DismissalRecord) error {
	_, err := t.tx.Exec(
		`INSERT INTO dismissals(item_id, dismissal_id, dismissed_by, dismissed_at, expires_at)
VALUES(?,?,?,?,?)
ON CONFLICT(item_id) DO UPDATE SET
  dismissal_id=excluded.dismissal_id,
  dismissed_by=excluded.dismissed_by,
  dismissed_at=excluded.dismissed_at,
  expires_at=excluded.expires_at`,
		dismissal.ItemID,
		dismissal.DismissalID,
		dismissal.DismissedBy,
		dismissal.DismissedAt,
		dismissal.Until,
	)
	return err
}

func (t *Tx) GetDismissal(itemID string) (ledger.DismissalRecord, bool) {
	var rec ledger.DismissalRecord
	row := t.tx.QueryRow(`SELECT dismissal_id, item_id, dismissed_by, dismissed_at, expires_at FROM dismissals WHERE item_id = ?`, itemID)
	if err := row.Scan(&rec.DismissalID, &rec.ItemID, &rec.DismissedBy, &rec.DismissedAt, &rec.Until); err != nil {
		return ledger.DismissalRecord{}, false
	}
	return rec, true
}

func (t *Tx) DeleteDismissal(itemID string) error {
	res, err := t.tx.Exec(`DELETE FROM dismissals WHERE item_id = ?`, itemID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

const selectReport = `SELECT report_id, snapshot_id, policy_hash, grade, body_json, created_at FROM reports WHERE report_id = ?`

func scanReport(row *sql.Row) (ledger.ReportRecord, bool) {
	var rec ledger.ReportRecord
	var body string
	if err := row.Scan(&rec.ReportID, &rec.SnapshotID, &rec.PolicyHash, &rec.Grade, &body, &rec.CreatedAt); err != nil {
		return ledger.ReportRecord{}, false
	}
	rec.BodyJSON = []byte(body)
	return rec, true
}

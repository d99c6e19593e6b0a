package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"kabs/internal"
)

var ErrNotFound = errors.New("not found")

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS manufacturer_lines (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  tier TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  finish TEXT NOT NULL DEFAULT '',
  multiplier REAL NOT NULL DEFAULT 1,
  finishPremium REAL NOT NULL DEFAULT 0,
  shippingFactor REAL NOT NULL DEFAULT 0,
  ratesJson TEXT,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS pricing_items (
  lineId TEXT NOT NULL,
  lookupKey TEXT NOT NULL,
  sku TEXT NOT NULL,
  price REAL NOT NULL,
  PRIMARY KEY(lineId, lookupKey)
);

CREATE TABLE IF NOT EXISTS quote_requests (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS labels (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  requestId INTEGER NOT NULL,
  lineNo INTEGER NOT NULL,
  source TEXT NOT NULL,
  rawLine TEXT NOT NULL,
  rawCode TEXT NOT NULL,
  description TEXT,
  type TEXT,
  quantity INTEGER NOT NULL,
  metaJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(requestId, lineNo, source, rawLine),
  FOREIGN KEY(requestId) REFERENCES quote_requests(id)
);

CREATE TABLE IF NOT EXISTS priced_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  requestId INTEGER NOT NULL,
  lineId TEXT NOT NULL,
  position INTEGER NOT NULL,
  sku TEXT NOT NULL,
  normalizedCode TEXT NOT NULL,
  rawCode TEXT NOT NULL,
  description TEXT,
  type TEXT,
  quantity INTEGER NOT NULL,
  unitPrice REAL NOT NULL,
  totalPrice REAL NOT NULL,
  status TEXT NOT NULL,
  dimensionsJson TEXT NOT NULL,
  proofJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(requestId, lineId, position),
  FOREIGN KEY(requestId) REFERENCES quote_requests(id)
);
CREATE INDEX IF NOT EXISTS idx_priced_items_status ON priced_items(requestId, status);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  requestId INTEGER,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(requestId) REFERENCES quote_requests(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) UpsertLines(lines []internal.ManufacturerLine) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO manufacturer_lines (id, name, tier, description, finish, multiplier, finishPremium, shippingFactor, ratesJson)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name=excluded.name,
  tier=excluded.tier,
  description=excluded.description,
  finish=excluded.finish,
  multiplier=excluded.multiplier,
  finishPremium=excluded.finishPremium,
  shippingFactor=excluded.shippingFactor,
  ratesJson=excluded.ratesJson,
  updatedAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, l := range lines {
		var ratesJSON *string
		if l.Rates != nil {
			blob, _ := json.Marshal(l.Rates)
			s := string(blob)
			ratesJSON = &s
		}
		if _, err := stmt.Exec(l.ID, l.Name, string(l.Tier), l.Description, l.Finish, l.Multiplier, l.FinishPremium, l.ShippingFactor, ratesJSON); err != nil {
			return err
		}
	}

	return tx.Commit()
}

const lineColumns = `id, name, tier, description, finish, multiplier, finishPremium, shippingFactor, ratesJson`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLine(s rowScanner) (internal.ManufacturerLine, error) {
	var l internal.ManufacturerLine
	var tier string
	var ratesJSON sql.NullString
	if err := s.Scan(&l.ID, &l.Name, &tier, &l.Description, &l.Finish, &l.Multiplier, &l.FinishPremium, &l.ShippingFactor, &ratesJSON); err != nil {
		return internal.ManufacturerLine{}, err
	}
	l.Tier = internal.LineTier(tier)
	if ratesJSON.Valid && ratesJSON.String != "" {
		var rates internal.LineRates
		if err := json.Unmarshal([]byte(ratesJSON.String), &rates); err == nil {
			l.Rates = &rates
		}
	}
	return l, nil
}

func (d *DB) ListLines() ([]internal.ManufacturerLine, error) {
	rows, err := d.conn.Query(`SELECT ` + lineColumns + ` FROM manufacturer_lines ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ManufacturerLine
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (d *DB) GetLine(id string) (internal.ManufacturerLine, error) {
	l, err := scanLine(d.conn.QueryRow(`SELECT `+lineColumns+` FROM manufacturer_lines WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return internal.ManufacturerLine{}, fmt.Errorf("line %s: %w", id, ErrNotFound)
	}
	return l, err
}

func (d *DB) DeleteLine(id string) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM pricing_items WHERE lineId = ?`, id); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM manufacturer_lines WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("line %s: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

// ReplacePricing swaps a line's whole price list in one transaction.
func (d *DB) ReplacePricing(lineID string, table internal.LineTable) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM pricing_items WHERE lineId = ?`, lineID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO pricing_items (lineId, lookupKey, sku, price) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for key, entry := range table {
		if _, err := stmt.Exec(lineID, key, entry.SKU, entry.Price); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) LoadPricingTable() (internal.PricingTable, error) {
	rows, err := d.conn.Query(`SELECT lineId, lookupKey, sku, price FROM pricing_items`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	table := internal.PricingTable{}
	for rows.Next() {
		var lineID, key string
		var entry internal.CatalogEntry
		if err := rows.Scan(&lineID, &key, &entry.SKU, &entry.Price); err != nil {
			return nil, err
		}
		if table[lineID] == nil {
			table[lineID] = internal.LineTable{}
		}
		table[lineID][key] = entry
	}
	return table, rows.Err()
}

func (d *DB) UpsertQuoteRequest(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.QuoteRequestRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO quote_requests (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.QuoteRequestRow{}, err
	}

	return d.MustQuoteRequestByProviderMessageID(provider, messageID)
}

const requestColumns = `id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef`

func scanRequest(s rowScanner) (internal.QuoteRequestRow, error) {
	var row internal.QuoteRequestRow
	err := s.Scan(&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef)
	return row, err
}

func (d *DB) GetQuoteRequestByProviderMessageID(provider, messageID string) (*internal.QuoteRequestRow, error) {
	row, err := scanRequest(d.conn.QueryRow(`SELECT `+requestColumns+` FROM quote_requests WHERE provider = ? AND messageId = ?`, provider, messageID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) GetQuoteRequestByID(id int) (*internal.QuoteRequestRow, error) {
	row, err := scanRequest(d.conn.QueryRow(`SELECT `+requestColumns+` FROM quote_requests WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListQuoteRequestsByStatus(status string, limit int) ([]internal.QuoteRequestRow, error) {
	rows, err := d.conn.Query(`SELECT `+requestColumns+` FROM quote_requests WHERE status = ? ORDER BY receivedAt ASC, id ASC LIMIT ?`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.QuoteRequestRow
	for rows.Next() {
		row, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateQuoteRequestStatus(requestID int, status string) error {
	_, err := d.conn.Exec(`UPDATE quote_requests SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, requestID)
	return err
}

// ClearRequestProcessing drops the labels and priced items of a request so
// that it can be processed again.
func (d *DB) ClearRequestProcessing(requestID int) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM priced_items WHERE requestId = ?`, requestID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM labels WHERE requestId = ?`, requestID); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *DB) InsertLabel(requestID int, rec internal.LabelRecord) (int64, error) {
	metaJSON, _ := json.Marshal(rec.Meta)
	result, err := d.conn.Exec(`
INSERT INTO labels (requestId, lineNo, source, rawLine, rawCode, description, type, quantity, metaJson)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, requestID, rec.LineNo, string(rec.Source), rec.RawLine, rec.RawCode, rec.Description, rec.Type, rec.Quantity, string(metaJSON))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (d *DB) ListLabels(requestID int) ([]internal.LabelRecord, error) {
	rows, err := d.conn.Query(`
SELECT lineNo, source, rawLine, rawCode, description, type, quantity, metaJson
FROM labels WHERE requestId = ? ORDER BY id ASC
`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.LabelRecord
	for rows.Next() {
		var rec internal.LabelRecord
		var source, metaJSON string
		var description, typ sql.NullString
		if err := rows.Scan(&rec.LineNo, &source, &rec.RawLine, &rec.RawCode, &description, &typ, &rec.Quantity, &metaJSON); err != nil {
			return nil, err
		}
		rec.Source = internal.CandidateSource(source)
		rec.Description = description.String
		rec.Type = typ.String
		_ = json.Unmarshal([]byte(metaJSON), &rec.Meta)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (d *DB) InsertPricedItems(requestID int, lineID string, items []internal.PricedBOMItem) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO priced_items (
  requestId, lineId, position, sku, normalizedCode, rawCode, description, type,
  quantity, unitPrice, totalPrice, status, dimensionsJson, proofJson
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, it := range items {
		dimsJSON, _ := json.Marshal(it.Dimensions)
		proofJSON, _ := json.Marshal(it.VerificationProof)
		if _, err := stmt.Exec(
			requestID, lineID, i+1, it.SKU, it.NormalizedCode, it.RawCode, it.Description, it.Type,
			it.Quantity, it.UnitPrice, it.TotalPrice, string(it.VerificationStatus), string(dimsJSON), string(proofJSON),
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListPricedItems returns a request's priced BOMs keyed by line id, with the
// line ids in the order they were first stored.
func (d *DB) ListPricedItems(requestID int) (map[string][]internal.PricedBOMItem, []string, error) {
	rows, err := d.conn.Query(`
SELECT lineId, sku, normalizedCode, rawCode, description, type, quantity,
       unitPrice, totalPrice, status, dimensionsJson, proofJson
FROM priced_items WHERE requestId = ? ORDER BY id ASC
`, requestID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	out := map[string][]internal.PricedBOMItem{}
	var order []string
	for rows.Next() {
		var it internal.PricedBOMItem
		var lineID, status, dimsJSON, proofJSON string
		var description, typ sql.NullString
		if err := rows.Scan(
			&lineID, &it.SKU, &it.NormalizedCode, &it.RawCode, &description, &typ, &it.Quantity,
			&it.UnitPrice, &it.TotalPrice, &status, &dimsJSON, &proofJSON,
		); err != nil {
			return nil, nil, err
		}
		it.Description = description.String
		it.Type = typ.String
		it.VerificationStatus = internal.VerificationStatus(status)
		_ = json.Unmarshal([]byte(dimsJSON), &it.Dimensions)
		_ = json.Unmarshal([]byte(proofJSON), &it.VerificationProof)

		if _, ok := out[lineID]; !ok {
			order = append(order, lineID)
		}
		out[lineID] = append(out[lineID], it)
	}
	return out, order, rows.Err()
}

func (d *DB) InsertRun(traceID string, requestID int, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, requestId, timingsJson, countsJson) VALUES (?, ?, ?, ?)`, traceID, requestID, string(timingsJSON), string(countsJSON))
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (d *DB) MustQuoteRequestByProviderMessageID(provider, messageID string) (internal.QuoteRequestRow, error) {
	row, err := d.GetQuoteRequestByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.QuoteRequestRow{}, err
	}
	if row == nil {
		return internal.QuoteRequestRow{}, fmt.Errorf("quote request provider=%s messageId=%s: %w", provider, messageID, ErrNotFound)
	}
	return *row, nil
}

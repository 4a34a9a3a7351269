// Package sqlite writes scans to a single-file SQLite database readable by
// pkg/reader/sqlite.
package sqlite

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ChrisMcGann/msdata/pkg/msdata"
)

const (
	// SchemaVersion is stored in HeaderTable.version.
	SchemaVersion = 1

	// Date format for HeaderTable (ISO 8601)
	headerDateFormat = "2006-01-02"
	// Date format for MaintenanceTable
	maintenanceDateFormat = "2006 01 02"
)

// Schema is the DDL shared by the writer and reader.
const Schema = `
	CREATE TABLE IF NOT EXISTS ScanTable (
		ScanNumber INTEGER PRIMARY KEY,
		NativeId TEXT,
		MsLevel INTEGER NOT NULL,
		RetentionTime DOUBLE NOT NULL,
		Polarity TEXT,
		MassAnalyzer TEXT,
		IsCentroid BOOL,
		ScanFilter TEXT,
		InjectionTime DOUBLE,
		Resolution DOUBLE,
		ScanWindowLow DOUBLE,
		ScanWindowHigh DOUBLE,
		PrecursorScanNumber INTEGER,
		PrecursorId TEXT,
		SelectedIonMz DOUBLE,
		SelectedIonCharge INTEGER,
		SelectedIonIntensity DOUBLE,
		IsolationMz DOUBLE,
		IsolationWidth DOUBLE,
		Dissociation INTEGER,
		CollisionEnergy DOUBLE,
		PeakCount INTEGER NOT NULL,
		TotalIonCurrent DOUBLE,
		Peaks BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS ScanTableRetentionTime ON ScanTable (RetentionTime);

	CREATE TABLE IF NOT EXISTS HeaderTable (
		version INTEGER NOT NULL DEFAULT 0,
		CreationDate TEXT,
		LastModifiedDate TEXT,
		Description TEXT,
		SourceFile TEXT,
		SourceType TEXT,
		ScanCount INTEGER,
		Compressed BOOL
	);

	CREATE TABLE IF NOT EXISTS MaintenanceTable (
		CreationDate TEXT,
		NoofScansWritten INTEGER,
		Description TEXT
	);
`

// Options configure a Writer.
type Options struct {
	Compress    bool   // gzip the packed peak blobs
	Description string // free text stored in HeaderTable
	SourceFile  string
	SourceType  msdata.FileType
}

// Writer handles writing scans to SQLite database files
type Writer struct {
	db         *sql.DB
	tx         *sql.Tx
	outputPath string
	opts       Options
	scanStmt   *sql.Stmt
	written    int
	closed     bool
}

// NewWriter creates the database schema and starts a write transaction.
func NewWriter(outputPath string, opts Options) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{
		db:         db,
		outputPath: outputPath,
		opts:       opts,
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := w.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

// prepareStatements opens the write transaction and prepares the insert
func (w *Writer) prepareStatements() error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	w.tx = tx

	w.scanStmt, err = tx.Prepare(`
		INSERT INTO ScanTable (
			ScanNumber, NativeId, MsLevel, RetentionTime, Polarity,
			MassAnalyzer, IsCentroid, ScanFilter, InjectionTime, Resolution,
			ScanWindowLow, ScanWindowHigh, PrecursorScanNumber, PrecursorId,
			SelectedIonMz, SelectedIonCharge, SelectedIonIntensity,
			IsolationMz, IsolationWidth, Dissociation, CollisionEnergy,
			PeakCount, TotalIonCurrent, Peaks
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare scan statement: %w", err)
	}

	return nil
}

// WriteScan writes a single scan to the database
func (w *Writer) WriteScan(scan *msdata.Scan) error {
	if w.closed {
		return fmt.Errorf("writer for %s is closed", w.outputPath)
	}

	peaks, err := scan.Spectrum().ToBytes(w.opts.Compress)
	if err != nil {
		return fmt.Errorf("failed to encode peaks of scan %d: %w", scan.Number(), err)
	}

	info := scan.Info()

	var windowLow, windowHigh any
	if info.ScanWindow != nil {
		windowLow, windowHigh = info.ScanWindow.Minimum(), info.ScanWindow.Maximum()
	}

	var (
		precursorScan, precursorID                any
		selectedMZ, selectedCharge, selectedInt   any
		isolationMZ, isolationWidth, dissociation any
		collisionEnergy                           any
	)
	if p := info.Precursor; p != nil {
		precursorScan = nullInt(p.ScanNumber)
		precursorID = nullString(p.ID)
		selectedMZ = nullFloat(p.SelectedIonMZ)
		selectedCharge = nullInt(p.SelectedIonCharge)
		selectedInt = nullFloat(p.SelectedIonIntensity)
		isolationMZ = nullFloat(p.IsolationMZ)
		isolationWidth = nullFloat(p.IsolationWidth)
		dissociation = int(p.Dissociation)
		collisionEnergy = nullFloat(p.CollisionEnergy)
	}

	_, err = w.scanStmt.Exec(
		info.Number,                       // ScanNumber
		nullString(info.NativeID),         // NativeId
		info.MsnOrder,                     // MsLevel
		info.RetentionTime,                // RetentionTime
		info.Polarity.String(),            // Polarity
		info.Analyzer.String(),            // MassAnalyzer
		info.IsCentroid,                   // IsCentroid
		nullString(info.ScanFilter),       // ScanFilter
		nullFloat(info.InjectionTime),     // InjectionTime
		nullFloat(info.Resolution),        // Resolution
		windowLow,                         // ScanWindowLow
		windowHigh,                        // ScanWindowHigh
		precursorScan,                     // PrecursorScanNumber
		precursorID,                       // PrecursorId
		selectedMZ,                        // SelectedIonMz
		selectedCharge,                    // SelectedIonCharge
		selectedInt,                       // SelectedIonIntensity
		isolationMZ,                       // IsolationMz
		isolationWidth,                    // IsolationWidth
		dissociation,                      // Dissociation
		collisionEnergy,                   // CollisionEnergy
		scan.Spectrum().Count(),           // PeakCount
		scan.Spectrum().TotalIonCurrent(), // TotalIonCurrent
		peaks,                             // Peaks
	)
	if err != nil {
		return fmt.Errorf("failed to insert scan %d: %w", scan.Number(), err)
	}

	w.written++
	return nil
}

// Written returns the number of scans written so far.
func (w *Writer) Written() int {
	return w.written
}

func nullFloat(v float64) any {
	if v == 0 || math.IsNaN(v) {
		return nil
	}
	return v
}

func nullInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// Finalize writes the header and maintenance tables, commits and closes the
// database.
func (w *Writer) Finalize() error {
	if w.closed {
		return nil
	}
	w.closed = true

	now := time.Now()
	_, err := w.tx.Exec(`
		INSERT INTO HeaderTable (version, CreationDate, LastModifiedDate, Description, SourceFile, SourceType, ScanCount, Compressed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, SchemaVersion, now.Format(headerDateFormat), now.Format(headerDateFormat), w.opts.Description,
		w.opts.SourceFile, w.opts.SourceType.String(), w.written, w.opts.Compress)
	if err != nil {
		w.abort()
		return fmt.Errorf("failed to insert header: %w", err)
	}

	_, err = w.tx.Exec(`
		INSERT INTO MaintenanceTable (CreationDate, NoofScansWritten, Description)
		VALUES (?, ?, ?)
	`, now.Format(maintenanceDateFormat), w.written, w.opts.Description)
	if err != nil {
		w.abort()
		return fmt.Errorf("failed to insert maintenance: %w", err)
	}

	w.scanStmt.Close()
	if err := w.tx.Commit(); err != nil {
		w.db.Close()
		return fmt.Errorf("failed to commit scans: %w", err)
	}

	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// abort discards everything written and closes the database.
func (w *Writer) abort() {
	w.scanStmt.Close()
	w.tx.Rollback()
	w.db.Close()
}

// Close discards the pending transaction unless Finalize already committed
// it. Deferring Close after a successful Finalize is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.abort()
	return nil
}

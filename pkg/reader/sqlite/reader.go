// Package sqlite reads scan databases produced by pkg/writer/sqlite.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ChrisMcGann/msdata/pkg/msdata"
	"github.com/ChrisMcGann/msdata/pkg/spectra"
)

// Header is the HeaderTable row of a scan database.
type Header struct {
	Version      int
	CreationDate string
	Description  string
	SourceFile   string
	SourceType   msdata.FileType
	ScanCount    int
	Compressed   bool
}

// Reader implements msdata.Reader over a scan database.
type Reader struct {
	path     string
	db       *sql.DB
	scanStmt *sql.Stmt
}

var (
	_ msdata.Reader         = (*Reader)(nil)
	_ msdata.ParentResolver = (*Reader)(nil)
)

// NewReader returns a reader for path. Nothing is opened until Open.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// OpenFile wraps path in an msdata.File.
func OpenFile(path string, opts ...msdata.Option) *msdata.File {
	opts = append([]msdata.Option{msdata.WithFileType(msdata.FileTypeSQLite)}, opts...)
	return msdata.NewFile(path, NewReader(path), opts...)
}

// Open opens the database read-only and prepares the scan query.
func (r *Reader) Open() error {
	db, err := sql.Open("sqlite3", "file:"+r.path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	stmt, err := db.Prepare(`
		SELECT ScanNumber, NativeId, MsLevel, RetentionTime, Polarity,
			MassAnalyzer, IsCentroid, ScanFilter, InjectionTime, Resolution,
			ScanWindowLow, ScanWindowHigh, PrecursorScanNumber, PrecursorId,
			SelectedIonMz, SelectedIonCharge, SelectedIonIntensity,
			IsolationMz, IsolationWidth, Dissociation, CollisionEnergy, Peaks
		FROM ScanTable WHERE ScanNumber = ?
	`)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to prepare scan query: %w", err)
	}

	r.db = db
	r.scanStmt = stmt
	return nil
}

// Close closes the database connection.
func (r *Reader) Close() error {
	if r.db == nil {
		return nil
	}
	r.scanStmt.Close()
	err := r.db.Close()
	r.db = nil
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Header reads the HeaderTable row.
func (r *Reader) Header() (Header, error) {
	var (
		h          Header
		sourceType string
		created    sql.NullString
		desc       sql.NullString
		source     sql.NullString
	)
	err := r.db.QueryRow(`
		SELECT version, CreationDate, Description, SourceFile, SourceType, ScanCount, Compressed
		FROM HeaderTable LIMIT 1
	`).Scan(&h.Version, &created, &desc, &source, &sourceType, &h.ScanCount, &h.Compressed)
	if err != nil {
		return Header{}, fmt.Errorf("failed to read header: %w", err)
	}

	h.CreationDate = created.String
	h.Description = desc.String
	h.SourceFile = source.String
	h.SourceType, _ = msdata.ParseFileType(sourceType)
	return h, nil
}

// FirstSpectrumNumber returns the lowest stored scan number, 1 for an empty
// database.
func (r *Reader) FirstSpectrumNumber() (int, error) {
	return r.scalarInt("SELECT MIN(ScanNumber) FROM ScanTable", 1)
}

// LastSpectrumNumber returns the highest stored scan number, 0 for an empty
// database.
func (r *Reader) LastSpectrumNumber() (int, error) {
	return r.scalarInt("SELECT MAX(ScanNumber) FROM ScanTable", 0)
}

// SpectrumNumber returns the first scan with retention time >= rt, or one
// past the last scan when every scan is earlier.
func (r *Reader) SpectrumNumber(rt float64) (int, error) {
	var n sql.NullInt64
	err := r.db.QueryRow(`
		SELECT ScanNumber FROM ScanTable
		WHERE RetentionTime >= ?
		ORDER BY RetentionTime, ScanNumber LIMIT 1
	`, rt).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		last, err := r.LastSpectrumNumber()
		if err != nil {
			return 0, err
		}
		return last + 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up retention time %.4f: %w", rt, err)
	}
	return int(n.Int64), nil
}

// ParentSpectrumNumber returns the stored precursor scan number of n, 0 when
// none was recorded.
func (r *Reader) ParentSpectrumNumber(n int) (int, error) {
	var parent sql.NullInt64
	err := r.db.QueryRow("SELECT PrecursorScanNumber FROM ScanTable WHERE ScanNumber = ?", n).Scan(&parent)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %d", msdata.ErrScanNotFound, n)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read parent of scan %d: %w", n, err)
	}
	return int(parent.Int64), nil
}

// ReadScan loads scan n and decodes its peaks.
func (r *Reader) ReadScan(n int) (*msdata.Scan, error) {
	var (
		info                                 msdata.ScanInfo
		nativeID, polarity, analyzer, filter sql.NullString
		injection, resolution                sql.NullFloat64
		windowLow, windowHigh                sql.NullFloat64
		precursorScan, charge, dissociation  sql.NullInt64
		precursorID                          sql.NullString
		selectedMZ, selectedInt              sql.NullFloat64
		isolationMZ, isolationWidth, energy  sql.NullFloat64
		peaks                                []byte
	)

	err := r.scanStmt.QueryRow(n).Scan(
		&info.Number, &nativeID, &info.MsnOrder, &info.RetentionTime, &polarity,
		&analyzer, &info.IsCentroid, &filter, &injection, &resolution,
		&windowLow, &windowHigh, &precursorScan, &precursorID,
		&selectedMZ, &charge, &selectedInt,
		&isolationMZ, &isolationWidth, &dissociation, &energy, &peaks,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", msdata.ErrScanNotFound, n)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query scan %d: %w", n, err)
	}

	spectrum, err := spectra.FromBytes(peaks)
	if err != nil {
		return nil, fmt.Errorf("failed to decode peaks of scan %d: %w", n, err)
	}

	info.NativeID = nativeID.String
	info.ScanFilter = filter.String
	info.InjectionTime = injection.Float64
	info.Resolution = resolution.Float64
	info.Polarity, _ = msdata.ParsePolarity(polarity.String)
	info.Analyzer, _ = msdata.ParseMZAnalyzerType(analyzer.String)

	if windowLow.Valid && windowHigh.Valid {
		window, err := spectra.NewMzRange(windowLow.Float64, windowHigh.Float64)
		if err != nil {
			return nil, fmt.Errorf("invalid scan window in scan %d: %w", n, err)
		}
		info.ScanWindow = &window
	}

	if info.MsnOrder > 1 {
		info.Precursor = &msdata.Precursor{
			ScanNumber:           int(precursorScan.Int64),
			ID:                   precursorID.String,
			SelectedIonMZ:        selectedMZ.Float64,
			SelectedIonCharge:    int(charge.Int64),
			SelectedIonIntensity: selectedInt.Float64,
			IsolationMZ:          isolationMZ.Float64,
			IsolationWidth:       isolationWidth.Float64,
			Dissociation:         msdata.DissociationUnknown,
			CollisionEnergy:      energy.Float64,
		}
		if dissociation.Valid {
			info.Precursor.Dissociation = msdata.DissociationType(dissociation.Int64)
		}
	}

	return msdata.NewScan(info, spectrum)
}

func (r *Reader) scalarInt(query string, fallback int) (int, error) {
	var v sql.NullInt64
	if err := r.db.QueryRow(query).Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to run %q: %w", query, err)
	}
	if !v.Valid {
		return fallback, nil
	}
	return int(v.Int64), nil
}

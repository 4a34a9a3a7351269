package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/msdata/pkg/msdata"
	"github.com/ChrisMcGann/msdata/pkg/spectra"
)

func TestWriteScan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")
	w, err := NewWriter(path, Options{Compress: true, Description: "unit"})
	require.NoError(t, err)

	peaks, err := spectra.New([]float64{100, 200}, []float64{1, 3}, true)
	require.NoError(t, err)
	scan, err := msdata.NewScan(msdata.ScanInfo{
		Number:        7,
		MsnOrder:      2,
		RetentionTime: 3.25,
		Precursor:     &msdata.Precursor{SelectedIonMZ: 450.5, SelectedIonCharge: 3, Dissociation: msdata.DissociationETD},
	}, peaks)
	require.NoError(t, err)

	require.NoError(t, w.WriteScan(scan))
	require.NoError(t, w.Finalize())
	assert.Error(t, w.WriteScan(scan), "writes after Finalize fail")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var (
		level        int
		rt, tic, smz float64
		charge       int
		dissociation int
		count        int
		blob         []byte
		isolation    sql.NullFloat64
	)
	err = db.QueryRow(`
		SELECT MsLevel, RetentionTime, TotalIonCurrent, SelectedIonMz, SelectedIonCharge,
			Dissociation, PeakCount, Peaks, IsolationMz
		FROM ScanTable WHERE ScanNumber = 7
	`).Scan(&level, &rt, &tic, &smz, &charge, &dissociation, &count, &blob, &isolation)
	require.NoError(t, err)

	assert.Equal(t, 2, level)
	assert.Equal(t, 3.25, rt)
	assert.Equal(t, 4.0, tic)
	assert.Equal(t, 450.5, smz)
	assert.Equal(t, 3, charge)
	assert.Equal(t, int(msdata.DissociationETD), dissociation)
	assert.Equal(t, 2, count)
	assert.False(t, isolation.Valid, "unreported values are stored as NULL")
	assert.True(t, spectra.IsCompressed(blob))

	decoded, err := spectra.FromBytes(blob)
	require.NoError(t, err)
	assert.Equal(t, peaks.ToArray(), decoded.ToArray())

	var scanCount int
	var description string
	require.NoError(t, db.QueryRow("SELECT ScanCount, Description FROM HeaderTable").Scan(&scanCount, &description))
	assert.Equal(t, 1, scanCount)
	assert.Equal(t, "unit", description)

	var written int
	require.NoError(t, db.QueryRow("SELECT NoofScansWritten FROM MaintenanceTable").Scan(&written))
	assert.Equal(t, 1, written)
}

func TestDuplicateScanNumber(t *testing.T) {
	w, err := NewWriter(filepath.Join(t.TempDir(), "dup.db"), Options{})
	require.NoError(t, err)
	defer w.Close()

	scan, err := msdata.NewScan(msdata.ScanInfo{Number: 1, MsnOrder: 1}, spectra.Empty())
	require.NoError(t, err)

	require.NoError(t, w.WriteScan(scan))
	assert.Error(t, w.WriteScan(scan))
}

func TestCloseWithoutFinalizeRollsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.db")
	w, err := NewWriter(path, Options{Description: "partial"})
	require.NoError(t, err)

	scan, err := msdata.NewScan(msdata.ScanInfo{Number: 1, MsnOrder: 1}, spectra.Empty())
	require.NoError(t, err)
	require.NoError(t, w.WriteScan(scan))

	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "closing twice is a no-op")
	assert.Error(t, w.WriteScan(scan), "writes after Close fail")
	assert.NoError(t, w.Finalize(), "Finalize after Close does nothing")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var headers, scans int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM HeaderTable").Scan(&headers))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM ScanTable").Scan(&scans))
	assert.Equal(t, 0, headers)
	assert.Equal(t, 0, scans)
}

func TestFinalizeThenCloseKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "done.db")
	w, err := NewWriter(path, Options{})
	require.NoError(t, err)

	scan, err := msdata.NewScan(msdata.ScanInfo{Number: 1, MsnOrder: 1}, spectra.Empty())
	require.NoError(t, err)
	require.NoError(t, w.WriteScan(scan))
	require.NoError(t, w.Finalize())
	require.NoError(t, w.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var headers int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM HeaderTable").Scan(&headers))
	assert.Equal(t, 1, headers)
}

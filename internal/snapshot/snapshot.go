package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"flightscraper/internal/assert"
	"flightscraper/internal/db"
	"flightscraper/internal/flights"
	"flightscraper/internal/telemetry"
	configlibsql "flightscraper/lib/configutil/libsql"
)

const (
	report_write_file    = "writer.write-file"
	report_write_archive = "writer.write-archive"
)

const filePrefix = "edreams_data_"

// FileName is the name of the snapshot of a batch created at `t`.
func FileName(t time.Time) string {
	return filePrefix + t.Format("20060102150405") + ".db"
}

// Writer persists each batch into its own sqlite file and, when an archive database
// is configured, appends it there too.
type Writer struct {
	outDir        string
	archive       *db.Queries
	archiveMakeTx db.MakeTx
	tel           telemetry.API
}

// NewWriter creates a writer, `archive` may be nil.
func NewWriter(outDir string, archive *sql.DB, tel telemetry.API) Writer {
	assert.NotEmptyStr(outDir)
	assert.NotNil(tel)

	w := Writer{
		outDir: outDir,
		tel:    telemetry.NewScopedAPI("snapshot", tel),
	}
	if archive != nil {
		w.archive = db.New(archive)
		w.archiveMakeTx = db.NewMakeTx(archive)
	}
	return w
}

// Write creates the snapshot file of the batch and returns its path. A failure to
// archive the batch still returns the path of the written file.
func (w Writer) Write(ctx context.Context, batch flights.Batch) (string, error) {
	path := filepath.Join(w.outDir, FileName(batch.CreatedAt))
	if _, err := os.Stat(path); err == nil {
		path = filepath.Join(w.outDir, fmt.Sprintf("%s%s_%s.db", filePrefix, batch.CreatedAt.Format("20060102150405"), batch.Id))
	}

	err := w.writeFile(ctx, path, batch)
	if err != nil {
		w.tel.ReportBroken(report_write_file, err, path)
		return "", err
	}

	if w.archive != nil {
		err = insertBatch(ctx, w.archiveMakeTx, batch)
		if err != nil {
			w.tel.ReportBroken(report_write_archive, err, batch.Id)
			return path, fmt.Errorf("archive batch %s: %w", batch.Id, err)
		}
	}

	return path, nil
}

func (w Writer) writeFile(ctx context.Context, path string, batch flights.Batch) error {
	conn, err := configlibsql.OpenFile(path)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.ExecContext(ctx, db.Schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return insertBatch(ctx, db.NewMakeTx(conn), batch)
}

// EnsureSchema creates the tables of an archive database if they are missing.
func EnsureSchema(ctx context.Context, conn *sql.DB) error {
	_, err := conn.ExecContext(ctx, db.Schema)
	return err
}

func insertBatch(ctx context.Context, makeTx db.MakeTx, batch flights.Batch) error {
	tx, discard, commit, err := makeTx(ctx)
	if err != nil {
		return fmt.Errorf("make tx: %w", err)
	}
	defer discard()

	err = tx.InsertBatch(ctx, db.Batch{
		ID:          batch.Id,
		Origin:      batch.Search.Origin(),
		SearchStart: batch.Search.DepartISO(),
		SearchEnd:   batch.Search.ReturnISO(),
		CreatedAt:   batch.CreatedAt.Unix(),
		RecordCount: int64(len(batch.Records)),
	})
	if err != nil {
		return fmt.Errorf("InsertBatch: %w", err)
	}

	for i, record := range batch.Records {
		row, err := toRow(batch.Id, i, record)
		if err != nil {
			return err
		}
		err = tx.InsertFlightRecord(ctx, row)
		if err != nil {
			return fmt.Errorf("InsertFlightRecord %d: %w", i, err)
		}
	}

	return commit()
}

func toRow(batchId string, position int, r flights.Record) (db.FlightRecord, error) {
	airlines := r.Airlines
	if airlines == nil {
		airlines = []string{}
	}
	airlinesJson, err := json.Marshal(airlines)
	if err != nil {
		return db.FlightRecord{}, err
	}

	var fareClass sql.NullString
	if r.FareClass != nil {
		fareClass = sql.NullString{String: *r.FareClass, Valid: true}
	}

	return db.FlightRecord{
		BatchID:            batchId,
		Position:           int64(position),
		Url:                r.Url,
		Origin:             r.Origin,
		Destination:        r.Destination,
		SearchStart:        r.SearchStart,
		SearchEnd:          r.SearchEnd,
		Passengers:         int64(r.Passengers),
		OutboundDepartTime: r.OutboundDepartTime,
		OutboundArriveTime: r.OutboundArriveTime,
		ReturnDepartTime:   r.ReturnDepartTime,
		ReturnArriveTime:   r.ReturnArriveTime,
		OutboundStops:      int64(r.OutboundStops),
		ReturnStops:        int64(r.ReturnStops),
		OutboundDuration:   r.OutboundDuration,
		ReturnDuration:     r.ReturnDuration,
		Airlines:           string(airlinesJson),
		HasCarryOnBag:      r.HasCarryOnBag,
		HasCheckedBag:      r.HasCheckedBag,
		Price:              r.Price,
		FareClass:          fareClass,
	}, nil
}

func fromRow(row db.FlightRecord) (flights.Record, error) {
	var airlines []string
	err := json.Unmarshal([]byte(row.Airlines), &airlines)
	if err != nil {
		return flights.Record{}, fmt.Errorf("airlines of record %d: %w", row.Position, err)
	}

	var fareClass *string
	if row.FareClass.Valid {
		value := row.FareClass.String
		fareClass = &value
	}

	return flights.Record{
		Url:                row.Url,
		Origin:             row.Origin,
		Destination:        row.Destination,
		SearchStart:        row.SearchStart,
		SearchEnd:          row.SearchEnd,
		Passengers:         int(row.Passengers),
		OutboundDepartTime: row.OutboundDepartTime,
		OutboundArriveTime: row.OutboundArriveTime,
		ReturnDepartTime:   row.ReturnDepartTime,
		ReturnArriveTime:   row.ReturnArriveTime,
		OutboundStops:      int(row.OutboundStops),
		ReturnStops:        int(row.ReturnStops),
		OutboundDuration:   row.OutboundDuration,
		ReturnDuration:     row.ReturnDuration,
		Airlines:           airlines,
		HasCarryOnBag:      row.HasCarryOnBag,
		HasCheckedBag:      row.HasCheckedBag,
		Price:              row.Price,
		FareClass:          fareClass,
	}, nil
}

var ErrNotSnapshot = errors.New("not a snapshot file")

// Load reads every record of a snapshot file back, in the order they were written.
func Load(ctx context.Context, path string) ([]flights.Record, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	qry := db.New(conn)
	batch, err := qry.GetFirstBatch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotSnapshot, path, err)
	}

	rows, err := qry.GetBatchRecords(ctx, batch.ID)
	if err != nil {
		return nil, err
	}
	records := make([]flights.Record, 0, len(rows))
	for _, row := range rows {
		record, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

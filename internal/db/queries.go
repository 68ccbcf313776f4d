package db

import "context"

const insertBatch = `insert into batch (
    id, origin, search_start, search_end, created_at, record_count
) values (?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertBatch(ctx context.Context, arg Batch) error {
	_, err := q.db.ExecContext(ctx, insertBatch,
		arg.ID,
		arg.Origin,
		arg.SearchStart,
		arg.SearchEnd,
		arg.CreatedAt,
		arg.RecordCount,
	)
	return err
}

const insertFlightRecord = `insert into flight_record (
    batch_id, position, url, origin, destination, search_start, search_end, passengers,
    outbound_depart_time, outbound_arrive_time, return_depart_time, return_arrive_time,
    outbound_stops, return_stops, outbound_duration, return_duration,
    airlines, has_carry_on_bag, has_checked_bag, price, fare_class
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertFlightRecord(ctx context.Context, arg FlightRecord) error {
	_, err := q.db.ExecContext(ctx, insertFlightRecord,
		arg.BatchID,
		arg.Position,
		arg.Url,
		arg.Origin,
		arg.Destination,
		arg.SearchStart,
		arg.SearchEnd,
		arg.Passengers,
		arg.OutboundDepartTime,
		arg.OutboundArriveTime,
		arg.ReturnDepartTime,
		arg.ReturnArriveTime,
		arg.OutboundStops,
		arg.ReturnStops,
		arg.OutboundDuration,
		arg.ReturnDuration,
		arg.Airlines,
		arg.HasCarryOnBag,
		arg.HasCheckedBag,
		arg.Price,
		arg.FareClass,
	)
	return err
}

const getBatch = `select id, origin, search_start, search_end, created_at, record_count
from batch where id = ?`

func (q *Queries) GetBatch(ctx context.Context, id string) (Batch, error) {
	row := q.db.QueryRowContext(ctx, getBatch, id)
	var b Batch
	err := row.Scan(
		&b.ID,
		&b.Origin,
		&b.SearchStart,
		&b.SearchEnd,
		&b.CreatedAt,
		&b.RecordCount,
	)
	return b, err
}

const getBatchRecords = `select
    batch_id, position, url, origin, destination, search_start, search_end, passengers,
    outbound_depart_time, outbound_arrive_time, return_depart_time, return_arrive_time,
    outbound_stops, return_stops, outbound_duration, return_duration,
    airlines, has_carry_on_bag, has_checked_bag, price, fare_class
from flight_record where batch_id = ? order by position`

func (q *Queries) GetBatchRecords(ctx context.Context, batchID string) ([]FlightRecord, error) {
	rows, err := q.db.QueryContext(ctx, getBatchRecords, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []FlightRecord
	for rows.Next() {
		var i FlightRecord
		err := rows.Scan(
			&i.BatchID,
			&i.Position,
			&i.Url,
			&i.Origin,
			&i.Destination,
			&i.SearchStart,
			&i.SearchEnd,
			&i.Passengers,
			&i.OutboundDepartTime,
			&i.OutboundArriveTime,
			&i.ReturnDepartTime,
			&i.ReturnArriveTime,
			&i.OutboundStops,
			&i.ReturnStops,
			&i.OutboundDuration,
			&i.ReturnDuration,
			&i.Airlines,
			&i.HasCarryOnBag,
			&i.HasCheckedBag,
			&i.Price,
			&i.FareClass,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countRoutes = `select origin, destination, count(*) from flight_record
group by origin, destination order by origin, destination`

type RouteCount struct {
	Origin      string
	Destination string
	Count       int64
}

func (q *Queries) CountRoutes(ctx context.Context) ([]RouteCount, error) {
	rows, err := q.db.QueryContext(ctx, countRoutes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []RouteCount
	for rows.Next() {
		var i RouteCount
		if err := rows.Scan(&i.Origin, &i.Destination, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getFirstBatch = `select id, origin, search_start, search_end, created_at, record_count
from batch order by created_at limit 1`

func (q *Queries) GetFirstBatch(ctx context.Context) (Batch, error) {
	row := q.db.QueryRowContext(ctx, getFirstBatch)
	var b Batch
	err := row.Scan(
		&b.ID,
		&b.Origin,
		&b.SearchStart,
		&b.SearchEnd,
		&b.CreatedAt,
		&b.RecordCount,
	)
	return b, err
}

package db

import "database/sql"

type Batch struct {
	ID          string
	Origin      string
	SearchStart string
	SearchEnd   string
	CreatedAt   int64
	RecordCount int64
}

type FlightRecord struct {
	BatchID            string
	Position           int64
	Url                string
	Origin             string
	Destination        string
	SearchStart        string
	SearchEnd          string
	Passengers         int64
	OutboundDepartTime string
	OutboundArriveTime string
	ReturnDepartTime   string
	ReturnArriveTime   string
	OutboundStops      int64
	ReturnStops        int64
	OutboundDuration   string
	ReturnDuration     string
	Airlines           string
	HasCarryOnBag      bool
	HasCheckedBag      bool
	Price              string
	FareClass          sql.NullString
}

package store

import "time"

// Run is one quoting session. Rows in the other tables reference it by
// the run id.
type Run struct {
	ID        string `gorm:"primaryKey;size:36"`
	LoginName string `gorm:"size:32"`
	Transport string `gorm:"size:16"`
	StartedAt time.Time
	StoppedAt *time.Time
}

// OrderRow tracks one quote order from insert to close. Remaining and
// Fees follow the venue's status reports.
type OrderRow struct {
	RunID     string `gorm:"primaryKey;size:36"`
	OrderID   uint64 `gorm:"primaryKey;autoIncrement:false"`
	Side      uint8
	Lifespan  uint8
	Price     int64
	Volume    int64
	Remaining int64
	Fees      int64
	Closed    bool `gorm:"index"`
	UpdatedAt time.Time
}

// FillRow is one trade against a quote order.
type FillRow struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	RunID   string `gorm:"index;size:36"`
	OrderID uint64 `gorm:"index"`
	Price   int64
	Volume  int64
	Seq     uint64
	At      time.Time
}

// HedgeRow is one hedge sent to the future. AveragePrice and Filled
// stay zero until the venue reports the fill.
type HedgeRow struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	RunID        string `gorm:"index;size:36"`
	OrderID      uint64 `gorm:"index"`
	Side         uint8
	LimitPrice   int64
	Volume       int64
	AveragePrice int64
	Filled       bool
	Seq          uint64
	At           time.Time
}

// PositionMark samples the engine between events so a run's exposure
// and fair-value estimate can be charted over time.
type PositionMark struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement"`
	RunID          string `gorm:"index;size:36"`
	Seq            uint64
	Position       int64
	FuturePosition int64
	TotalFees      int64
	Mu             float64
	At             time.Time
}

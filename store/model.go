package store

import (
	"time"
)

// TradeRecord is the durable row for one wallet's execution of one intent.
type TradeRecord struct {
	Id          uint64 `gorm:"primaryKey;autoIncrement"`
	IntentId    uint64 `gorm:"index"`
	Wallet      string `gorm:"type:varchar(64);index"`
	Mint        string `gorm:"type:varchar(64);index"`
	Direction   string `gorm:"type:varchar(8)"`
	Signature   string `gorm:"type:varchar(128)"`
	TokenAmount uint64
	SolAmount   uint64
	Err         string `gorm:"type:varchar(512)"`
	ElapsedMs   int64
	CreatedAt   time.Time
}

func (TradeRecord) TableName() string {
	return "trade_records"
}

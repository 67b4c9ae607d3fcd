package store

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/Aybryan5/SniperBotSol/config"
	"github.com/Aybryan5/SniperBotSol/utils"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store persists trade records through a buffered channel so the trading
// path never blocks on the database.
type Store struct {
	ctx     context.Context
	wg      sync.WaitGroup
	log     *log.Logger
	db      *gorm.DB
	trades  chan *TradeRecord
	started bool
}

func NewStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser, cfg.DBPasswd, cfg.DBUrl, cfg.DBScheme)
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err = db.AutoMigrate(&TradeRecord{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	s := &Store{
		ctx:    ctx,
		log:    utils.NewLog(config.LogPath, "store"),
		db:     db,
		trades: make(chan *TradeRecord, 256),
	}
	return s, nil
}

func (s *Store) Name() string {
	return "store"
}

func (s *Store) Start() error {
	s.log.Printf("start %s", s.Name())
	s.started = true
	s.wg.Add(1)
	go s.save()
	return nil
}

func (s *Store) Stop() error {
	if s.started {
		s.wg.Wait()
	}
	s.log.Printf("stop %s", s.Name())
	return nil
}

// SaveTrade queues a record for the writer goroutine. Records are dropped
// with a log line when the queue is full rather than stalling a trade.
func (s *Store) SaveTrade(record *TradeRecord) {
	select {
	case s.trades <- record:
	default:
		s.log.Printf("trade queue is full, dropped record for intent %d", record.IntentId)
	}
}

func (s *Store) save() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			for {
				select {
				case record := <-s.trades:
					s.saveTrade(record)
				default:
					return
				}
			}
		case record := <-s.trades:
			s.saveTrade(record)
		}
	}
}

func (s *Store) saveTrade(record *TradeRecord) {
	if result := s.db.Create(record); result.Error != nil {
		s.log.Printf("save trade err: %s", result.Error)
	}
}

// RecentTrades loads the latest rows, newest first, for the control api.
func (s *Store) RecentTrades(limit int) ([]*TradeRecord, error) {
	records := make([]*TradeRecord, 0, limit)
	result := s.db.Order("id desc").Limit(limit).Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}
	return records, nil
}

package monitor

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Aybryan5/SniperBotSol/backend"
	"github.com/Aybryan5/SniperBotSol/config"
	"github.com/Aybryan5/SniperBotSol/program"
	"github.com/Aybryan5/SniperBotSol/spltoken"
	"github.com/Aybryan5/SniperBotSol/utils"
	"github.com/gagliardetto/solana-go"
)

type Direction int

const (
	Buy Direction = iota
	Sell
)

func (d Direction) String() string {
	if d == Sell {
		return "sell"
	}
	return "buy"
}

// TradeIntent is the unit of work handed from discovery to trading. One
// intent fans out to every wallet in the pool.
type TradeIntent struct {
	Id           uint64
	Mint         solana.PublicKey
	Direction    Direction
	Lamports     uint64
	Tokens       uint64
	DiscoveredAt time.Time
}

// Gateway is the slice of the ledger gateway discovery needs.
type Gateway interface {
	TokenAccountsByOwner(owner, tokenProgram solana.PublicKey) ([]*backend.Account, error)
}

// Monitor polls the holdings of a reference wallet and emits a buy intent the
// first time each mint shows up. The seen set is touched only by the poll
// goroutine, so it needs no lock; counter access from the status api goes
// through the atomic.
type Monitor struct {
	ctx       context.Context
	wg        sync.WaitGroup
	log       *log.Logger
	gateway   Gateway
	wallet    solana.PublicKey
	interval  time.Duration
	buyAmount uint64
	seen      map[solana.PublicKey]bool
	seenCount int64
	intents   chan *TradeIntent
	started   bool
}

func NewMonitor(ctx context.Context, gateway Gateway, cfg *config.Config) *Monitor {
	m := &Monitor{
		ctx:       ctx,
		log:       utils.NewLog(config.LogPath, config.MonitorLog),
		gateway:   gateway,
		wallet:    cfg.MonitorWallet,
		interval:  time.Duration(cfg.PollIntervalMs) * time.Millisecond,
		buyAmount: cfg.BuyAmount,
		seen:      make(map[solana.PublicKey]bool),
		intents:   make(chan *TradeIntent, 64),
	}
	return m
}

func (m *Monitor) Name() string {
	return "monitor"
}

func (m *Monitor) Intents() <-chan *TradeIntent {
	return m.intents
}

func (m *Monitor) SeenCount() int64 {
	return atomic.LoadInt64(&m.seenCount)
}

// Start begins polling with an empty seen set. There is no durable dedup
// store, so a restarted process re-evaluates every currently held mint as
// new on its first tick.
func (m *Monitor) Start() error {
	m.log.Printf("start %s, wallet: %s, interval: %s", m.Name(), m.wallet, m.interval)
	m.started = true
	m.wg.Add(1)
	go m.poll()
	return nil
}

func (m *Monitor) Stop() error {
	if m.started {
		m.wg.Wait()
	}
	m.log.Printf("stop %s", m.Name())
	return nil
}

func (m *Monitor) poll() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.ctx.Done():
			close(m.intents)
			return
		case <-ticker.C:
			if err := m.tick(); err != nil {
				m.log.Printf("poll err: %s", err)
			}
		}
	}
}

// tick runs one discovery cycle. A mint is recorded as seen before its intent
// is emitted, so a slow consumer can never cause a duplicate.
func (m *Monitor) tick() error {
	mints, err := m.fetchMints()
	if err != nil {
		return err
	}
	for _, mint := range mints {
		if m.seen[mint] {
			continue
		}
		m.seen[mint] = true
		atomic.StoreInt64(&m.seenCount, int64(len(m.seen)))
		intent := &TradeIntent{
			Id:           uint64(time.Now().UnixMicro()),
			Mint:         mint,
			Direction:    Buy,
			Lamports:     m.buyAmount,
			DiscoveredAt: time.Now(),
		}
		m.log.Printf("new mint: %s, intent: %d", mint, intent.Id)
		select {
		case m.intents <- intent:
		case <-m.ctx.Done():
			return nil
		}
	}
	return nil
}

func (m *Monitor) fetchMints() ([]solana.PublicKey, error) {
	accounts, err := m.gateway.TokenAccountsByOwner(m.wallet, program.Token)
	if err != nil {
		return nil, err
	}
	mints := make([]solana.PublicKey, 0, len(accounts))
	for _, account := range accounts {
		if account.Account == nil {
			continue
		}
		user, err := spltoken.DecodeUser(account.Account.Data.GetBinary())
		if err != nil {
			m.log.Printf("skip account %s: %s", account.PubKey, err)
			continue
		}
		mints = append(mints, user.Mint)
	}
	return mints, nil
}

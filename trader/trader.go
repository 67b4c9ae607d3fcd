package trader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"github.com/Aybryan5/SniperBotSol/backend"
	"github.com/Aybryan5/SniperBotSol/computebudget"
	"github.com/Aybryan5/SniperBotSol/config"
	"github.com/Aybryan5/SniperBotSol/dingsdk"
	"github.com/Aybryan5/SniperBotSol/monitor"
	"github.com/Aybryan5/SniperBotSol/pumpfun"
	"github.com/Aybryan5/SniperBotSol/spltoken"
	"github.com/Aybryan5/SniperBotSol/store"
	"github.com/Aybryan5/SniperBotSol/utils"
	"github.com/gagliardetto/solana-go"
)

// sellDust is withheld on balance sells so rounding in the curve math can
// never push the request past the actual holdings.
const sellDust = 1000

const recentResultSize = 256

// Gateway is the slice of the ledger gateway trading needs.
type Gateway interface {
	LatestBlockHash() (solana.Hash, uint64, error)
	SendTransaction(trx *solana.Transaction) (solana.Signature, error)
	WaitConfirmation(ctx context.Context, signature solana.Signature, lastValidHeight uint64) error
	Account(pubkey solana.PublicKey) (*backend.Account, error)
	HasAccount(pubkey solana.PublicKey) (bool, error)
}

// TradeResult is the outcome of one wallet's execution of one intent.
type TradeResult struct {
	IntentId    uint64           `json:"intent_id"`
	Mint        solana.PublicKey `json:"mint"`
	Wallet      solana.PublicKey `json:"wallet"`
	Direction   string           `json:"direction"`
	Signature   solana.Signature `json:"signature"`
	TokenAmount uint64           `json:"token_amount"`
	SolAmount   uint64           `json:"sol_amount"`
	Err         string           `json:"err,omitempty"`
	ElapsedMs   int64            `json:"elapsed_ms"`
	FinishedAt  time.Time        `json:"finished_at"`
}

// Trader fans every intent out to all wallets in parallel. Each wallet builds,
// signs and confirms its own transaction; an expired blockhash earns exactly
// one rebuild and resubmission, every other failure is final.
type Trader struct {
	ctx              context.Context
	wg               sync.WaitGroup
	log              *log.Logger
	gateway          Gateway
	pump             *pumpfun.Program
	wallets          []*Wallet
	intents          <-chan *monitor.TradeIntent
	commands         chan *monitor.TradeIntent
	slippageBps      uint64
	priorityFee      uint64
	computeUnitLimit uint32
	confirmTimeout   time.Duration
	store            *store.Store
	ding             *dingsdk.DingSdk
	mutex            sync.Mutex
	recent           []*TradeResult
	started          bool
}

func NewTrader(ctx context.Context, gateway Gateway, pump *pumpfun.Program,
	intents <-chan *monitor.TradeIntent, cfg *config.Config,
	sr *store.Store, ding *dingsdk.DingSdk) *Trader {
	t := &Trader{
		ctx:              ctx,
		log:              utils.NewLog(config.LogPath, config.TraderLog),
		gateway:          gateway,
		pump:             pump,
		intents:          intents,
		commands:         make(chan *monitor.TradeIntent, 16),
		slippageBps:      cfg.SlippageBps,
		priorityFee:      cfg.PriorityFee,
		computeUnitLimit: cfg.ComputeUnitLimit,
		confirmTimeout:   time.Duration(cfg.ConfirmTimeoutS) * time.Second,
		store:            sr,
		ding:             ding,
		recent:           make([]*TradeResult, 0, recentResultSize),
	}
	return t
}

func (t *Trader) Name() string {
	return "trader"
}

func (t *Trader) AddWallet(wallet *Wallet) {
	t.wallets = append(t.wallets, wallet)
}

func (t *Trader) Wallets() []*Wallet {
	return t.wallets
}

func (t *Trader) Start() error {
	if len(t.wallets) == 0 {
		return fmt.Errorf("no trading wallets")
	}
	t.log.Printf("start %s, wallets: %d, slippage: %d bps, priority fee: %d",
		t.Name(), len(t.wallets), t.slippageBps, t.priorityFee)
	t.started = true
	t.wg.Add(1)
	go t.dispatch()
	return nil
}

func (t *Trader) Stop() error {
	if t.started {
		t.wg.Wait()
	}
	t.log.Printf("stop %s", t.Name())
	return nil
}

// Submit queues an operator-initiated intent, typically a sell from the
// control api.
func (t *Trader) Submit(intent *monitor.TradeIntent) error {
	select {
	case t.commands <- intent:
		return nil
	default:
		return fmt.Errorf("trader command queue is full")
	}
}

// Recent returns the latest results, newest first.
func (t *Trader) Recent() []*TradeResult {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	out := make([]*TradeResult, len(t.recent))
	for i, item := range t.recent {
		out[len(t.recent)-1-i] = item
	}
	return out
}

func (t *Trader) dispatch() {
	defer t.wg.Done()
	for {
		var intent *monitor.TradeIntent
		var ok bool
		select {
		case <-t.ctx.Done():
			return
		case intent, ok = <-t.intents:
			if !ok {
				return
			}
		case intent = <-t.commands:
		}
		t.log.Printf("dispatch intent %d, %s %s", intent.Id, intent.Direction, intent.Mint)
		var group sync.WaitGroup
		for _, wallet := range t.wallets {
			group.Add(1)
			go func(w *Wallet) {
				defer group.Done()
				result := t.attempt(w, intent)
				t.record(result)
			}(wallet)
		}
		group.Wait()
	}
}

func (t *Trader) record(result *TradeResult) {
	if result.Err != "" {
		t.log.Printf("intent %d, wallet %s: %s", result.IntentId, result.Wallet, result.Err)
	} else {
		t.log.Printf("intent %d, wallet %s: %s confirmed %s, tokens: %d, sol: %s",
			result.IntentId, result.Wallet, result.Direction, result.Signature,
			result.TokenAmount, utils.SolUi(result.SolAmount))
	}
	t.mutex.Lock()
	if len(t.recent) >= recentResultSize {
		t.recent = t.recent[1:]
	}
	t.recent = append(t.recent, result)
	t.mutex.Unlock()
	if t.store != nil {
		t.store.SaveTrade(&store.TradeRecord{
			IntentId:    result.IntentId,
			Wallet:      result.Wallet.String(),
			Mint:        result.Mint.String(),
			Direction:   result.Direction,
			Signature:   result.Signature.String(),
			TokenAmount: result.TokenAmount,
			SolAmount:   result.SolAmount,
			Err:         result.Err,
			ElapsedMs:   result.ElapsedMs,
		})
	}
	if t.ding != nil {
		status := "ok"
		if result.Err != "" {
			status = result.Err
		}
		t.ding.Notify(fmt.Sprintf("trade %s %s, wallet: %s, tokens: %d, sol: %s, status: %s",
			result.Direction, result.Mint, result.Wallet,
			result.TokenAmount, utils.SolUi(result.SolAmount), status))
	}
}

// attempt executes one intent for one wallet. The associated account check
// runs once up front; the submit cycle runs at most twice, the second run
// only after a confirmed blockhash expiry.
func (t *Trader) attempt(wallet *Wallet, intent *monitor.TradeIntent) *TradeResult {
	begin := time.Now()
	result := &TradeResult{
		IntentId:  intent.Id,
		Mint:      intent.Mint,
		Wallet:    wallet.PubKey,
		Direction: intent.Direction.String(),
	}
	defer func() {
		result.ElapsedMs = time.Since(begin).Milliseconds()
		result.FinishedAt = time.Now()
	}()
	ata, err := wallet.AssociatedTokenAccount(intent.Mint)
	if err != nil {
		result.Err = err.Error()
		return result
	}
	hasAta, err := t.gateway.HasAccount(ata)
	if err != nil {
		result.Err = err.Error()
		return result
	}
	tokens := intent.Tokens
	if intent.Direction == monitor.Sell {
		if !hasAta {
			result.Err = "no token account to sell from"
			return result
		}
		if tokens == 0 {
			tokens, err = t.sellableBalance(ata)
			if err != nil {
				result.Err = err.Error()
				return result
			}
		}
	}
	createAta := intent.Direction == monitor.Buy && !hasAta
	for cycle := 0; cycle < 2; cycle++ {
		err = t.submitOnce(wallet, intent, ata, createAta, tokens, result)
		if err == nil {
			return result
		}
		if !errors.Is(err, backend.ErrTransactionExpired) {
			break
		}
		t.log.Printf("intent %d, wallet %s: blockhash expired, rebuilding", intent.Id, wallet.PubKey)
	}
	result.Err = err.Error()
	return result
}

func (t *Trader) sellableBalance(ata solana.PublicKey) (uint64, error) {
	account, err := t.gateway.Account(ata)
	if err != nil {
		return 0, err
	}
	user, err := spltoken.ParseUser(account)
	if err != nil {
		return 0, err
	}
	if user.Amount <= sellDust {
		return 0, fmt.Errorf("balance %d below dust threshold", user.Amount)
	}
	return user.Amount - sellDust, nil
}

// Slippage margins run on big.Int like the pricing core, so extreme amounts
// cannot wrap uint64 on the way into an instruction.
func slippageCeiling(amount, bps uint64) (uint64, error) {
	base := new(big.Int).SetUint64(amount)
	margin := new(big.Int).Div(
		new(big.Int).Mul(base, new(big.Int).SetUint64(bps)),
		big.NewInt(10000),
	)
	total := new(big.Int).Add(base, margin)
	if total.BitLen() > 64 {
		return 0, pumpfun.ErrOverflow
	}
	return total.Uint64(), nil
}

func slippageFloor(amount, bps uint64) uint64 {
	base := new(big.Int).SetUint64(amount)
	margin := new(big.Int).Div(
		new(big.Int).Mul(base, new(big.Int).SetUint64(bps)),
		big.NewInt(10000),
	)
	if margin.Cmp(base) >= 0 {
		return 0
	}
	return new(big.Int).Sub(base, margin).Uint64()
}

// submitOnce runs one full quote, build, sign, send, confirm cycle against a
// fresh curve snapshot.
func (t *Trader) submitOnce(wallet *Wallet, intent *monitor.TradeIntent,
	ata solana.PublicKey, createAta bool, tokens uint64, result *TradeResult) error {
	curve, err := t.pump.RetrieveBondingCurve(intent.Mint)
	if err != nil {
		return err
	}
	var trade solana.Instruction
	switch intent.Direction {
	case monitor.Buy:
		tokenOut, err := curve.GetBuyPrice(intent.Lamports)
		if err != nil {
			return err
		}
		if tokenOut == 0 {
			return fmt.Errorf("quote for %d lamports is zero tokens", intent.Lamports)
		}
		maxSolCost, err := slippageCeiling(intent.Lamports, t.slippageBps)
		if err != nil {
			return err
		}
		trade, err = t.pump.InstructionBuy(wallet.PubKey, intent.Mint, curve.Key, ata, tokenOut, maxSolCost)
		if err != nil {
			return err
		}
		result.TokenAmount = tokenOut
		result.SolAmount = intent.Lamports
	case monitor.Sell:
		global := t.pump.Global()
		if global == nil {
			return fmt.Errorf("%w: global config", pumpfun.ErrMissingAccount)
		}
		quote, err := curve.GetSellPrice(tokens, global.FeeBasisPoints)
		if err != nil {
			return err
		}
		minSolOutput := slippageFloor(quote, t.slippageBps)
		trade, err = t.pump.InstructionSell(wallet.PubKey, intent.Mint, curve.Key, ata, tokens, minSolOutput)
		if err != nil {
			return err
		}
		result.TokenAmount = tokens
		result.SolAmount = quote
	default:
		return fmt.Errorf("unknown direction: %d", intent.Direction)
	}
	instructions := []solana.Instruction{
		computebudget.InstructionSetComputeUnitPrice(t.priorityFee),
		computebudget.InstructionSetComputeUnitLimit(t.computeUnitLimit),
	}
	if createAta {
		instructions = append(instructions,
			spltoken.InstructionCreateAssociatedAccount(wallet.PubKey, ata, wallet.PubKey, intent.Mint))
	}
	instructions = append(instructions, trade)

	blockHash, lastValidHeight, err := t.gateway.LatestBlockHash()
	if err != nil {
		return err
	}
	builder := solana.NewTransactionBuilder()
	for _, instruction := range instructions {
		builder.AddInstruction(instruction)
	}
	builder.SetRecentBlockHash(blockHash)
	builder.SetFeePayer(wallet.PubKey)
	trx, err := builder.Build()
	if err != nil {
		return err
	}
	if _, err = trx.Sign(wallet.signer); err != nil {
		return err
	}
	signature, err := t.gateway.SendTransaction(trx)
	if err != nil {
		return err
	}
	result.Signature = signature
	ctx, cancel := context.WithTimeout(t.ctx, t.confirmTimeout)
	defer cancel()
	return t.gateway.WaitConfirmation(ctx, signature, lastValidHeight)
}

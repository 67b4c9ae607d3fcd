package trader

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/Aybryan5/SniperBotSol/backend"
	"github.com/Aybryan5/SniperBotSol/config"
	"github.com/Aybryan5/SniperBotSol/monitor"
	"github.com/Aybryan5/SniperBotSol/program"
	"github.com/Aybryan5/SniperBotSol/pumpfun"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mutex        sync.Mutex
	accounts     map[solana.PublicKey]*backend.Account
	sends        int
	confirms     int
	confirmErrs  []error
	lastValid    uint64
	sentPayloads []*solana.Transaction
}

func (f *fakeGateway) LatestBlockHash() (solana.Hash, uint64, error) {
	hash := solana.Hash{}
	hash[0] = 1
	return hash, f.lastValid, nil
}

func (f *fakeGateway) SendTransaction(trx *solana.Transaction) (solana.Signature, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.sends++
	f.sentPayloads = append(f.sentPayloads, trx)
	signature := solana.Signature{}
	signature[0] = byte(f.sends)
	return signature, nil
}

func (f *fakeGateway) WaitConfirmation(ctx context.Context, signature solana.Signature, lastValidHeight uint64) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	var err error
	if f.confirms < len(f.confirmErrs) {
		err = f.confirmErrs[f.confirms]
	}
	f.confirms++
	return err
}

func (f *fakeGateway) Account(pubkey solana.PublicKey) (*backend.Account, error) {
	if account, ok := f.accounts[pubkey]; ok {
		return account, nil
	}
	return nil, backend.ErrAccountNotFound
}

func (f *fakeGateway) HasAccount(pubkey solana.PublicKey) (bool, error) {
	_, ok := f.accounts[pubkey]
	return ok, nil
}

func rawAccount(t *testing.T, owner solana.PublicKey, raw []byte) *rpc.Account {
	payload := fmt.Sprintf(`["%s","base64"]`, base64.StdEncoding.EncodeToString(raw))
	data := new(rpc.DataBytesOrJSON)
	require.NoError(t, json.Unmarshal([]byte(payload), data))
	return &rpc.Account{Owner: owner, Data: data}
}

func encode(t *testing.T, layout interface{}) []byte {
	buf := new(bytes.Buffer)
	require.NoError(t, binary.Write(buf, binary.LittleEndian, layout))
	return buf.Bytes()
}

// newTestRig builds a trader over a fake ledger holding the pump global
// account and one live bonding curve for the returned mint.
func newTestRig(t *testing.T) (*Trader, *fakeGateway, *Wallet, solana.PublicKey) {
	config.LogPath = t.TempDir() + "/"
	mint := solana.NewWallet().PublicKey()

	gateway := &fakeGateway{
		accounts:  make(map[solana.PublicKey]*backend.Account),
		lastValid: 1000,
	}
	globalKey, err := pumpfun.DeriveGlobalAddress()
	require.NoError(t, err)
	global := pumpfun.GlobalLayout{
		Discriminator:  pumpfun.GlobalDiscriminator,
		Initialized:    1,
		FeeRecipient:   program.PumpFeeRecipient,
		FeeBasisPoints: 100,
	}
	gateway.accounts[globalKey] = &backend.Account{
		PubKey:  globalKey,
		Account: rawAccount(t, program.Pump, encode(t, &global)),
	}
	curveKey, err := pumpfun.DeriveBondingCurveAddress(mint)
	require.NoError(t, err)
	curve := pumpfun.BondingCurveLayout{
		Discriminator:        pumpfun.BondingCurveDiscriminator,
		VirtualTokenReserves: 1_000_000_000,
		VirtualSolReserves:   30_000_000_000,
		RealTokenReserves:    800_000_000,
		TokenTotalSupply:     1_000_000_000,
	}
	gateway.accounts[curveKey] = &backend.Account{
		PubKey:  curveKey,
		Account: rawAccount(t, program.Pump, encode(t, &curve)),
	}

	pump := pumpfun.NewProgram(gateway)
	require.NoError(t, pump.Start())

	cfg := &config.Config{
		SlippageBps:      500,
		PriorityFee:      400_000,
		ComputeUnitLimit: 100_000,
		ConfirmTimeoutS:  1,
	}
	tr := NewTrader(context.Background(), gateway, pump, make(chan *monitor.TradeIntent), cfg, nil, nil)

	key := solana.NewWallet().PrivateKey
	wallet, err := NewWallet(&config.Wallet{Key: key.String()})
	require.NoError(t, err)
	tr.AddWallet(wallet)
	return tr, gateway, wallet, mint
}

func buyIntent(mint solana.PublicKey) *monitor.TradeIntent {
	return &monitor.TradeIntent{
		Id:           uint64(time.Now().UnixMicro()),
		Mint:         mint,
		Direction:    monitor.Buy,
		Lamports:     1_000_000_000,
		DiscoveredAt: time.Now(),
	}
}

func TestSlippageCeiling(t *testing.T) {
	ceiling, err := slippageCeiling(1_000_000_000, 500)
	require.NoError(t, err)
	require.Equal(t, uint64(1_050_000_000), ceiling)

	ceiling, err = slippageCeiling(0, 500)
	require.NoError(t, err)
	require.Equal(t, uint64(0), ceiling)

	_, err = slippageCeiling(math.MaxUint64, 500)
	require.ErrorIs(t, err, pumpfun.ErrOverflow)
}

func TestSlippageFloor(t *testing.T) {
	require.Equal(t, uint64(14_100_450), slippageFloor(14_842_578, 500))
	require.Equal(t, uint64(0), slippageFloor(1_000, 10_000))
	// the margin product must not wrap before the division
	require.Less(t, slippageFloor(math.MaxUint64, 500), uint64(math.MaxUint64))
	require.NotZero(t, slippageFloor(math.MaxUint64, 500))
}

func TestAttemptBuy(t *testing.T) {
	tr, gateway, wallet, mint := newTestRig(t)

	result := tr.attempt(wallet, buyIntent(mint))
	require.Empty(t, result.Err)
	require.Equal(t, uint64(32_258_064), result.TokenAmount)
	require.Equal(t, uint64(1_000_000_000), result.SolAmount)
	require.Equal(t, 1, gateway.sends)

	// wallet has no token account yet, so the transaction carries the
	// budget pair, the create and the buy
	message := gateway.sentPayloads[0].Message
	require.Len(t, message.Instructions, 4)
	require.Equal(t, wallet.PubKey, message.AccountKeys[0])
}

func TestAttemptRetriesOnceOnExpiry(t *testing.T) {
	tr, gateway, wallet, mint := newTestRig(t)
	gateway.confirmErrs = []error{backend.ErrTransactionExpired, nil}

	result := tr.attempt(wallet, buyIntent(mint))
	require.Empty(t, result.Err)
	require.Equal(t, 2, gateway.sends)
}

func TestAttemptGivesUpAfterSecondExpiry(t *testing.T) {
	tr, gateway, wallet, mint := newTestRig(t)
	gateway.confirmErrs = []error{backend.ErrTransactionExpired, backend.ErrTransactionExpired}

	result := tr.attempt(wallet, buyIntent(mint))
	require.NotEmpty(t, result.Err)
	require.Equal(t, 2, gateway.sends)
}

func TestAttemptNoRetryOnExecutionFailure(t *testing.T) {
	tr, gateway, wallet, mint := newTestRig(t)
	gateway.confirmErrs = []error{fmt.Errorf("%w: custom program error: 6002", backend.ErrSlippageExceeded)}

	result := tr.attempt(wallet, buyIntent(mint))
	require.Contains(t, result.Err, "slippage")
	require.Equal(t, 1, gateway.sends)
}

func TestAttemptSellWithoutHoldings(t *testing.T) {
	tr, gateway, wallet, mint := newTestRig(t)

	result := tr.attempt(wallet, &monitor.TradeIntent{
		Id:        1,
		Mint:      mint,
		Direction: monitor.Sell,
	})
	require.Equal(t, "no token account to sell from", result.Err)
	require.Equal(t, 0, gateway.sends)
}

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/Aybryan5/SniperBotSol/backend"
	"github.com/Aybryan5/SniperBotSol/config"
	"github.com/Aybryan5/SniperBotSol/dingsdk"
	"github.com/Aybryan5/SniperBotSol/monitor"
	"github.com/Aybryan5/SniperBotSol/networkdetect"
	"github.com/Aybryan5/SniperBotSol/pumpfun"
	"github.com/Aybryan5/SniperBotSol/store"
	"github.com/Aybryan5/SniperBotSol/trader"
	"github.com/Aybryan5/SniperBotSol/utils"
	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
)

// Sniper wires discovery, pricing, trading and persistence together and owns
// the control api.
type Sniper struct {
	ctx        context.Context
	log        *log.Logger
	config     *config.Config
	backend    *backend.Backend
	pump       *pumpfun.Program
	monitor    *monitor.Monitor
	trader     *trader.Trader
	store      *store.Store
	dsdk       *dingsdk.DingSdk
	detector   *networkdetect.NetworkDetector
	httpServer *http.Server
	startedAt  time.Time
}

func NewSniper(ctx context.Context, cfg *config.Config) *Sniper {
	sniper := &Sniper{
		ctx:    ctx,
		log:    utils.NewLog(config.LogPath, config.AppLog),
		config: cfg,
	}
	be := backend.NewBackend(ctx, cfg.Nodes, cfg.TransactionNodes)
	sniper.backend = be
	sniper.pump = pumpfun.NewProgram(be)
	sniper.monitor = monitor.NewMonitor(ctx, be, cfg)
	var dsdk *dingsdk.DingSdk
	if cfg.DingUrl != "" {
		dsdk = dingsdk.NewDingSdk(cfg.DingUrl)
	}
	sniper.dsdk = dsdk
	var sr *store.Store
	if cfg.DBUrl != "" {
		var err error
		if sr, err = store.NewStore(ctx, cfg); err != nil {
			panic(err)
		}
	}
	sniper.store = sr
	sniper.trader = trader.NewTrader(ctx, be, sniper.pump, sniper.monitor.Intents(), cfg, sr, dsdk)
	for _, item := range loadWallets() {
		wallet, err := trader.NewWallet(item)
		if err != nil {
			panic(err)
		}
		sniper.trader.AddWallet(wallet)
	}
	if cfg.NetStatus && len(cfg.TransactionNodes) != 0 {
		sniper.detector = networkdetect.NewNetworkDetector(cfg.TransactionNodes[0].Rpc, dsdk)
	}
	return sniper
}

func loadWallets() []*config.Wallet {
	infoJson, err := os.ReadFile(config.WalletsFile)
	if err != nil {
		panic(err)
	}
	wallets := make([]*config.Wallet, 0)
	if err = json.Unmarshal(infoJson, &wallets); err != nil {
		panic(err)
	}
	if len(wallets) == 0 {
		panic("no wallets in " + config.WalletsFile)
	}
	return wallets
}

func (sniper *Sniper) Service() {
	sniper.Start()
	<-sniper.ctx.Done()
	sniper.Stop()
}

func (sniper *Sniper) Start() {
	sniper.startedAt = time.Now()
	sniper.backend.Start()
	if sniper.store != nil {
		if err := sniper.store.Start(); err != nil {
			panic(err)
		}
	}
	if err := sniper.pump.Start(); err != nil {
		panic(err)
	}
	if err := sniper.trader.Start(); err != nil {
		panic(err)
	}
	if err := sniper.monitor.Start(); err != nil {
		panic(err)
	}
	if sniper.detector != nil {
		sniper.detector.Start()
	}
	if sniper.config.Listen != "" {
		sniper.StartRPC()
	}
	sniper.log.Printf("sniper has started......")
}

func (sniper *Sniper) Stop() {
	if sniper.httpServer != nil {
		sniper.StopRPC()
	}
	if sniper.detector != nil {
		sniper.detector.Stop()
	}
	if err := sniper.monitor.Stop(); err != nil {
		sniper.log.Printf("monitor stop err: %v", err)
	}
	if err := sniper.trader.Stop(); err != nil {
		sniper.log.Printf("trader stop err: %v", err)
	}
	if err := sniper.pump.Stop(); err != nil {
		sniper.log.Printf("pump program stop err: %v", err)
	}
	if sniper.store != nil {
		if err := sniper.store.Stop(); err != nil {
			sniper.log.Printf("store stop err: %v", err)
		}
	}
	sniper.backend.Stop()
	sniper.log.Printf("sniper has stopped......")
}

func (sniper *Sniper) StartRPC() {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	g := router.Group("/api")
	g.GET("/status", sniper.getStatus)
	g.GET("/trades", sniper.getTrades)
	g.POST("/sell", sniper.postSell)
	sniper.httpServer = &http.Server{
		Addr:    sniper.config.Listen,
		Handler: router,
	}
	sniper.log.Printf("start rpc server......")
	go func() {
		if err := sniper.httpServer.ListenAndServe(); err != nil {
			sniper.log.Printf("ListenAndServe: %s", err.Error())
		}
	}()
}

func (sniper *Sniper) StopRPC() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sniper.httpServer.Shutdown(ctx); err != nil {
		sniper.log.Printf("rpc server shutdown err: %v", err)
	}
	sniper.log.Printf("rpc server has stopped......")
}

func (sniper *Sniper) getStatus(c *gin.Context) {
	wallets := make([]gin.H, 0)
	for _, wallet := range sniper.trader.Wallets() {
		balance := ""
		if lamports, err := sniper.backend.Balance(wallet.PubKey); err == nil {
			balance = utils.SolUi(lamports).String()
		}
		wallets = append(wallets, gin.H{
			"address": wallet.PubKey.String(),
			"balance": balance,
		})
	}
	height, err := sniper.backend.BlockHeight()
	heightStr := strconv.FormatUint(height, 10)
	if err != nil {
		heightStr = err.Error()
	}
	c.JSON(http.StatusOK, gin.H{
		"started_at":     sniper.startedAt,
		"monitor_wallet": sniper.config.MonitorWallet,
		"seen_mints":     sniper.monitor.SeenCount(),
		"wallets":        wallets,
		"block_height":   heightStr,
	})
}

func (sniper *Sniper) getTrades(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"trades": sniper.trader.Recent(),
	})
}

// postSell queues a sell intent for every trading wallet. tokens=0 means the
// full balance less a dust reserve.
func (sniper *Sniper) postSell(c *gin.Context) {
	mint, err := solana.PublicKeyFromBase58(c.Query("mint"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": fmt.Sprintf("invalid mint: %v", err)})
		return
	}
	tokens := uint64(0)
	if tokensStr := c.Query("tokens"); tokensStr != "" {
		if tokens, err = strconv.ParseUint(tokensStr, 10, 64); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"err": fmt.Sprintf("invalid tokens: %v", err)})
			return
		}
	}
	intent := &monitor.TradeIntent{
		Id:           uint64(time.Now().UnixMicro()),
		Mint:         mint,
		Direction:    monitor.Sell,
		Tokens:       tokens,
		DiscoveredAt: time.Now(),
	}
	if err = sniper.trader.Submit(intent); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"intent_id": intent.Id})
}

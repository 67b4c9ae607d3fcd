package config

import (
	"github.com/gagliardetto/solana-go"
)

var (
	ConfigPath  = "./config/"
	ConfigFile  = ConfigPath + "config.json"
	WalletsFile = ConfigPath + "wallets.json"
	LogPath     = "./logs/"
	BackendLog  = "backend"
	MonitorLog  = "monitor"
	TraderLog   = "trader"
	NetworkLog  = "network"
	AppLog      = "sniper"
)

const (
	DefaultPollIntervalMs   = 1000
	DefaultConfirmTimeoutS  = 30
	DefaultSlippageBps      = 500
	DefaultPriorityFeeMicro = 400000
)

type Node struct {
	Rpc    string `json:"rpc"`
	Ws     string `json:"ws"`
	Usable bool   `json:"usable"`
}

type Config struct {
	Nodes            []*Node          `json:"nodes"`
	TransactionNodes []*Node          `json:"transaction_nodes"`
	MonitorWallet    solana.PublicKey `json:"monitor_wallet"`
	BuyAmount        uint64           `json:"buy_amount"`
	SlippageBps      uint64           `json:"slippage_bps"`
	PriorityFee      uint64           `json:"priority_fee"`
	ComputeUnitLimit uint32           `json:"compute_unit_limit"`
	PollIntervalMs   uint64           `json:"poll_interval_ms"`
	ConfirmTimeoutS  uint64           `json:"confirm_timeout_sec"`
	DBUrl            string           `json:"db_url"`
	DBScheme         string           `json:"db_scheme"`
	DBUser           string           `json:"db_user"`
	DBPasswd         string           `json:"db_passwd"`
	DingUrl          string           `json:"ding-url"`
	Listen           string           `json:"listen"`
	NetStatus        bool             `json:"net_status"`
	WorkSpace        string           `json:"workspace"`
}

// Fill backstops the knobs a config file usually leaves out.
func (cfg *Config) Fill() {
	if cfg.PollIntervalMs == 0 {
		cfg.PollIntervalMs = DefaultPollIntervalMs
	}
	if cfg.ConfirmTimeoutS == 0 {
		cfg.ConfirmTimeoutS = DefaultConfirmTimeoutS
	}
	if cfg.SlippageBps == 0 {
		cfg.SlippageBps = DefaultSlippageBps
	}
	if cfg.PriorityFee == 0 {
		cfg.PriorityFee = DefaultPriorityFeeMicro
	}
}

type Wallet struct {
	Key string `json:"key"`
}

package networkdetect

import (
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/Aybryan5/SniperBotSol/config"
	"github.com/Aybryan5/SniperBotSol/dingsdk"
	"github.com/Aybryan5/SniperBotSol/utils"
	"github.com/go-ping/ping"
)

const latencySamples = 300

// NetworkDetector keeps pinging the chosen transaction node and raises a
// webhook alert when latency stays high, since a slow path makes every snipe
// lose the race. Samples arrive on the pinger's goroutine while Stop comes
// from the app, so the shared state sits behind a mutex.
type NetworkDetector struct {
	peer   string
	mutex  sync.Mutex
	ttl    []int64
	avg    []int64
	pinger *ping.Pinger
	logger *log.Logger
	dsdk   *dingsdk.DingSdk
}

func NewNetworkDetector(peer string, dsdk *dingsdk.DingSdk) *NetworkDetector {
	nd := &NetworkDetector{
		peer:   peerHost(peer),
		ttl:    make([]int64, 0),
		logger: utils.NewLog(config.LogPath, config.NetworkLog),
		dsdk:   dsdk,
	}
	return nd
}

func peerHost(peer string) string {
	address := peer
	if index := strings.Index(address, "://"); index >= 0 {
		address = address[index+3:]
	}
	if index := strings.LastIndex(address, ":"); index >= 0 {
		address = address[:index]
	}
	if index := strings.Index(address, "/"); index >= 0 {
		address = address[:index]
	}
	return address
}

// DetectPeers pings every endpoint and returns the fastest one with its
// average round trip in nanoseconds.
func DetectPeers(peers []string) (string, int64) {
	detect := func(peer string) int64 {
		pinger, err := ping.NewPinger(peerHost(peer))
		if err != nil {
			return math.MaxInt64
		}
		pinger.Count = 3
		pinger.Timeout = time.Second * 5
		if err = pinger.Run(); err != nil {
			return math.MaxInt64
		}
		return pinger.Statistics().AvgRtt.Nanoseconds()
	}
	minttl := int64(math.MaxInt64)
	index := 0
	for i, peer := range peers {
		ttl := detect(peer)
		if ttl < minttl {
			minttl = ttl
			index = i
		}
	}
	return peers[index], minttl
}

// record folds one round-trip sample into the rolling windows and reports the
// running average plus whether any window entry is under the 20ms bar.
func (nd *NetworkDetector) record(rtt time.Duration) (int64, bool) {
	nd.mutex.Lock()
	defer nd.mutex.Unlock()
	nd.ttl = append(nd.ttl, rtt.Nanoseconds())
	sum := int64(0)
	for _, x := range nd.ttl {
		sum += x
	}
	avg := sum / int64(len(nd.ttl))
	nd.avg = append(nd.avg, avg)
	if len(nd.ttl) > latencySamples {
		nd.ttl = nd.ttl[len(nd.ttl)-latencySamples:]
	}
	if len(nd.avg) > latencySamples {
		nd.avg = nd.avg[len(nd.avg)-latencySamples:]
	}
	isLow := false
	for _, avgx := range nd.avg {
		if avgx < 20*1000*1000 {
			isLow = true
		}
	}
	return avg, isLow
}

func (nd *NetworkDetector) ping() {
	pinger, err := ping.NewPinger(nd.peer)
	if err != nil {
		nd.logger.Printf("pinger err: %s", err)
		return
	}
	nd.mutex.Lock()
	nd.pinger = pinger
	nd.mutex.Unlock()
	notifyTime := time.Now().Unix()
	pinger.OnRecv = func(pkt *ping.Packet) {
		avg, isLow := nd.record(pkt.Rtt)
		nd.logger.Printf("ping ttl: %d", avg/1000000)
		if !isLow {
			nd.logger.Printf("network latency is too large")
			now := time.Now().Unix()
			if now-notifyTime > 5*60 {
				nd.notify(avg)
				notifyTime = now
			}
		}
	}
	if err = pinger.Run(); err != nil {
		nd.logger.Printf("pinger run err: %s", err)
	}
}

func (nd *NetworkDetector) notify(ttl int64) {
	if nd.dsdk == nil {
		return
	}
	ttStr := time.Now().Format("2006-01-02 15:04:05")
	if err := nd.dsdk.Notify(fmt.Sprintf("sniper server network ttl: %d;\ntime: %s;",
		ttl/1000000, ttStr)); err != nil {
		nd.logger.Printf("notify err: %s", err)
	}
}

func (nd *NetworkDetector) Start() {
	go nd.ping()
}

func (nd *NetworkDetector) Stop() {
	nd.mutex.Lock()
	pinger := nd.pinger
	nd.mutex.Unlock()
	if pinger != nil {
		pinger.Stop()
	}
}

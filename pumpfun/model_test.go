package pumpfun

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testCurve() *BondingCurveLayout {
	return &BondingCurveLayout{
		Discriminator:        BondingCurveDiscriminator,
		VirtualTokenReserves: 1_000_000_000,
		VirtualSolReserves:   30_000_000_000,
		RealTokenReserves:    800_000_000,
		RealSolReserves:      5_000_000,
		TokenTotalSupply:     1_000_000_000,
		Complete:             0,
	}
}

func TestGetBuyPrice(t *testing.T) {
	curve := testCurve()
	// k = 3e19, newSol = 3.1e10, rawOut = floor(k/newSol)+1 = 967741936
	out, err := curve.GetBuyPrice(1_000_000_000)
	require.NoError(t, err)
	require.Equal(t, uint64(32_258_064), out)
}

func TestGetBuyPriceZero(t *testing.T) {
	curve := testCurve()
	out, err := curve.GetBuyPrice(0)
	require.NoError(t, err)
	require.Equal(t, uint64(0), out)
}

func TestGetBuyPriceBounds(t *testing.T) {
	curve := testCurve()
	for _, lamports := range []uint64{1, 1000, 1_000_000, 1_000_000_000, 30_000_000_000, 1 << 60} {
		out, err := curve.GetBuyPrice(lamports)
		require.NoError(t, err)
		require.Less(t, out, curve.VirtualTokenReserves)
		require.LessOrEqual(t, out, curve.RealTokenReserves)
	}
}

func TestGetBuyPriceCappedByRealReserves(t *testing.T) {
	curve := testCurve()
	curve.RealTokenReserves = 10_000_000
	out, err := curve.GetBuyPrice(1_000_000_000)
	require.NoError(t, err)
	require.Equal(t, uint64(10_000_000), out)
}

func TestGetSellPrice(t *testing.T) {
	curve := testCurve()
	// gross = floor(500000*3e10/1.0005e9) = 14992503, fee = 149925
	out, err := curve.GetSellPrice(500_000, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(14_842_578), out)
}

func TestGetSellPriceZero(t *testing.T) {
	curve := testCurve()
	out, err := curve.GetSellPrice(0, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(0), out)
}

func TestGetSellPriceMonotonic(t *testing.T) {
	curve := testCurve()
	prev := uint64(0)
	for _, tokens := range []uint64{1, 100, 10_000, 500_000, 5_000_000, 100_000_000} {
		out, err := curve.GetSellPrice(tokens, 100)
		require.NoError(t, err)
		require.GreaterOrEqual(t, out, prev)
		prev = out
	}
}

func TestClosedCurve(t *testing.T) {
	curve := testCurve()
	curve.Complete = 1
	_, err := curve.GetBuyPrice(1_000_000)
	require.ErrorIs(t, err, ErrCurveClosed)
	_, err = curve.GetSellPrice(1_000_000, 100)
	require.ErrorIs(t, err, ErrCurveClosed)
	_, err = curve.MarketCap()
	require.ErrorIs(t, err, ErrCurveClosed)
	_, err = curve.GetBuyoutPrice(1_000_000, 100)
	require.ErrorIs(t, err, ErrCurveClosed)
	_, err = curve.GetFinalMarketCap(100)
	require.ErrorIs(t, err, ErrCurveClosed)
}

func TestMarketCap(t *testing.T) {
	curve := testCurve()
	cap, err := curve.MarketCap()
	require.NoError(t, err)
	require.Equal(t, uint64(30_000_000_000), cap)

	curve.VirtualTokenReserves = 0
	cap, err = curve.MarketCap()
	require.NoError(t, err)
	require.Equal(t, uint64(0), cap)
}

func TestGetBuyoutPriceExhaustedCurve(t *testing.T) {
	curve := testCurve()
	// base >= virtual token reserves leaves no denominator
	_, err := curve.GetBuyoutPrice(curve.VirtualTokenReserves, 100)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestGetBuyoutPriceUsesRealSolFloor(t *testing.T) {
	curve := testCurve()
	low, err := curve.GetBuyoutPrice(1, 100)
	require.NoError(t, err)
	floor, err := curve.GetBuyoutPrice(curve.RealSolReserves, 100)
	require.NoError(t, err)
	require.Equal(t, floor, low)
}

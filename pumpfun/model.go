package pumpfun

import (
	"math/big"
)

// Pricing over a curve snapshot. All arithmetic runs on big.Int so the
// reserve products cannot wrap; results that do not fit uint64 are reported
// as ErrOverflow. Division is floor division throughout, matching on-chain
// settlement.

var (
	one            = big.NewInt(1)
	basisPointBase = big.NewInt(10000)
)

func toUint64(x *big.Int) (uint64, error) {
	if x.Sign() < 0 || x.BitLen() > 64 {
		return 0, ErrOverflow
	}
	return x.Uint64(), nil
}

// GetBuyPrice returns the token amount dispensed for lamports paid in.
// The +1 on the curve term rounds against the trader, matching the on-chain
// integer division; the result is capped by the real (non-virtual) reserves.
func (curve *BondingCurveLayout) GetBuyPrice(lamports uint64) (uint64, error) {
	if curve.Complete != 0 {
		return 0, ErrCurveClosed
	}
	if lamports == 0 {
		return 0, nil
	}
	virtualSol := new(big.Int).SetUint64(curve.VirtualSolReserves)
	virtualToken := new(big.Int).SetUint64(curve.VirtualTokenReserves)
	invariant := new(big.Int).Mul(virtualSol, virtualToken)
	newSol := new(big.Int).Add(virtualSol, new(big.Int).SetUint64(lamports))
	rawOut := new(big.Int).Add(new(big.Int).Div(invariant, newSol), one)
	tokensOut := new(big.Int).Sub(virtualToken, rawOut)
	if tokensOut.Sign() < 0 {
		tokensOut.SetUint64(0)
	}
	realToken := new(big.Int).SetUint64(curve.RealTokenReserves)
	if tokensOut.Cmp(realToken) > 0 {
		tokensOut = realToken
	}
	return toUint64(tokensOut)
}

// GetSellPrice returns the lamports received for tokens sold in, net of the
// protocol fee. The fractional remainder of both divisions is forfeited.
func (curve *BondingCurveLayout) GetSellPrice(tokens uint64, feeBasisPoints uint64) (uint64, error) {
	if curve.Complete != 0 {
		return 0, ErrCurveClosed
	}
	if tokens == 0 {
		return 0, nil
	}
	amount := new(big.Int).SetUint64(tokens)
	virtualSol := new(big.Int).SetUint64(curve.VirtualSolReserves)
	virtualToken := new(big.Int).SetUint64(curve.VirtualTokenReserves)
	gross := new(big.Int).Div(
		new(big.Int).Mul(amount, virtualSol),
		new(big.Int).Add(virtualToken, amount),
	)
	fee := new(big.Int).Div(
		new(big.Int).Mul(gross, new(big.Int).SetUint64(feeBasisPoints)),
		basisPointBase,
	)
	return toUint64(new(big.Int).Sub(gross, fee))
}

// MarketCap values the full supply at the current virtual price.
func (curve *BondingCurveLayout) MarketCap() (uint64, error) {
	if curve.Complete != 0 {
		return 0, ErrCurveClosed
	}
	if curve.VirtualTokenReserves == 0 {
		return 0, nil
	}
	cap := new(big.Int).Div(
		new(big.Int).Mul(
			new(big.Int).SetUint64(curve.TokenTotalSupply),
			new(big.Int).SetUint64(curve.VirtualSolReserves),
		),
		new(big.Int).SetUint64(curve.VirtualTokenReserves),
	)
	return toUint64(cap)
}

// GetBuyoutPrice is the lamport cost, fee included, of clearing out the
// curve's real backing. Rounds against the trader like GetBuyPrice.
func (curve *BondingCurveLayout) GetBuyoutPrice(tokens uint64, feeBasisPoints uint64) (uint64, error) {
	if curve.Complete != 0 {
		return 0, ErrCurveClosed
	}
	base := tokens
	if base < curve.RealSolReserves {
		base = curve.RealSolReserves
	}
	baseInt := new(big.Int).SetUint64(base)
	denominator := new(big.Int).Sub(
		new(big.Int).SetUint64(curve.VirtualTokenReserves),
		baseInt,
	)
	if denominator.Sign() <= 0 {
		return 0, ErrOverflow
	}
	value := new(big.Int).Add(
		new(big.Int).Div(
			new(big.Int).Mul(baseInt, new(big.Int).SetUint64(curve.VirtualSolReserves)),
			denominator,
		),
		one,
	)
	fee := new(big.Int).Div(
		new(big.Int).Mul(value, new(big.Int).SetUint64(feeBasisPoints)),
		basisPointBase,
	)
	return toUint64(new(big.Int).Add(value, fee))
}

// GetFinalMarketCap is the theoretical capitalization once the real reserves
// are fully depleted at buyout pricing.
func (curve *BondingCurveLayout) GetFinalMarketCap(feeBasisPoints uint64) (uint64, error) {
	if curve.Complete != 0 {
		return 0, ErrCurveClosed
	}
	buyout, err := curve.GetBuyoutPrice(curve.RealTokenReserves, feeBasisPoints)
	if err != nil {
		return 0, err
	}
	totalTokens := new(big.Int).Sub(
		new(big.Int).SetUint64(curve.VirtualTokenReserves),
		new(big.Int).SetUint64(curve.RealTokenReserves),
	)
	if totalTokens.Sign() <= 0 {
		return 0, nil
	}
	totalValue := new(big.Int).Add(
		new(big.Int).SetUint64(curve.VirtualSolReserves),
		new(big.Int).SetUint64(buyout),
	)
	cap := new(big.Int).Div(
		new(big.Int).Mul(new(big.Int).SetUint64(curve.TokenTotalSupply), totalValue),
		totalTokens,
	)
	return toUint64(cap)
}

package utils

import (
	"fmt"
	"log"
	"os"

	"github.com/shopspring/decimal"
)

func NewLog(dir, name string) *log.Logger {
	fileName := fmt.Sprintf("%s%s.log", dir, name)
	file, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		panic(err)
	}
	logger := log.New(file, "", log.LstdFlags|log.Lmicroseconds)
	return logger
}

func SolUi(lamports uint64) decimal.Decimal {
	amountUi := decimal.NewFromInt(int64(lamports))
	return amountUi.Div(decimal.NewFromInt(1000000000))
}

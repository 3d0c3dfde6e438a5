package services

import (
	"context"
	"sync"
	"time"

	"github.com/yeremiapane/tableside/utils"
)

// Sweeper periodically expires parties and bill requests so staff views
// converge without waiting for a guest read.
type Sweeper struct {
	Parties  *PartyService
	Bills    *BillService
	Interval time.Duration
	StopChan chan struct{}

	stopOnce sync.Once
}

func NewSweeper(parties *PartyService, bills *BillService, interval time.Duration) *Sweeper {
	return &Sweeper{
		Parties:  parties,
		Bills:    bills,
		Interval: interval,
		StopChan: make(chan struct{}),
	}
}

func (sw *Sweeper) Start() {
	go func() {
		ticker := time.NewTicker(sw.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sw.RunOnce(context.Background())
			case <-sw.StopChan:
				return
			}
		}
	}()
}

func (sw *Sweeper) Stop() {
	sw.stopOnce.Do(func() { close(sw.StopChan) })
}

// RunOnce runs both sweeps and returns how many parties and bill requests it expired.
func (sw *Sweeper) RunOnce(ctx context.Context) (parties int, bills int) {
	parties, err := sw.Parties.SweepExpired(ctx)
	if err != nil {
		utils.ErrorLogger.Errorf("Party sweep failed: %v", err)
	}
	bills, err = sw.Bills.SweepExpired(ctx)
	if err != nil {
		utils.ErrorLogger.Errorf("Bill request sweep failed: %v", err)
	}
	if parties > 0 || bills > 0 {
		utils.InfoLogger.Infof("Sweep closed %d expired part(ies) and %d expired bill request(s)", parties, bills)
	}
	return parties, bills
}

package main

import (
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/Softsensor-org/Kaizen/internal/batch"
)

// mpbProgress renders one bar across the batch's claims.
type mpbProgress struct {
	container *mpb.Progress
	bar       *mpb.Bar
}

func newMPBProgress() *mpbProgress {
	return &mpbProgress{container: mpb.New(mpb.WithWidth(60))}
}

func (p *mpbProgress) Start(totalClaims int) {
	p.bar = p.container.AddBar(int64(totalClaims),
		mpb.PrependDecorators(
			decor.Name("claims ", decor.WCSyncSpaceR),
			decor.CountersNoUnit("%d/%d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)
}

func (p *mpbProgress) ClaimDone(oc *batch.ClaimOutcome) {
	p.bar.Increment()
}

func (p *mpbProgress) Done() {
	p.container.Wait()
}

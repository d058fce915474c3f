package cmd

import (
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/troshab/deckpreload/pkg/preloadlib"
)

// progressRenderer drives one mpb bar counting settled preloads. The total
// is unknown until the deck has been indexed, so it is set after Start.
type progressRenderer struct {
	p   *mpb.Progress
	bar *mpb.Bar
}

func newProgress(quiet bool) *progressRenderer {
	if quiet {
		return &progressRenderer{}
	}
	p := mpb.New(mpb.WithWidth(64))
	barStyle := mpb.BarStyle().Lbound("╢").Filler("█").Tip("█").Padding("░").Rbound("╟")
	name := "Preloading"
	bar := p.New(0,
		barStyle,
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight}),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO, decor.WC{W: 4}), "done"),
		),
	)
	return &progressRenderer{p: p, bar: bar}
}

// handlers returns preload callbacks that advance the bar as URLs settle.
// Failed loads count as settled; failure isolation means they never stall
// the bar.
func (r *progressRenderer) handlers() *preloadlib.Handlers {
	if r.bar == nil {
		return nil
	}
	return &preloadlib.Handlers{
		LoadCompleteHandler: func(string) { r.bar.Increment() },
		LoadErrorHandler:    func(string, error) { r.bar.Increment() },
	}
}

func (r *progressRenderer) setTotal(n int) {
	if r.bar == nil {
		return
	}
	r.bar.SetTotal(int64(n), false)
	r.bar.EnableTriggerComplete()
}

func (r *progressRenderer) finish() {
	if r.p == nil {
		return
	}
	r.bar.SetTotal(-1, true)
	r.p.Wait()
}

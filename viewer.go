package main

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/zeozeozeo/gomips3/mips3"
)

var errQuit = errors.New("viewer closed")

// An Ebitengine game running the machine once per frame and showing the
// guest framebuffer
type viewer struct {
	m        *machine
	opts     options
	fb       uint32
	buf      *mips3.ImageBuffer
	screen   *ebiten.Image
	total    uint64
	stopped  bool
	perFrame uint64
}

func runViewer(m *machine, opts options, fb uint32, width, height int) error {
	v := &viewer{
		m:        m,
		opts:     opts,
		fb:       fb,
		buf:      mips3.NewImageBuffer(width, height),
		screen:   ebiten.NewImage(width, height),
		perFrame: m.cpu.Config.Clock / 60,
	}
	ebiten.SetWindowSize(width*2, height*2)
	ebiten.SetWindowTitle(fmt.Sprintf("gomips3 - %s", m.cpu.Config.Flavor))
	if err := ebiten.RunGame(v); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return nil
}

func (v *viewer) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return errQuit
	}
	if v.stopped {
		return nil
	}

	budget := v.perFrame
	if v.opts.cycles != 0 {
		if v.total >= v.opts.cycles {
			v.stopped = true
			return nil
		}
		if v.opts.cycles-v.total < budget {
			budget = v.opts.cycles - v.total
		}
	}
	v.total += v.m.cpu.ExecuteRun(budget)

	if d := v.m.cpu.Debugger(); d != nil && d.LastBreak() != "" {
		v.stopped = true
	}
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	v.buf.Capture(v.m.bus, v.fb)
	v.screen.ReplacePixels(v.buf.ToImage().Pix)
	screen.DrawImage(v.screen, nil)
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.buf.Width, v.buf.Height
}

// Command runtime loads a recompiled PS2 executable and runs it: the
// generated function table drives the guest dispatch loop, a 60Hz ticker
// kicks the scheduler-semaphore heuristic, the VSync worker drives
// VBLANK timing, and an ebiten window supplies the GS blit surface and
// keyboard-mapped pad input.
//
// The generated package ps2recomp produces per binary (internal/codegen's
// RegisterFunctions) is expected to be vendored into ./recompiled by the
// recompiler command before this binary is built; a fresh recompile
// target therefore always ships its own cmd/runtime build.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ran-j/ps2recomp/internal/hostio"
	"github.com/ran-j/ps2recomp/internal/kernel"
	"github.com/ran-j/ps2recomp/internal/memory"
	"github.com/ran-j/ps2recomp/internal/runtime"

	recompiled "github.com/ran-j/ps2recomp/recompiled"
)

const (
	tickHz = 60

	vsyncFlagAddr = 0x1000_1000
	vsyncTickAddr = 0x1000_1004
)

func main() {
	baseDir := flag.String("basedir", ".", "host directory fio syscalls are sandboxed to")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: runtime [-basedir dir] <input.elf>")
		os.Exit(1)
	}

	if err := run(flag.Arg(0), *baseDir); err != nil {
		log.Fatalf("runtime: %v", err)
	}
}

func run(elfPath, baseDir string) error {
	rt := runtime.New(log.Default())

	data, err := os.ReadFile(elfPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", elfPath, err)
	}
	if err := rt.LoadELF(elfPath, data); err != nil {
		return err
	}
	recompiled.RegisterFunctions(rt)

	done := make(chan struct{})
	k := kernel.New(rt.Mem, baseDir, done, rt.Logger)
	rt.BindKernel(k)

	pad := hostio.NewPadState()
	k.PadRead = func(bufAddr uint32, mem *memory.Space) { pad.ScePadRead(bufAddr, mem) }

	vsync := hostio.NewVSyncWorker(rt.Mem, k, vsyncFlagAddr, vsyncTickAddr)
	vsync.Start()
	defer vsync.Stop()

	blitter := hostio.NewGSBlitter()

	// tick is never closed: the feeder goroutine below and rt.Run both
	// exit on rt.Done()/gctx.Done() independently, so closing it here
	// could race a send against the close and panic.
	tick := make(chan struct{})

	g, gctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		ticker := time.NewTicker(time.Second / tickHz)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-rt.Done():
				return nil
			case <-ticker.C:
				select {
				case tick <- struct{}{}:
				case <-rt.Done():
					return nil
				}
			}
		}
	})
	g.Go(func() error {
		return rt.Run(tick)
	})

	game := &guestWindow{rt: rt, blitter: blitter, pad: pad}
	ebiten.SetWindowTitle("ps2recomp")
	ebiten.SetWindowSize(640, 448)
	if err := ebiten.RunGame(game); err != nil {
		rt.Logger.Printf("display closed: %v", err)
	}
	rt.RequestStop()
	close(done)

	return g.Wait()
}

// guestWindow is the ebiten.Game adapter: Update polls the host keyboard
// into the pad backend, Draw blits the current GS frame.
type guestWindow struct {
	rt      *runtime.Runtime
	blitter *hostio.GSBlitter
	pad     *hostio.PadState
}

func (g *guestWindow) Update() error {
	g.pad.PollKeyboard()
	if g.rt.IsStopRequested() {
		return ebiten.Termination
	}
	return nil
}

func (g *guestWindow) Draw(screen *ebiten.Image) {
	g.blitter.Blit(g.rt.Mem)
	screen.DrawImage(g.blitter.Image(), nil)
}

func (g *guestWindow) Layout(outsideWidth, outsideHeight int) (int, int) {
	return 640, 448
}

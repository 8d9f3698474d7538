//go:build !libretro

package main

import (
	"flag"
	"log"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/user-none/genesis-core/cli"
	"github.com/user-none/genesis-core/emu"
	"github.com/user-none/genesis-core/romloader"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM file")
	regionFlag := flag.String("region", "auto", "region: auto, ntsc, or pal")
	cropBorder := flag.Bool("crop-border", false, "crop 8 pixels from the left and right edges")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("usage: genesis-core -rom <path>")
	}

	romData, _, err := romloader.LoadROM(*romPath)
	if err != nil {
		log.Fatalf("failed to load ROM: %v", err)
	}

	var fallback emu.Region
	switch strings.ToLower(*regionFlag) {
	case "auto":
		fallback = emu.RegionNTSC
	case "ntsc":
		fallback = emu.RegionNTSC
	case "pal":
		fallback = emu.RegionPAL
	default:
		log.Fatalf("invalid region: %s (use auto, ntsc, or pal)", *regionFlag)
	}

	region := fallback
	if strings.ToLower(*regionFlag) == "auto" && len(romData) >= 0x200 {
		region = emu.DetectRegionFromHeader(romData[0x1F0:0x200], fallback)
	}

	fps := 60
	if region.PAL {
		fps = 50
	}

	m := emu.NewMachine(romData, region)

	ebiten.SetWindowSize(emu.ScreenWidth*2, 448)
	ebiten.SetWindowTitle("genesis-core")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(fps)

	runner := cli.NewRunner(m, *cropBorder)
	defer runner.Close()

	if err := ebiten.RunGame(runner); err != nil {
		log.Fatal(err)
	}
}

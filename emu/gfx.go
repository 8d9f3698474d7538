package emu

import (
	"image"
	"image/color"
)

// Screen geometry. H32/H40 select the active width; the framebuffer is
// always allocated at the maximum size so mode switches never reallocate.
const (
	ScreenWidth     = 320
	MaxScreenHeight = 240
	maxSprites      = 80
)

// spriteEntry is one decoded row of the Sprite Attribute Table, cached
// once per scanline so masking/collision/priority don't re-parse VRAM
// per pixel. Only y/height/addr are cached here: x, pattern, horizontal
// size and the flip/palette/priority attribute byte are read live from
// VRAM at render time (see renderSprites), matching hardware's split
// between the cached sprite list walked once per line and the attribute
// fetch that happens during actual pixel output. Grounded on
// original_source/gfx.cpp's draw_pattern / SAT-walk shape, generalized to
// the Genesis's linked-list SAT (each entry names the next via its link
// field, instead of SMS's flat list).
type spriteEntry struct {
	addr   uint16 // VRAM address of this sprite's 8-byte SAT entry
	y      int
	height int // in pixels: 8/16/24/32, from the cached vertical size bits
}

// gfxState holds the renderer's per-frame scratch buffers, kept in the
// VDP so RenderScanline has a single receiver (mirrors emu/vdp.go keeping
// framebuffer alongside register state rather than as a separate type).
type gfxState struct {
	framebuffer  *image.RGBA
	satCache     [maxSprites]spriteEntry
	satCount     int
	satDirty     bool
	lineSprites  [20]int // indices into satCache intersecting the current line
	collisionRow [ScreenWidth]bool
	priorityRow  [ScreenWidth]bool

	// colorRow/shadeRow hold the unshaded CRAM index and the final
	// shadow/highlight state chosen for each column; the actual RGBA is
	// composited once per scanline after planes and sprites have both had
	// a chance to raise or lower the shade, since a sprite's operator
	// cells (palette 3, color 14/15) can retroactively change a plane
	// pixel drawn earlier in the same line.
	colorRow [ScreenWidth]uint8
	shadeRow [ScreenWidth]uint8
	litRow   [ScreenWidth]bool
}

// Shade states for shadeRow. Genesis hardware starts every pixel in
// shadow when shadow/highlight mode is enabled (REG12 bit3) and only
// lifts it to normal/highlight via priority pixels or a sprite's operator
// cells.
const (
	shadeNormal = iota
	shadeShadow
	shadeHighlight
)

func newGfxState() *gfxState {
	return &gfxState{
		framebuffer: image.NewRGBA(image.Rect(0, 0, ScreenWidth, MaxScreenHeight)),
		satDirty:    true,
	}
}

// MarkSATDirty flags the cached sprite table stale; called whenever a
// VRAM write lands inside the current SAT base region.
func (v *VDP) MarkSATDirty() { v.gfx.satDirty = true }

func (v *VDP) satBase() uint16 {
	return uint16(v.reg[5]&0x7F) << 9
}

// rebuildSATCache walks the Genesis's linked sprite list (sprite 0 always
// starts the chain; each entry's link field names the next, 0 terminates)
// and caches each entry's y/vertical-size for the frame's sprite renderer;
// x/pattern/horizontal-size are deliberately not cached here (see
// spriteEntry).
func (v *VDP) rebuildSATCache() {
	g := &v.gfx
	g.satCount = 0
	base := v.satBase()

	idx := 0
	visited := make(map[int]bool, maxSprites)
	for idx != 0 || g.satCount == 0 {
		if visited[idx] || g.satCount >= maxSprites {
			break
		}
		visited[idx] = true

		addr := base + uint16(idx)*8
		y := (int(v.vram[addr])<<8 | int(v.vram[addr+1])) & 0x3FF
		sizeByte := v.vram[addr+2]
		link := v.vram[addr+3]

		vCells := int(sizeByte&0x3) + 1

		g.satCache[g.satCount] = spriteEntry{
			addr:   addr,
			y:      y - 128,
			height: vCells * 8,
		}
		g.satCount++

		if link == 0 {
			break
		}
		idx = int(link)
	}
	g.satDirty = false
}

// RenderScanline renders one scanline of planes A/B, the window plane and
// sprites into the framebuffer, mirroring emu/vdp.go's RenderScanline
// (clear-priority / render-background / render-sprites / left-column-blank
// shape) generalized to two scroll planes plus a window overlay and
// shadow/highlight mixing.
func (v *VDP) RenderScanline(line int) {
	if line >= v.ActiveHeight() {
		return
	}
	width := 256
	if v.modeH40() {
		width = 320
	}

	g := &v.gfx
	shadeEnabled := v.reg[12]&0x08 != 0
	baseline := uint8(shadeNormal)
	if shadeEnabled {
		baseline = shadeShadow
	}
	for i := 0; i < width; i++ {
		g.priorityRow[i] = false
		g.litRow[i] = false
		g.shadeRow[i] = baseline
	}

	if !v.displayEnabled() {
		bg := v.backdropColor()
		for x := 0; x < width; x++ {
			g.framebuffer.SetRGBA(x, line, bg)
		}
		return
	}

	if g.satDirty {
		v.rebuildSATCache()
	}

	v.renderPlane(line, width, false) // plane B first (lowest priority)
	v.renderPlane(line, width, true)  // plane A / window
	v.renderSprites(line, width, shadeEnabled)

	bg := v.backdropColor()
	for x := 0; x < width; x++ {
		if !g.litRow[x] {
			g.framebuffer.SetRGBA(x, line, bg)
			continue
		}
		g.framebuffer.SetRGBA(x, line, v.cramColor(g.colorRow[x], g.shadeRow[x]))
	}
}

func (v *VDP) backdropColor() color.RGBA {
	idx := v.reg[7] & 0x3F
	return v.cramColor(idx, shadeNormal)
}

// cramColor converts a 9-bit CRAM entry (3 bits per channel, bit0 of each
// nibble unused) to RGBA, the base conversion original_source/gfx.cpp's
// COLOR_3B_TO_8B macro describes. shade applies the Genesis's
// shadow/highlight operator modes: shadeShadow halves every channel,
// shadeHighlight adds the halved value to the upper half of the range,
// shadeNormal passes the color through unchanged.
func (v *VDP) cramColor(index uint8, shade uint8) color.RGBA {
	word := v.cramLatch[index&0x3F]
	r := uint8((word >> 1) & 0x7)
	g := uint8((word >> 5) & 0x7)
	b := uint8((word >> 9) & 0x7)
	scale := func(c uint8) uint8 { return (c << 5) | (c << 2) | (c >> 1) }
	rr, gg, bb := scale(r), scale(g), scale(b)
	switch shade {
	case shadeShadow:
		rr, gg, bb = rr>>1, gg>>1, bb>>1
	case shadeHighlight:
		rr, gg, bb = 0x80+rr>>1, 0x80+gg>>1, 0x80+bb>>1
	}
	return color.RGBA{R: rr, G: gg, B: bb, A: 255}
}

// windowCovers reports whether the window plane overrides planes A/B at
// (x, line), per REG17/18's top/bottom and left/right split points.
func (v *VDP) windowCovers(x, line, width int) bool {
	hp := v.reg[17]
	vp := v.reg[18]
	rightHalf := hp&0x80 != 0
	col := int(hp&0x1F) * 16
	belowSplit := vp&0x80 != 0
	row := int(vp&0x1F) * 8

	rowMatch := (belowSplit && line >= row) || (!belowSplit && row > 0 && line < row)
	colMatch := (rightHalf && x >= col) || (!rightHalf && col > 0 && x < col)
	return rowMatch || colMatch
}

// renderPlane draws either plane B (planeA=false) or plane A/window
// (planeA=true) for one scanline, following the tile fetch -> flip ->
// palette -> priority decode loop emu/vdp.go's renderBackground uses,
// generalized to a configurable nametable base/size and per-column vscroll.
func (v *VDP) renderPlane(line, width int, planeA bool) {
	ntWidth, ntHeight := v.nametableSize()

	for x := 0; x < width; x++ {
		useWindow := planeA && v.windowCovers(x, line, width)

		var ntBase uint16
		var hScroll, vScroll int
		if useWindow {
			ntBase = uint16(v.reg[3]&0x3C) << 10
			hScroll, vScroll = 0, 0
		} else if planeA {
			ntBase = uint16(v.reg[2]&0x38) << 10
			hScroll = v.hScroll(0, line)
			vScroll = v.vScroll(0, x)
		} else {
			ntBase = uint16(v.reg[4]&0x07) << 13
			hScroll = v.hScroll(1, line)
			vScroll = v.vScroll(1, x)
		}

		effX := (x - hScroll) & (ntWidth*8 - 1)
		effY := (line + vScroll) % (ntHeight * 8)

		tileCol := effX / 8
		tileRow := effY / 8
		pxCol := effX % 8
		pxRow := effY % 8

		entryAddr := ntBase + uint16(tileRow*ntWidth+tileCol)*2
		hi := v.vram[entryAddr&0xFFFF]
		lo := v.vram[(entryAddr+1)&0xFFFF]

		pattern := uint16(hi&0x7)<<8 | uint16(lo)
		hFlip := hi&0x08 != 0
		vFlip := hi&0x10 != 0
		palette := (hi >> 5) & 0x3
		priority := hi&0x80 != 0

		if hFlip {
			pxCol = 7 - pxCol
		}
		if vFlip {
			pxRow = 7 - pxRow
		}

		colorIdx := v.patternPixel(pattern, pxCol, pxRow)
		if colorIdx == 0 {
			continue // transparent: leave lower-priority plane/backdrop visible
		}
		if !priority && v.gfx.priorityRow[x] {
			continue // a higher-priority pixel already drawn here
		}

		v.gfx.colorRow[x] = palette*16 + colorIdx
		v.gfx.litRow[x] = true
		if priority {
			v.gfx.priorityRow[x] = true
			v.gfx.shadeRow[x] = shadeNormal // priority pixels always render at full brightness
		}
	}
}

func (v *VDP) nametableSize() (w, h int) {
	switch v.reg[16] & 0x3 {
	case 0:
		w = 32
	case 1:
		w = 64
	default:
		w = 128
	}
	switch (v.reg[16] >> 4) & 0x3 {
	case 0:
		h = 32
	case 1:
		h = 64
	default:
		h = 128
	}
	return
}

func (v *VDP) hScroll(plane int, line int) int {
	base := uint16(v.reg[13]&0x3F) << 10
	mode := v.reg[11] & 0x3
	var addr uint16
	switch mode {
	case 0: // full scroll, one entry for the whole frame
		addr = base
	case 2: // per-8-line scroll
		addr = base + uint16(line/8)*32
	default: // per-line scroll
		addr = base + uint16(line)*4
	}
	off := addr
	if plane == 1 {
		off += 2
	}
	return int(uint16(v.vram[off&0xFFFF])<<8 | uint16(v.vram[(off+1)&0xFFFF]))
}

func (v *VDP) vScroll(plane int, col int) int {
	if v.reg[11]&0x4 == 0 {
		entry := v.vsram[plane]
		return int(entry)
	}
	cell := col / 16
	entry := v.vsram[(cell*2+plane)&0x3F]
	return int(entry)
}

// patternPixel decodes one 4bpp pixel out of an 8x8 tile pattern (4 bytes
// per row, two packed 4-bit pixels per byte, the high nibble being the
// left pixel of the pair).
func (v *VDP) patternPixel(pattern uint16, col, row int) uint8 {
	addr := pattern*32 + uint16(row)*4 + uint16(col/2)
	b := v.vram[addr&0xFFFF]
	if col%2 == 0 {
		return b >> 4
	}
	return b & 0xF
}

// renderSprites draws the sprites intersecting line, reading y/height from
// the cached SAT walk but x/pattern/horizontal-size/attributes live from
// VRAM each time, per the documented stale/live split (see spriteEntry):
// a mid-frame pattern or x-coordinate change takes effect immediately,
// while a y or link change only takes effect on the next SAT rebuild.
//
// Sprite masking (a sprite with x=0 that isn't the first one intersecting
// this line) hides it and every lower-priority sprite still to come, but
// iteration continues so overflow detection still sees them; this is the
// documented trick some games use to reveal/hide sprite chains mid-frame.
func (v *VDP) renderSprites(line, width int, shadeEnabled bool) {
	g := &v.gfx
	for i := range g.collisionRow {
		g.collisionRow[i] = false
	}

	shown := 0
	maxPerLine := 20
	pixelBudget := 320
	if !v.modeH40() {
		maxPerLine = 16
		pixelBudget = 256
	}

	onLine := 0
	masked := false
	pixelsDrawn := 0

	for i := 0; i < g.satCount; i++ {
		s := &g.satCache[i]
		if line < s.y || line >= s.y+s.height {
			continue
		}

		sizeByte := v.vram[s.addr+2]
		attrHi := v.vram[s.addr+4]
		attrLo := v.vram[s.addr+5]
		xRaw := (int(v.vram[s.addr+6])<<8 | int(v.vram[s.addr+7])) & 0x1FF
		x := xRaw - 128

		firstOnLine := onLine == 0
		onLine++
		if xRaw == 0 && !firstOnLine {
			masked = true
		}

		if shown >= maxPerLine {
			v.SetSpriteOverflow()
			break
		}
		shown++
		if masked {
			continue // masked sprites are counted toward the budget but never drawn
		}

		hCells := int((sizeByte>>2)&0x3) + 1
		vCells := s.height / 8
		spriteWidth := hCells * 8
		pattern := uint16(attrHi&0x7)<<8 | uint16(attrLo)
		hFlip := attrHi&0x08 != 0
		vFlip := attrHi&0x10 != 0
		palette := (attrHi >> 5) & 0x3
		priority := attrHi&0x80 != 0

		row := line - s.y
		if vFlip {
			row = s.height - 1 - row
		}
		cellRow := row / 8
		rowInCell := row % 8

		for px := 0; px < spriteWidth; px++ {
			if pixelsDrawn >= pixelBudget {
				v.SetSpriteOverflow()
				return
			}
			pixelsDrawn++

			sx := x + px
			if sx < 0 || sx >= width {
				continue
			}
			col := px
			if hFlip {
				col = spriteWidth - 1 - px
			}
			cellCol := col / 8
			colInCell := col % 8

			cellIndex := cellCol*vCells + cellRow
			tile := pattern + uint16(cellIndex)

			colorIdx := v.patternPixel(tile, colInCell, rowInCell)
			if colorIdx == 0 {
				continue
			}
			if g.collisionRow[sx] {
				v.SetSpriteCollision()
				continue // the earlier, higher-priority sprite keeps this pixel
			}
			g.collisionRow[sx] = true

			// Palette 3, colors 14/15 are shadow/highlight operator cells:
			// they never draw a sprite pixel, they only raise or lower the
			// shade state already accumulated for this column.
			if shadeEnabled && palette == 3 && (colorIdx == 14 || colorIdx == 15) {
				if colorIdx == 14 {
					g.shadeRow[sx] = shadeHighlight
				} else {
					g.shadeRow[sx] = shadeShadow
				}
				continue
			}

			if !priority && g.priorityRow[sx] {
				continue
			}
			g.colorRow[sx] = palette*16 + colorIdx
			g.litRow[sx] = true
			if priority {
				g.priorityRow[sx] = true
				g.shadeRow[sx] = shadeNormal
			}
		}
	}
}

// Framebuffer returns the rendered image for the current frame.
func (v *VDP) Framebuffer() *image.RGBA { return v.gfx.framebuffer }

package emu

import "log"

// ioPort models one of the three gamepad-style ports: a data latch, a
// control (direction) latch and the externally-driven input lines.
// Grounded on original_source/ioports.cpp's IoPort base class — read_data
// masks the latched output against the externally driven lines with
// `mask = ~ctrl & connectedLines`, exactly as the original computes it.
// The button-to-bit mapping itself is an external collaborator (spec.md
// §1); callers drive raw line state through SetInput.
type ioPort struct {
	data  uint8
	ctrl  uint8
	lines uint8 // externally driven input state, active-low on real hardware
}

const connectedLines = 0x7F // 7 lines connected (TH,TR,TL,R,L,D,U); bit7 unused

func (p *ioPort) readData() uint8 {
	mask := ^p.ctrl & connectedLines
	return (p.data & p.ctrl) | (p.lines & mask)
}

func (p *ioPort) writeData(v uint8) { p.data = v }
func (p *ioPort) writeCtrl(v uint8) { p.ctrl = v }

// IOPorts is the I/O chip: three gamepad ports plus the version register
// reported at $A10001. Generalized from original_source/ioports.cpp's
// three-port dispatch (ports $3/$5/$7 data, $9/$B/$D control).
type IOPorts struct {
	ports  [3]ioPort
	region Region
}

// NewIOPorts creates the I/O chip reporting the given region in its
// version register.
func NewIOPorts(region Region) *IOPorts {
	io := &IOPorts{region: region}
	for i := range io.ports {
		io.ports[i].lines = connectedLines
	}
	return io
}

// SetInput drives the raw (active-low) line state for one port (0=P1,
// 1=P2, 2=EXT). The button/direction-to-bit mapping lives in the host
// runner, not here.
func (io *IOPorts) SetInput(port int, lines uint8) {
	if port < 0 || port > 2 {
		return
	}
	io.ports[port].lines = lines
}

// ReadVersion returns the $A10001 version register: bit7 set for PAL,
// bit6 set for overseas (export) units.
func (io *IOPorts) ReadVersion() uint8 {
	v := uint8(0x20) // bit5 always set (no disk drive)
	if io.region.PAL {
		v |= 0x80
	}
	if io.region.Oversea {
		v |= 0x40
	}
	return v
}

// Read dispatches a read within $A10003-$A1000F (port data/control
// registers; serial registers beyond $A1000F are not modeled and read as
// open bus).
func (io *IOPorts) Read(off uint32) uint8 {
	switch off {
	case 0x0003:
		return io.ports[0].readData()
	case 0x0005:
		return io.ports[1].readData()
	case 0x0007:
		return io.ports[2].readData()
	case 0x0009:
		return io.ports[0].ctrl
	case 0x000B:
		return io.ports[1].ctrl
	case 0x000D:
		return io.ports[2].ctrl
	default:
		return 0xFF
	}
}

// Write dispatches a write within $A10003-$A1000F.
func (io *IOPorts) Write(off uint32, v uint8) {
	switch off {
	case 0x0003:
		io.ports[0].writeData(v)
	case 0x0005:
		io.ports[1].writeData(v)
	case 0x0007:
		io.ports[2].writeData(v)
	case 0x0009:
		io.ports[0].writeCtrl(v)
	case 0x000B:
		io.ports[1].writeCtrl(v)
	case 0x000D:
		io.ports[2].writeCtrl(v)
	default:
		log.Printf("[io] unknown write at $A1%04X = %#02x", off, v)
	}
}

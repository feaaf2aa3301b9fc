// Package wincsim is an in-memory co-processor that satisfies winc.Driver.
//
// Events are scripted from the "chip side" (Associate, Discover, Fault, ...)
// or produced automatically by requests, queued, and announced by pulling
// the chip's signal line. HandleEvents drains the queue and releases the
// line. The chip counts overlapping driver calls so exclusivity can be
// asserted from tests.
package wincsim

import (
	"sync"
	"sync/atomic"

	"winclink-go/drivers/winc"
	"winclink-go/errcode"
)

// Host-interface opcodes written on the link for each request. Only used to
// exercise the transport; the payload is not modelled.
const (
	opConnect     byte = 40
	opScan        byte = 16
	opScanResult  byte = 18
	opConnInfo    byte = 5
	opGetMAC      byte = 3
	opFirmware    byte = 1
	opGPIO        byte = 27
	opEventPoll   byte = 0x4d
	opInitHandshk byte = 0xc0
)

// Config selects the chip's canned behaviour.
type Config struct {
	// Link, when set, is powered up on Initialize and carries one framed
	// transaction per operation.
	Link   *winc.Link
	Timing winc.Timing

	// AutoAssociate answers a connect request with EvConnected when the SSID
	// is among Networks (or Networks is empty), else EvConnectFailed. When
	// false the test drives association with Associate/FailConnect.
	AutoAssociate bool
	// AutoScan answers a scan request with one EvAPFound per matching
	// network followed by EvScanDone.
	AutoScan bool
	// HoldResults keeps each EvScanResult back until DeliverResults, the
	// way a real chip answers a result request on a later interrupt.
	HoldResults bool

	Networks []winc.ScanEntry
	Firmware winc.FirmwareVersion
	MAC      winc.MACAddress
	// IP handed out on association.
	IP [4]byte
}

type gpioState struct {
	dir winc.GPIODirection
	val winc.GPIOValue
}

// Chip is the simulated co-processor.
type Chip struct {
	cfg  Config
	line *Line

	// OnCall, if set, runs inside every driver call after the overlap
	// check. Tests use it to inject interrupts mid-operation.
	OnCall func(op string)

	inflight atomic.Int32
	calls    atomic.Uint32
	overlaps atomic.Uint32

	mu          sync.Mutex // chip-side state
	initialized bool
	status      winc.Status
	queue       []winc.Event
	info        winc.ConnectionInfo
	hasInfo     bool
	pendingSSID string
	pendingSec  winc.Security
	found       []winc.ScanEntry
	scanning    bool
	staged      winc.ScanEntry
	hasStaged   bool
	held        []uint8
	gpio        map[winc.GPIO]gpioState
	failNext    error
}

// New returns a powered-off chip with its own signal line.
func New(cfg Config) *Chip {
	if cfg.Firmware == (winc.FirmwareVersion{}) {
		cfg.Firmware = winc.FirmwareVersion{Major: 19, Minor: 6, Patch: 1, SVN: 16761}
	}
	if cfg.MAC == (winc.MACAddress{}) {
		cfg.MAC = winc.MACAddress{0xf8, 0xf0, 0x05, 0x00, 0x00, 0x01}
	}
	if cfg.IP == ([4]byte{}) {
		cfg.IP = [4]byte{192, 168, 1, 100}
	}
	cfg.Timing = cfg.Timing.Normalize()
	return &Chip{
		cfg:  cfg,
		line: NewLine(),
		gpio: map[winc.GPIO]gpioState{},
	}
}

func init() {
	winc.Register("sim", func(in winc.OpenInput) (winc.Driver, error) {
		return New(Config{
			Link:          in.Link,
			Timing:        in.Timing,
			AutoAssociate: true,
			AutoScan:      true,
			Networks:      DemoNetworks(),
		}), nil
	})
}

// DemoNetworks is the neighbourhood used by the "sim" driver.
func DemoNetworks() []winc.ScanEntry {
	return []winc.ScanEntry{
		{SSID: "mynetwork", RSSI: -42, Channel: 6, Security: winc.SecurityWPAPSK},
		{SSID: "guest", RSSI: -67, Channel: 1, Security: winc.SecurityOpen},
		{SSID: "corp", RSSI: -71, Channel: 11, Security: winc.SecurityEnterprise},
	}
}

// SignalLine implements winc.LineOwner.
func (c *Chip) SignalLine() winc.IRQLine { return c.line }

// Line returns the concrete line for tests.
func (c *Chip) Line() *Line { return c.line }

// Calls is the number of driver operations performed.
func (c *Chip) Calls() uint32 { return c.calls.Load() }

// Overlaps counts driver calls that started while another was running.
func (c *Chip) Overlaps() uint32 { return c.overlaps.Load() }

// Pending reports how many events are queued and not yet drained.
func (c *Chip) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// FailNext makes the next driver operation return err.
func (c *Chip) FailNext(err error) {
	c.mu.Lock()
	c.failNext = err
	c.mu.Unlock()
}

// GPIO returns the last direction and value set on pin.
func (c *Chip) GPIO(pin winc.GPIO) (winc.GPIODirection, winc.GPIOValue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g := c.gpio[pin]
	return g.dir, g.val
}

// --- chip-side scripting ---

// emit queues events and announces them on the signal line.
func (c *Chip) emit(evs ...winc.Event) {
	c.mu.Lock()
	c.queue = append(c.queue, evs...)
	c.mu.Unlock()
	c.line.Pull()
}

// Associate completes a pending connect with info. A zero IP is filled in.
func (c *Chip) Associate(info winc.ConnectionInfo) {
	if info.IP == ([4]byte{}) {
		info.IP = c.cfg.IP
	}
	c.mu.Lock()
	if info.SSID == "" {
		info.SSID = c.pendingSSID
	}
	if info.Security == winc.SecurityInvalid {
		info.Security = c.pendingSec
	}
	c.info = info
	c.mu.Unlock()
	c.emit(winc.Event{Kind: winc.EvConnected})
}

// FailConnect abandons a pending connect.
func (c *Chip) FailConnect() { c.emit(winc.Event{Kind: winc.EvConnectFailed}) }

// Disassociate drops the link.
func (c *Chip) Disassociate() { c.emit(winc.Event{Kind: winc.EvDisconnected}) }

// Discover reports one more access point for the running scan.
func (c *Chip) Discover(e winc.ScanEntry) {
	c.mu.Lock()
	e.Index = uint8(len(c.found))
	c.found = append(c.found, e)
	c.mu.Unlock()
	c.emit(winc.Event{Kind: winc.EvAPFound, Index: e.Index})
}

// CompleteScan ends the running scan.
func (c *Chip) CompleteScan() {
	c.mu.Lock()
	c.scanning = false
	n := uint8(len(c.found))
	c.mu.Unlock()
	c.emit(winc.Event{Kind: winc.EvScanDone, Index: n})
}

// DeliverResults announces the result requests held back by HoldResults.
// It reports how many were delivered.
func (c *Chip) DeliverResults() int {
	c.mu.Lock()
	held := c.held
	c.held = nil
	c.mu.Unlock()
	if len(held) == 0 {
		return 0
	}
	evs := make([]winc.Event, 0, len(held))
	for _, i := range held {
		evs = append(evs, winc.Event{Kind: winc.EvScanResult, Index: i})
	}
	c.emit(evs...)
	return len(evs)
}

// Fault reports an internal chip error.
func (c *Chip) Fault(code uint8) {
	c.emit(winc.Event{Kind: winc.EvFault, Code: code})
}

// --- winc.Driver ---

func (c *Chip) enter(op string, opcode byte) error {
	c.calls.Add(1)
	if c.inflight.Add(1) > 1 {
		c.overlaps.Add(1)
	}
	if c.OnCall != nil {
		c.OnCall(op)
	}
	c.mu.Lock()
	err := c.failNext
	c.failNext = nil
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if c.cfg.Link != nil && opcode != 0 {
		var rx [2]byte
		return c.cfg.Link.Tx([]byte{opcode, 0}, rx[:])
	}
	return nil
}

func (c *Chip) exit() { c.inflight.Add(-1) }

func (c *Chip) ready() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return winc.ErrNotInitialized
	}
	return nil
}

func (c *Chip) Initialize() error {
	defer c.exit()
	if err := c.enter("initialize", 0); err != nil {
		return err
	}
	if l := c.cfg.Link; l != nil {
		if err := winc.PowerOn(l, c.cfg.Timing); err != nil {
			return err
		}
		var rx [2]byte
		if err := l.Tx([]byte{opInitHandshk, 0}, rx[:]); err != nil {
			return err
		}
	}
	c.mu.Lock()
	c.initialized = true
	c.status = winc.StatusIdle
	c.queue = c.queue[:0]
	c.hasInfo = false
	c.found = nil
	c.scanning = false
	c.hasStaged = false
	c.mu.Unlock()
	c.line.Release()
	return nil
}

func (c *Chip) ConnectNetwork(p winc.ConnectionParameters) error {
	defer c.exit()
	if err := c.enter("connect_network", opConnect); err != nil {
		return err
	}
	if err := c.ready(); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	ssid := string(p.SSID)
	c.mu.Lock()
	c.pendingSSID = ssid
	c.pendingSec = p.Security
	auto := c.cfg.AutoAssociate
	known, rssi := c.lookup(ssid)
	c.mu.Unlock()

	if !auto {
		c.emit(winc.Event{Kind: winc.EvConnecting})
		return nil
	}
	if !known {
		c.emit(winc.Event{Kind: winc.EvConnecting}, winc.Event{Kind: winc.EvConnectFailed})
		return nil
	}
	c.mu.Lock()
	c.info = winc.ConnectionInfo{IP: c.cfg.IP, RSSI: rssi, Security: p.Security, SSID: ssid}
	c.mu.Unlock()
	c.emit(winc.Event{Kind: winc.EvConnecting}, winc.Event{Kind: winc.EvConnected})
	return nil
}

// lookup must be called with c.mu held.
func (c *Chip) lookup(ssid string) (bool, int8) {
	if len(c.cfg.Networks) == 0 {
		return true, -50
	}
	for _, n := range c.cfg.Networks {
		if n.SSID == ssid {
			return true, n.RSSI
		}
	}
	return false, 0
}

func (c *Chip) HandleEvents(sink winc.EventSink) error {
	defer c.exit()
	if err := c.enter("handle_events", opEventPoll); err != nil {
		return err
	}
	c.mu.Lock()
	evs := append([]winc.Event(nil), c.queue...)
	c.queue = c.queue[:0]
	for _, ev := range evs {
		c.applyLocked(ev)
	}
	c.line.Release()
	c.mu.Unlock()

	for _, ev := range evs {
		if sink != nil {
			sink.OnEvent(ev)
		}
	}
	return nil
}

// applyLocked updates the driver's cached view for one drained event.
func (c *Chip) applyLocked(ev winc.Event) {
	switch ev.Kind {
	case winc.EvConnecting:
		c.status = winc.StatusConnecting
		c.hasInfo = false
	case winc.EvConnected:
		c.status = winc.StatusConnected
		c.hasInfo = true
	case winc.EvConnectFailed, winc.EvDisconnected:
		c.status = winc.StatusDisconnected
		c.hasInfo = false
	case winc.EvFault:
		c.status = winc.StatusError
		c.hasInfo = false
	case winc.EvScanResult:
		if int(ev.Index) < len(c.found) {
			c.staged = c.found[ev.Index]
			c.hasStaged = true
		}
	}
}

func (c *Chip) GetStatus() winc.Status {
	defer c.exit()
	_ = c.enter("get_status", 0)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Chip) RequestNetworkScan(ch winc.Channel) error {
	defer c.exit()
	if err := c.enter("request_network_scan", opScan); err != nil {
		return err
	}
	if err := c.ready(); err != nil {
		return err
	}
	if !ch.Valid() {
		return winc.ErrBadChannel
	}
	c.mu.Lock()
	c.found = nil
	c.hasStaged = false
	c.held = nil
	c.scanning = true
	var evs []winc.Event
	if c.cfg.AutoScan {
		for _, n := range c.cfg.Networks {
			if ch != winc.ChannelAll && n.Channel != ch {
				continue
			}
			n.Index = uint8(len(c.found))
			c.found = append(c.found, n)
			evs = append(evs, winc.Event{Kind: winc.EvAPFound, Index: n.Index})
		}
		evs = append(evs, winc.Event{Kind: winc.EvScanDone, Index: uint8(len(c.found))})
		c.scanning = false
	}
	c.mu.Unlock()
	if len(evs) > 0 {
		c.emit(evs...)
	}
	return nil
}

func (c *Chip) NumAP() uint8 {
	defer c.exit()
	_ = c.enter("num_ap", 0)
	c.mu.Lock()
	defer c.mu.Unlock()
	return uint8(len(c.found))
}

func (c *Chip) RequestScanResult(index uint8) error {
	defer c.exit()
	if err := c.enter("request_scan_result", opScanResult); err != nil {
		return err
	}
	if err := c.ready(); err != nil {
		return err
	}
	c.mu.Lock()
	if int(index) >= len(c.found) {
		c.mu.Unlock()
		return winc.ErrBadIndex
	}
	if c.cfg.HoldResults {
		c.held = append(c.held, index)
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	c.emit(winc.Event{Kind: winc.EvScanResult, Index: index})
	return nil
}

func (c *Chip) ScanResult() (winc.ScanEntry, bool) {
	defer c.exit()
	_ = c.enter("scan_result", 0)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.staged, c.hasStaged
}

func (c *Chip) GetConnectionInfo() (winc.ConnectionInfo, bool) {
	defer c.exit()
	_ = c.enter("get_connection_info", 0)
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasInfo {
		return winc.ConnectionInfo{}, false
	}
	return c.info, true
}

func (c *Chip) GetFirmwareVersion() (winc.FirmwareVersion, error) {
	defer c.exit()
	if err := c.enter("get_firmware_version", opFirmware); err != nil {
		return winc.FirmwareVersion{}, err
	}
	if err := c.ready(); err != nil {
		return winc.FirmwareVersion{}, err
	}
	return c.cfg.Firmware, nil
}

func (c *Chip) GetMACAddress() (winc.MACAddress, error) {
	defer c.exit()
	if err := c.enter("get_mac_address", opGetMAC); err != nil {
		return winc.MACAddress{}, err
	}
	if err := c.ready(); err != nil {
		return winc.MACAddress{}, err
	}
	return c.cfg.MAC, nil
}

func (c *Chip) SetGPIODirection(pin winc.GPIO, dir winc.GPIODirection) error {
	return c.setGPIO("set_gpio_direction", pin, func(g *gpioState) { g.dir = dir })
}

func (c *Chip) SetGPIOValue(pin winc.GPIO, v winc.GPIOValue) error {
	return c.setGPIO("set_gpio_value", pin, func(g *gpioState) { g.val = v })
}

func (c *Chip) setGPIO(op string, pin winc.GPIO, f func(*gpioState)) error {
	defer c.exit()
	if err := c.enter(op, opGPIO); err != nil {
		return err
	}
	if err := c.ready(); err != nil {
		return err
	}
	if !pin.Valid() {
		return winc.ErrBadGPIO
	}
	c.mu.Lock()
	g := c.gpio[pin]
	f(&g)
	c.gpio[pin] = g
	c.mu.Unlock()
	return nil
}

// HardwareFault builds the error a driver returns when the chip rejects a
// request with an internal error code.
func HardwareFault(op string) error {
	return errcode.New(errcode.HardwareFault, op, "chip reported internal error")
}

package winc

// EventKind classifies one asynchronous report from the co-processor.
type EventKind uint8

const (
	EvNone EventKind = iota
	// EvConnecting: the chip accepted a connect request and started
	// associating.
	EvConnecting
	// EvConnected: associated and an address was assigned.
	EvConnected
	// EvConnectFailed: the association attempt was abandoned.
	EvConnectFailed
	// EvDisconnected: an established link dropped.
	EvDisconnected
	// EvAPFound: one more access point was discovered by the running scan.
	EvAPFound
	// EvScanDone: scan finished; Index carries the final AP count.
	EvScanDone
	// EvScanResult: the result requested for Index is staged in the driver.
	EvScanResult
	// EvFault: internal chip error; Code carries the chip's error number.
	EvFault
)

func (k EventKind) String() string {
	switch k {
	case EvConnecting:
		return "connecting"
	case EvConnected:
		return "connected"
	case EvConnectFailed:
		return "connect_failed"
	case EvDisconnected:
		return "disconnected"
	case EvAPFound:
		return "ap_found"
	case EvScanDone:
		return "scan_done"
	case EvScanResult:
		return "scan_result"
	case EvFault:
		return "fault"
	default:
		return "none"
	}
}

// Event is one report drained by HandleEvents.
type Event struct {
	Kind  EventKind
	Index uint8
	Code  uint8
}

// EventSink receives events in the order the chip reported them. It is
// called from HandleEvents, usually in interrupt context: it must not block
// and must not call back into the driver.
type EventSink interface {
	OnEvent(ev Event)
}

// Driver is the synchronous operation surface of the co-processor driver.
// Every call requires exclusive access to the driver.
type Driver interface {
	// Initialize performs power/reset sequencing and the boot handshake.
	Initialize() error
	// ConnectNetwork asks the chip to associate. It returns once the request
	// is accepted; progress arrives through HandleEvents.
	ConnectNetwork(p ConnectionParameters) error
	// HandleEvents drains whatever the chip has queued, updating the
	// driver's cached status, and reports each event to sink.
	HandleEvents(sink EventSink) error
	GetStatus() Status
	RequestNetworkScan(ch Channel) error
	NumAP() uint8
	// RequestScanResult asks the chip to stage result index; the staged
	// entry becomes readable through ScanResult after its EvScanResult.
	RequestScanResult(index uint8) error
	ScanResult() (ScanEntry, bool)
	GetConnectionInfo() (ConnectionInfo, bool)
	GetFirmwareVersion() (FirmwareVersion, error)
	GetMACAddress() (MACAddress, error)
	SetGPIODirection(pin GPIO, dir GPIODirection) error
	SetGPIOValue(pin GPIO, v GPIOValue) error
}

// LineOwner is implemented by drivers that provide their own signal line
// (emulators, or drivers that configure the IRQ pin themselves).
type LineOwner interface {
	SignalLine() IRQLine
}

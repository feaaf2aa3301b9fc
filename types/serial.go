package types

// ConsoleConfig is supplied on retained topic "config/console".
type ConsoleConfig struct {
	// UART is "uart0" or "uart1".
	UART string `json:"uart"`
	// TX and RX are GPIO numbers; 0 keeps the board default.
	TX     int    `json:"tx,omitempty"`
	RX     int    `json:"rx,omitempty"`
	Baud   uint32 `json:"baud,omitempty"`
	Parity string `json:"parity,omitempty"` // "none", "even" or "odd"
	Echo   bool   `json:"echo,omitempty"`
	Prompt string `json:"prompt,omitempty"`
}

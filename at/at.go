package at

const (
	// Terminal Control
	CRLF = "\r\n"

	// Response Codes
	OK         = "OK"
	ERROR      = "ERROR"
	Connect    = "CONNECT"
	NoCarrier  = "NO CARRIER"
	NoDialtone = "NO DIALTONE"
	Busy       = "BUSY"
	NoAnswer   = "NO ANSWER"
	CmeError   = "+CME ERROR:"
	CmsError   = "+CMS ERROR:"

	// URCs (Unsolicited Result Codes)
	UrcSignalStrength = "RSSI:"
	UrcMode           = "MODE:"
	UrcCall           = "RING"
)

type ResponseType int

const (
	TypeFinal ResponseType = iota // OK, ERROR, NO CARRIER
	TypeURC                       // Asynchronous notifications
	TypeData                      // Intermediate command output (RSSI: 23, +CSQ: ...)
)

func (t ResponseType) String() string {
	switch t {
	case TypeFinal:
		return "final"
	case TypeURC:
		return "urc"
	default:
		return "data"
	}
}

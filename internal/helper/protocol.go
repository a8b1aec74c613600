// protocol.go defines the IPC protocol between cronalarm and the privileged helper.
// Communication uses JSON-encoded messages over a Unix domain socket.
package helper

// SocketPath is the default Unix domain socket path for helper communication.
const SocketPath = "/run/cronalarm/helper.sock"

// RequestType identifies the type of privileged operation requested.
type RequestType string

const (
	// RequestTypeSetWakealarm arms the wake alarm at Request.Unix.
	RequestTypeSetWakealarm RequestType = "set_wakealarm"

	// RequestTypeClearWakealarm disarms the wake alarm.
	RequestTypeClearWakealarm RequestType = "clear_wakealarm"
)

// Request is sent from cronalarm to the helper.
type Request struct {
	Type RequestType `json:"type"`
	Unix int64       `json:"unix,omitempty"` // seconds since the epoch, UTC
}

// Response is sent from the helper back to cronalarm.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

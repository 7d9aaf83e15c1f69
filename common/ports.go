package common

// ValidPort reports whether port is usable as a TCP port number. Port 0
// is excluded: the protocol needs an agreed, fixed port on both ends.
func ValidPort(port int) bool {
	return port >= 1 && port <= 65535
}

package netutil

import "net"

// LocalIP returns the LAN address players should point their phones at.
// Dialing UDP never sends a packet; it only forces the kernel to pick the
// outbound interface. Falls back to loopback when offline.
func LocalIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "127.0.0.1"
}

package network

import "fmt"

// ChannelID names a logical message type in one direction.
type ChannelID uint32

// Unused is reserved and never registered.
const Unused ChannelID = 0

// ProtocolString formats the handshake tag compared by both peers at connection start.
func ProtocolString(name string, major, minor int, channelCount ChannelID) string {
	return fmt.Sprintf("%s v%d.%d.%d", name, major, minor, channelCount)
}

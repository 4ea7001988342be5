// Package msgs provides the remote protocol between a commutation
// controller and its clients, and all message schemas.
//
// Every message travels in a Typed envelope. The type ID tells the kind
// (command or event), the group and whether a command message is a reply.
// Commands and their replies share the envelope sequence number.
package msgs

// Package bridge carries timer output driver commands over a serial
// link to the board owning the timer.
//
// The link is byte oriented and synchronized by packet sequence numbers:
// either side may request a resync (REQ seq), the other acknowledges
// (ACK seq), after which every packet must carry the next expected
// sequence number. A mismatch causes a resync. There is no checksum;
// enable parity on the serial port if bit errors matter.
//
// Packet layout:
//
//	seq | code | [len] | data...
//
// Bit 7 of code marks an event, bits 4-6 hold the data length (0-6) or 7
// when an extra length byte follows. Replies carry the sequence number
// of the request as the first data byte and set bit 0 of code on error.
package bridge

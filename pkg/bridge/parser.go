package bridge

// SyncState indicates the state of the link.
type SyncState int

const (
	// SyncStateSyncing means the link is not synchronized.
	SyncStateSyncing SyncState = 0
	// SyncStateReady means the link is synchronized and ready for packets.
	SyncStateReady SyncState = 0x01
	// SyncStateReceiving means a sync or a packet is partially received.
	SyncStateReceiving SyncState = 0x02
)

// IsReady indicates if the link is ready for packets.
func (s SyncState) IsReady() bool {
	return s&SyncStateReady != 0
}

// IsReceiving indicates if it's in the middle of syncing or receiving a packet.
func (s SyncState) IsReceiving() bool {
	return s&SyncStateReceiving != 0
}

// String implements fmt.Stringer.
func (s SyncState) String() string {
	str := "syncing"
	if s.IsReady() {
		str = "ready"
	}
	if s.IsReceiving() {
		str += "+receiving"
	}
	return str
}

// TimerAction tells the link what to do with the sync timer.
type TimerAction int

const (
	// TimerNoChange keeps the timer as-is.
	TimerNoChange TimerAction = iota
	// TimerRestart restarts the timer.
	TimerRestart
	// TimerStop stops the timer.
	TimerStop
)

// ParseResult is the result after one parsing step.
type ParseResult struct {
	// Sync is syncREQ or syncACK to be sent to the peer, or 0.
	Sync   byte
	State  SyncState
	Packet *Packet
}

// WhatAboutTimer decides what to do with the sync timer.
func (r ParseResult) WhatAboutTimer() TimerAction {
	if r.State.IsReceiving() || r.Sync == syncREQ {
		return TimerRestart
	}
	if r.State.IsReady() {
		return TimerStop
	}
	return TimerNoChange
}

type parseState int

const (
	stateSyncAck    parseState = iota // REQ sent, waiting for ACK
	stateSyncReqSeq                   // waiting for seq after REQ
	stateSyncAckSeq                   // waiting for seq after ACK
	stateMsgSeq                       // waiting for packet seq
	stateMsgAckSeq                    // ACK received while ready, validating seq
	stateMsgCode                      // waiting for code
	stateMsgLen                       // waiting for extended length
	stateMsgData                      // waiting for data
)

const (
	syncREQ byte = 0xff
	syncACK byte = 0xfe
)

// Parser decodes the incoming byte stream.
type Parser struct {
	peerSeq PacketSeq
	state   parseState
	packet  *Packet
	recvLen byte
}

// State gets the current sync state.
func (p *Parser) State() SyncState {
	switch {
	case p.state == stateSyncAck:
		return SyncStateSyncing
	case p.state == stateMsgSeq:
		return SyncStateReady
	case p.state > stateMsgSeq:
		return SyncStateReady | SyncStateReceiving
	default:
		return SyncStateSyncing | SyncStateReceiving
	}
}

// Reset drops any partial packet and requests a resync.
func (p *Parser) Reset() (pr ParseResult) {
	p.packet = nil
	pr.Sync, pr.Packet = p.resync()
	pr.State = p.State()
	return
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	pr.Sync, pr.Packet = p.parseByte(b)
	pr.State = p.State()
	return
}

// Timeout notifies the parser the sync timer expired.
func (p *Parser) Timeout() (pr ParseResult) {
	if p.state != stateMsgSeq {
		pr.Sync, pr.Packet = p.resync()
	}
	pr.State = p.State()
	return
}

func (p *Parser) parseByte(b byte) (byte, *Packet) {
	switch p.state {
	case stateSyncAck, stateSyncReqSeq, stateSyncAckSeq:
		return p.parseSync(b)
	case stateMsgSeq, stateMsgAckSeq:
		return p.parseSeq(b)
	default:
		return p.parseBody(b)
	}
}

// parseSync handles REQ/ACK followed by the peer's seq while syncing.
func (p *Parser) parseSync(b byte) (syncCmd byte, pkt *Packet) {
	if p.state == stateSyncAck {
		switch b {
		case syncREQ:
			p.state = stateSyncReqSeq
		case syncACK:
			p.state = stateSyncAckSeq
		}
		return
	}
	seq := PacketSeq(b)
	if !seq.IsValid() {
		return p.resync()
	}
	if p.state == stateSyncReqSeq {
		syncCmd = syncACK
	}
	p.peerSeq, p.state = seq, stateMsgSeq
	return
}

// parseSeq expects the next packet seq, or a REQ/ACK from the peer.
func (p *Parser) parseSeq(b byte) (byte, *Packet) {
	if p.state == stateMsgAckSeq {
		if b != byte(p.peerSeq) {
			return p.resync()
		}
		p.state = stateMsgSeq
		return 0, nil
	}
	switch {
	case b == syncREQ:
		p.state = stateSyncReqSeq
	case b == syncACK:
		p.state = stateMsgAckSeq
	case b != byte(p.peerSeq):
		return p.resync()
	default:
		p.packet = &Packet{Seq: p.peerSeq}
		p.peerSeq = p.peerSeq.Next()
		p.state = stateMsgCode
	}
	return 0, nil
}

// parseBody handles code, extended length and data of a packet.
func (p *Parser) parseBody(b byte) (byte, *Packet) {
	switch p.state {
	case stateMsgCode:
		p.packet.Code = b & 0x8f
		switch n := (b >> 4) & 7; n {
		case 0:
			return p.packetReady()
		case 7:
			p.state = stateMsgLen
		default:
			p.expectData(n)
		}
	case stateMsgLen:
		switch {
		case b >= 0x80:
			return p.resync()
		case b == 0:
			return p.packetReady()
		}
		p.expectData(b)
	case stateMsgData:
		p.packet.Data[p.recvLen] = b
		if p.recvLen++; int(p.recvLen) >= len(p.packet.Data) {
			return p.packetReady()
		}
	}
	return 0, nil
}

func (p *Parser) expectData(n byte) {
	p.packet.Data, p.recvLen = make([]byte, n), 0
	p.state = stateMsgData
}

func (p *Parser) resync() (byte, *Packet) {
	p.state, p.packet = stateSyncAck, nil
	return syncREQ, nil
}

func (p *Parser) packetReady() (byte, *Packet) {
	pkt := p.packet
	p.state, p.packet = stateMsgSeq, nil
	return 0, pkt
}

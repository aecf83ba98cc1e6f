package event

import "maker_go/pkg/quant"

// Type defines the type of event.
type Type uint16

const (
	EvAccountUpdate Type = iota + 1
	EvSystemHalt
)

// Account identifies which venue account a raw payload belongs to.
type Account uint8

const (
	AccountBids Account = iota + 1
	AccountAsks
	AccountEventQueue
)

// String returns the string representation of Account.
func (a Account) String() string {
	switch a {
	case AccountBids:
		return "BIDS"
	case AccountAsks:
		return "ASKS"
	case AccountEventQueue:
		return "EVENT_QUEUE"
	default:
		return "UNKNOWN"
	}
}

// Event is the interface for all sequencer events.
type Event interface {
	GetSeq() uint64
	GetTs() quant.TimeStamp
	GetType() Type
}

// BaseEvent contains common fields for all events. Seq is the local
// arrival sequence assigned by the gateway, not the venue event cursor.
type BaseEvent struct {
	Seq uint64          `json:"seq"`
	Ts  quant.TimeStamp `json:"ts"`
}

func (e BaseEvent) GetSeq() uint64         { return e.Seq }
func (e BaseEvent) GetTs() quant.TimeStamp { return e.Ts }

// AccountUpdateEvent carries one raw account-change notification. Data is
// the undecoded venue buffer; decoding happens in the sequencer via the
// wire interpreters.
type AccountUpdateEvent struct {
	BaseEvent
	Account Account `json:"account"`
	Data    []byte  `json:"-"`
}

func (e AccountUpdateEvent) GetType() Type { return EvAccountUpdate }

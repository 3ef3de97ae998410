package events

import (
	"fmt"
	"time"
)

// Kind tags the variant carried by an Event.
type Kind string

const (
	KindLog            Kind = "log"
	KindPeerDiscovered Kind = "peer_discovered"
	KindPeerLost       Kind = "peer_lost"
	KindProgress       Kind = "progress"
)

// Level separates failure logs from ordinary ones.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Source names the component that produced an event.
type Source string

const (
	SourceDiscovery Source = "discovery"
	SourceReceiver  Source = "receiver"
	SourceSender    Source = "sender"
)

// Event is a value copied out of a component into its feed. Which fields are
// meaningful depends on Kind:
//
//	KindLog            Message, Level
//	KindPeerDiscovered Address, DisplayName
//	KindPeerLost       Address, DisplayName
//	KindProgress       Percent, Speed, ETA (zero when unknown)
//
// TransferID is set on every event belonging to a single transfer.
type Event struct {
	Kind        Kind
	Source      Source
	Level       Level
	Message     string
	Address     string
	DisplayName string
	Percent     int
	Speed       float64 // bytes per second
	ETA         time.Duration
	TransferID  string
	Time        time.Time
}

func Log(src Source, msg string) Event {
	return Event{Kind: KindLog, Source: src, Level: LevelInfo, Message: msg, Time: time.Now()}
}

func Logf(src Source, format string, args ...any) Event {
	return Log(src, fmt.Sprintf(format, args...))
}

func Errorf(src Source, format string, args ...any) Event {
	ev := Logf(src, format, args...)
	ev.Level = LevelError
	return ev
}

func PeerDiscovered(address, displayName string) Event {
	return Event{
		Kind:        KindPeerDiscovered,
		Source:      SourceDiscovery,
		Level:       LevelInfo,
		Address:     address,
		DisplayName: displayName,
		Time:        time.Now(),
	}
}

func PeerLost(address, displayName string) Event {
	ev := PeerDiscovered(address, displayName)
	ev.Kind = KindPeerLost
	return ev
}

func Progress(src Source, transferID string, percent int) Event {
	return Event{
		Kind:       KindProgress,
		Source:     src,
		Level:      LevelInfo,
		Percent:    percent,
		TransferID: transferID,
		Time:       time.Now(),
	}
}

// WithTransfer tags the event with a transfer id.
func (e Event) WithTransfer(id string) Event {
	e.TransferID = id
	return e
}

// WithRate attaches the average throughput and remaining-time estimate to a
// progress event.
func (e Event) WithRate(bytesPerSec float64, eta time.Duration) Event {
	e.Speed = bytesPerSec
	e.ETA = eta
	return e
}

// IsError reports whether the event is a failure log.
func (e Event) IsError() bool {
	return e.Kind == KindLog && e.Level == LevelError
}

func (e Event) String() string {
	switch e.Kind {
	case KindLog:
		return fmt.Sprintf("[%s] %s", e.Source, e.Message)
	case KindPeerDiscovered:
		return fmt.Sprintf("[%s] discovered %s (%s)", e.Source, e.DisplayName, e.Address)
	case KindPeerLost:
		return fmt.Sprintf("[%s] lost %s (%s)", e.Source, e.DisplayName, e.Address)
	case KindProgress:
		return fmt.Sprintf("[%s] progress %d%%", e.Source, e.Percent)
	default:
		return fmt.Sprintf("[%s] %s", e.Source, e.Kind)
	}
}

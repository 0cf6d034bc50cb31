package sse

import (
	"context"
	"ms-rsvp/internal/models"
	"sync"
)

const clientBuffer = 10

// RSVPEventEmitter fans new RSVP events out to connected admin feeds
type RSVPEventEmitter struct {
	clients     []chan models.RSVPSubmittedEvent
	clientMutex sync.RWMutex
}

func NewRSVPEventEmitter() *RSVPEventEmitter {
	return &RSVPEventEmitter{}
}

// Subscribe adds a client until ctx is done, then closes its channel
func (e *RSVPEventEmitter) Subscribe(ctx context.Context) <-chan models.RSVPSubmittedEvent {
	clientChan := make(chan models.RSVPSubmittedEvent, clientBuffer)

	e.clientMutex.Lock()
	e.clients = append(e.clients, clientChan)
	e.clientMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.removeClient(clientChan)
	}()

	return clientChan
}

// EmitRSVPSubmitted broadcasts to every subscriber without blocking. A client
// whose buffer is full misses the event.
func (e *RSVPEventEmitter) EmitRSVPSubmitted(event models.RSVPSubmittedEvent) {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()

	for _, clientChan := range e.clients {
		select {
		case clientChan <- event:
		default:
		}
	}
}

func (e *RSVPEventEmitter) removeClient(clientChan chan models.RSVPSubmittedEvent) {
	e.clientMutex.Lock()
	defer e.clientMutex.Unlock()

	for i, ch := range e.clients {
		if ch == clientChan {
			e.clients = append(e.clients[:i], e.clients[i+1:]...)
			close(clientChan)
			return
		}
	}
}

func (e *RSVPEventEmitter) ClientCount() int {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()
	return len(e.clients)
}

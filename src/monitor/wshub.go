package monitor

import (
	"context"
	"encoding/json"

	"github.com/rajinda/sniffer/src/inspector"
	"github.com/rajinda/sniffer/src/logging"
)

// See: https://github.com/gorilla/websocket/tree/master/examples/chat

// Inspector is what the monitor reads from and listens to.
type Inspector interface {
	StatsSnapshot() inspector.StatsSnapshot
	Sessions() []inspector.SessionInfo
	Subscribe(observer inspector.Observer)
}

// Hub maintains the set of active clients and broadcasts messages to the
// clients.
type WsHub struct {
	maxClientId int

	// Registered clients.
	clients map[*WsClient]bool

	// Inbound messages from the clients.
	messageReceived chan *ReceivedMessage

	broadcast chan []byte

	// Register requests from the clients.
	register chan *WsClient

	// Unregister requests from clients.
	unregister chan *WsClient

	// Closed when run returns.
	done chan struct{}

	Inspector Inspector
}

type MessageContainer struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ReceivedMessage struct {
	Sender  *WsClient
	Message []byte
}

type ClientWelcomeMessage struct {
	Id      int    `json:"id"`
	Message string `json:"message"`
}

type StatsMessage struct {
	Stats    inspector.StatsSnapshot `json:"stats"`
	Sessions []inspector.SessionInfo `json:"sessions"`
}

func newWsHub(source Inspector) *WsHub {
	return &WsHub{
		messageReceived: make(chan *ReceivedMessage),
		broadcast:       make(chan []byte, 256),
		register:        make(chan *WsClient),
		unregister:      make(chan *WsClient),
		done:            make(chan struct{}),
		clients:         make(map[*WsClient]bool),
		Inspector:       source,
	}
}

func encodeContainer(messageType string, messageData interface{}) []byte {
	result, err := json.Marshal(MessageContainer{
		Type: messageType,
		Data: messageData,
	})
	if err != nil {
		logging.Errorf(logging.ProtoWS, "Cannot encode %s message: %s", messageType, err)
		return nil
	}
	return result
}

// Publish queues a message for every client. It drops the message instead
// of blocking when the hub is behind.
func (h *WsHub) Publish(messageType string, messageData interface{}) {
	message := encodeContainer(messageType, messageData)
	if message == nil {
		return
	}
	select {
	case h.broadcast <- message:
	default:
		logging.Warningf(logging.ProtoWS, "Broadcast queue full, dropping <u>%s</u> message", messageType)
	}
}

func (h *WsHub) statsMessage() StatsMessage {
	return StatsMessage{
		Stats:    h.Inspector.StatsSnapshot(),
		Sessions: h.Inspector.Sessions(),
	}
}

func (h *WsHub) processBroadcastMessage(message []byte) {
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

func (h *WsHub) sendTo(client *WsClient, messageType string, messageData interface{}) {
	message := encodeContainer(messageType, messageData)
	if message == nil {
		return
	}
	select {
	case client.send <- message:
	default:
		close(client.send)
		delete(h.clients, client)
	}
}

func (h *WsHub) run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return
		case client := <-h.register:
			h.maxClientId++
			client.id = h.maxClientId
			h.clients[client] = true
			logging.Infof(logging.ProtoWS, "A new client connected: <u>client %d</u> (from <u>%s</u>)", client.id, client.conn.RemoteAddr())
			h.sendTo(client, "Welcome", ClientWelcomeMessage{
				Id:      client.id,
				Message: "Welcome!",
			})
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				logging.Infof(logging.ProtoWS, "Client disconnected: <u>client %d</u> (from <u>%s</u>)", client.id, client.conn.RemoteAddr())
			}
		case message := <-h.broadcast:
			h.processBroadcastMessage(message)
		case receivedMessage := <-h.messageReceived:
			if _, ok := h.clients[receivedMessage.Sender]; !ok {
				continue
			}
			var messageObj MessageContainer
			if err := json.Unmarshal(receivedMessage.Message, &messageObj); err != nil {
				logging.Warningf(logging.ProtoWS, "Invalid message from <u>client %d</u>: %s", receivedMessage.Sender.id, err)
				continue
			}
			logging.Infof(logging.ProtoWS, "Message received from <u>client %d</u> type <u>%s</u>", receivedMessage.Sender.id, messageObj.Type)
			switch messageObj.Type {
			case "GetStats":
				h.sendTo(receivedMessage.Sender, "Stats", h.statsMessage())
			default:
				h.sendTo(receivedMessage.Sender, "Error", "unknown message type")
			}
		}
	}
}

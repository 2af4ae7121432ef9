package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	MsgTypeCreateRoom  = 101
	MsgTypeJoinRoom    = 102
	MsgTypeLeaveRoom   = 103
	MsgTypeStartGame   = 104
	MsgTypeNightAction = 201
	MsgTypeDayVote     = 202
	MsgTypeMafiaChat   = 203
	MsgTypeSkipPhase   = 204
)

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, data []byte) error {
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func sendJSON(c *websocket.Conn, msgID uint16, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return send(c, msgID, data)
}

func main() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: "localhost:8080", Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 4 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			data := message[4:]
			log.Printf("<- RECV (ID: %d): %s", msgID, string(data))
		}
	}()

	log.Println("Commands:")
	log.Println("  create <name>      create a room")
	log.Println("  join <room> <name> join a room")
	log.Println("  start [bots]       start the game (host, optionally add bots)")
	log.Println("  act <target|skip>  submit night action")
	log.Println("  vote <target>      vote to eliminate (empty target abstains)")
	log.Println("  chat <text>        mafia night chat")
	log.Println("  skip               skip the current phase (host)")

	// Write loop
	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		default:
			text, _ := reader.ReadString('\n')
			fields := strings.Fields(strings.TrimSpace(text))
			if len(fields) == 0 {
				continue
			}

			var err error
			switch fields[0] {
			case "create":
				name := "Host"
				if len(fields) > 1 {
					name = fields[1]
				}
				err = sendJSON(c, MsgTypeCreateRoom, map[string]string{"name": name})
			case "join":
				if len(fields) < 2 {
					log.Println("usage: join <room> <name>")
					continue
				}
				name := ""
				if len(fields) > 2 {
					name = fields[2]
				}
				err = sendJSON(c, MsgTypeJoinRoom, map[string]string{"room_id": fields[1], "name": name})
			case "start":
				bots := 0
				if len(fields) > 1 {
					bots, _ = strconv.Atoi(fields[1])
				}
				err = sendJSON(c, MsgTypeStartGame, map[string]int{"bots": bots})
			case "act":
				if len(fields) < 2 {
					log.Println("usage: act <target|skip>")
					continue
				}
				err = sendJSON(c, MsgTypeNightAction, map[string]string{"target": fields[1]})
			case "vote":
				target := ""
				if len(fields) > 1 {
					target = fields[1]
				}
				err = sendJSON(c, MsgTypeDayVote, map[string]string{"target": target})
			case "chat":
				err = sendJSON(c, MsgTypeMafiaChat, map[string]string{"text": strings.Join(fields[1:], " ")})
			case "skip":
				err = send(c, MsgTypeSkipPhase, nil)
			case "leave":
				err = send(c, MsgTypeLeaveRoom, nil)
			default:
				log.Printf("unknown command %q", fields[0])
				continue
			}

			if err != nil {
				log.Println("Write error:", err)
				return
			}
			log.Printf("-> SENT: %s", fields[0])
		}
	}
}

// Host console client. Connects with the host role token, claims the
// bearer secret and forwards typed commands to the room.
package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"flag"
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
	MsgTypeClaimHost  = 100
	MsgTypeHostSecret = 101

	MsgTypeAdvancePhase = 110
	MsgTypeSkipTurn     = 111
	MsgTypeResetGame    = 113

	MsgTypeCreateTeam   = 120
	MsgTypeAssignPlayer = 121

	MsgTypeWingParticipation = 130
	MsgTypeAdjustScore       = 131
	MsgTypeRedoScoring       = 132

	MsgTypeMinigameAction = 140

	MsgTypePauseTimer  = 150
	MsgTypeResumeTimer = 151
	MsgTypeExtendTimer = 152

	MsgTypeSnapshot = 300
	MsgTypeError    = 301
)

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, data []byte) error {
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func sendJSON(c *websocket.Conn, msgID uint16, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return send(c, msgID, data)
}

func main() {
	addr := flag.String("addr", "localhost:8080", "server address")
	roleToken := flag.String("role-token", "", "host role token")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws", RawQuery: "role_token=" + url.QueryEscape(*roleToken)}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})
	secretCh := make(chan string, 1)

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

			switch msgID {
			case MsgTypeHostSecret:
				var event struct {
					Secret string `json:"secret"`
				}
				if err := json.Unmarshal(data, &event); err == nil {
					secretCh <- event.Secret
				}
				log.Println("<- Host secret received")
			case MsgTypeSnapshot:
				log.Printf("<- SNAPSHOT: %s", string(data))
			case MsgTypeError:
				log.Printf("<- ERROR: %s", string(data))
			default:
				log.Printf("<- RECV (ID: %d): %s", msgID, string(data))
			}
		}
	}()

	log.Println("Claiming host control...")
	if err := send(c, MsgTypeClaimHost, []byte{}); err != nil {
		log.Println("Write error:", err)
		return
	}

	var secret string
	select {
	case secret = <-secretCh:
	case <-time.After(3 * time.Second):
		log.Fatal("No host secret received, check the role token")
	}

	log.Println("Ready. Commands: advance | skip | reset | team <name> | assign <player> <team|-> | wing <player> <y|n> | adjust <team> <delta> | redo | answer <y|n> | next | pause | resume | extend <seconds>")

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
			fields := strings.Fields(text)
			if len(fields) == 0 {
				continue
			}

			if err := dispatch(c, secret, fields); err != nil {
				log.Println("Write error:", err)
				return
			}
		}
	}
}

func dispatch(c *websocket.Conn, secret string, fields []string) error {
	base := map[string]any{"secret": secret}

	switch fields[0] {
	case "advance":
		return sendJSON(c, MsgTypeAdvancePhase, base)
	case "skip":
		return sendJSON(c, MsgTypeSkipTurn, base)
	case "reset":
		return sendJSON(c, MsgTypeResetGame, base)
	case "team":
		if len(fields) < 2 {
			log.Println("Usage: team <name>")
			return nil
		}
		base["name"] = strings.Join(fields[1:], " ")
		return sendJSON(c, MsgTypeCreateTeam, base)
	case "assign":
		if len(fields) != 3 {
			log.Println("Usage: assign <player> <team|->")
			return nil
		}
		base["playerId"] = fields[1]
		if fields[2] == "-" {
			base["teamId"] = nil
		} else {
			base["teamId"] = fields[2]
		}
		return sendJSON(c, MsgTypeAssignPlayer, base)
	case "wing":
		if len(fields) != 3 {
			log.Println("Usage: wing <player> <y|n>")
			return nil
		}
		base["playerId"] = fields[1]
		base["ate"] = fields[2] == "y"
		return sendJSON(c, MsgTypeWingParticipation, base)
	case "adjust":
		if len(fields) != 3 {
			log.Println("Usage: adjust <team> <delta>")
			return nil
		}
		delta, err := strconv.Atoi(fields[2])
		if err != nil {
			log.Println("Delta must be a number")
			return nil
		}
		base["teamId"] = fields[1]
		base["delta"] = delta
		return sendJSON(c, MsgTypeAdjustScore, base)
	case "redo":
		return sendJSON(c, MsgTypeRedoScoring, base)
	case "answer":
		if len(fields) != 2 {
			log.Println("Usage: answer <y|n>")
			return nil
		}
		payload, _ := json.Marshal(map[string]bool{"correct": fields[1] == "y"})
		base["minigameId"] = "trivia"
		base["apiVersion"] = 1
		base["actionType"] = "answer"
		base["payload"] = json.RawMessage(payload)
		return sendJSON(c, MsgTypeMinigameAction, base)
	case "next":
		base["minigameId"] = "trivia"
		base["apiVersion"] = 1
		base["actionType"] = "nextTurn"
		base["payload"] = json.RawMessage(`{}`)
		return sendJSON(c, MsgTypeMinigameAction, base)
	case "pause":
		return sendJSON(c, MsgTypePauseTimer, base)
	case "resume":
		return sendJSON(c, MsgTypeResumeTimer, base)
	case "extend":
		if len(fields) != 2 {
			log.Println("Usage: extend <seconds>")
			return nil
		}
		seconds, err := strconv.Atoi(fields[1])
		if err != nil {
			log.Println("Seconds must be a number")
			return nil
		}
		base["seconds"] = seconds
		return sendJSON(c, MsgTypeExtendTimer, base)
	default:
		log.Printf("Unknown command: %s", fields[0])
		return nil
	}
}

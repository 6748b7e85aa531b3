package server

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/wbruntra/texas-holdem/internal/engine"
	"github.com/wbruntra/texas-holdem/internal/service"
	"github.com/wbruntra/texas-holdem/internal/table"
	"github.com/wbruntra/texas-holdem/internal/view"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

// Connection handles one websocket client: a request/response loop plus
// any number of snapshot subscriptions streamed back on the same socket.
type Connection struct {
	conn   *websocket.Conn
	svc    *service.Service
	logger *log.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}

	subsMu sync.Mutex
	subs   []*table.Subscription
}

func newConnection(conn *websocket.Conn, svc *service.Service, logger *log.Logger) *Connection {
	return &Connection{
		conn:   conn,
		svc:    svc,
		logger: logger.WithPrefix("conn").With("remote", conn.RemoteAddr().String()),
		done:   make(chan struct{}),
	}
}

// serve reads requests until the client goes away.
func (c *Connection) serve() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go c.pingLoop()

	for {
		var req Request
		if err := c.conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("read failed", "err", err)
			}
			return
		}
		if req.Op == "subscribe" {
			// Ack before the first streamed snapshot can go out.
			resp, sub := c.subscribe(req)
			c.write(resp)
			if sub != nil {
				go c.forward(sub)
			}
			continue
		}
		c.write(c.dispatch(req))
	}
}

func (c *Connection) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.subsMu.Lock()
		for _, sub := range c.subs {
			sub.Cancel()
		}
		c.subs = nil
		c.subsMu.Unlock()
		c.conn.Close()
	})
}

func (c *Connection) write(resp Response) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(resp); err != nil {
		c.logger.Debug("write failed", "err", err)
	}
}

func (c *Connection) dispatch(req Request) Response {
	switch req.Op {
	case "create_table":
		tableID, roomCode, err := c.svc.CreateTable(req.SmallBlind, req.BigBlind, req.StartingChips)
		if err != nil {
			return errResponse(req.Op, err)
		}
		resp := okResponse(req.Op)
		resp.TableID = tableID
		resp.RoomCode = roomCode
		return resp

	case "join_seat":
		seatID, token, err := c.svc.JoinSeat(req.RoomCode, req.Name, req.Credential)
		if err != nil {
			return errResponse(req.Op, err)
		}
		resp := okResponse(req.Op)
		resp.SeatID = seatID
		resp.Token = token
		return resp

	case "authenticate":
		token, tv, err := c.svc.AuthenticateSeat(req.RoomCode, req.Name, req.Credential)
		if err != nil {
			return errResponse(req.Op, err)
		}
		resp := c.snapshotResponse(req.Op, tv)
		resp.Token = token
		return resp

	case "start_hand":
		return c.viewOp(req.Op, func() (view.TableView, error) {
			return c.svc.StartHand(req.TableID)
		})

	case "action":
		return c.viewOp(req.Op, func() (view.TableView, error) {
			return c.svc.SubmitAction(req.Token, engine.ActionKind(req.Action), req.Amount)
		})

	case "advance_round":
		return c.viewOp(req.Op, func() (view.TableView, error) {
			return c.svc.AdvanceRound(req.TableID)
		})

	case "reveal_card":
		return c.viewOp(req.Op, func() (view.TableView, error) {
			return c.svc.RevealCard(req.TableID)
		})

	case "start_next_hand":
		return c.viewOp(req.Op, func() (view.TableView, error) {
			return c.svc.StartNextHand(req.TableID)
		})

	default:
		return Response{Op: req.Op, Error: "unknown op", Kind: "validation"}
	}
}

func (c *Connection) viewOp(op string, fn func() (view.TableView, error)) Response {
	tv, err := fn()
	if err != nil {
		return errResponse(op, err)
	}
	return c.snapshotResponse(op, tv)
}

func (c *Connection) snapshotResponse(op string, tv view.TableView) Response {
	resp := okResponse(op)
	resp.Snapshot = &tv
	return resp
}

// subscribe attaches a snapshot stream to this socket. Each revision
// arrives as an op:"snapshot" message; the stream ends when the client
// disconnects.
func (c *Connection) subscribe(req Request) (Response, *table.Subscription) {
	sub, err := c.svc.Subscribe(req.RoomCode, table.Stream(req.Stream), req.Token)
	if err != nil {
		return errResponse(req.Op, err), nil
	}

	c.subsMu.Lock()
	select {
	case <-c.done:
		c.subsMu.Unlock()
		sub.Cancel()
		return errResponse(req.Op, websocket.ErrCloseSent), nil
	default:
	}
	c.subs = append(c.subs, sub)
	c.subsMu.Unlock()
	return okResponse(req.Op), sub
}

func (c *Connection) forward(sub *table.Subscription) {
	for tv := range sub.C {
		snapshot := tv
		c.write(Response{Op: "snapshot", OK: true, Snapshot: &snapshot})
	}
}

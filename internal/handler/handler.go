package handler

import (
	"bufio"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nabbar/secop/internal/dispatcher"
	"github.com/nabbar/secop/pkg/proto"
)

// replyBuffer mirrors the dispatcher's own channel depth (spec §5: unbounded
// channels, approximated with a generous buffer throughout this repo).
const replyBuffer = 256

// Handler owns one accepted connection end to end.
type Handler struct {
	conn   net.Conn
	hid    dispatcher.HandlerID
	handle dispatcher.Handle
	reply  chan proto.Msg
	log    *logrus.Entry
}

// New builds a Handler. hid must be unique for the lifetime of the node.
func New(conn net.Conn, hid dispatcher.HandlerID, handle dispatcher.Handle, log *logrus.Entry) *Handler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Handler{
		conn:   conn,
		hid:    hid,
		handle: handle,
		reply:  make(chan proto.Msg, replyBuffer),
		log:    log.WithField("handler", hid).WithField("conn", uuid.NewString()),
	}
}

// Serve registers the connection with the dispatcher, runs the writer in its
// own goroutine, and runs the reader on the calling goroutine until the
// connection closes. It returns once both goroutines have finished.
func (h *Handler) Serve() {
	h.handle.Register(h.hid, h.reply)

	writerDone := make(chan struct{})
	go func() {
		h.writeLoop()
		close(writerDone)
	}()

	h.readLoop()

	h.handle.Unregister(h.hid)
	close(h.reply)
	<-writerDone
	_ = h.conn.Close()
}

func (h *Handler) readLoop() {
	scanner := bufio.NewScanner(h.conn)
	scanner.Buffer(make([]byte, 0, 4096), proto.MaxLineBytes)

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		h.handleLine(line)
	}
	if err := scanner.Err(); err != nil {
		h.log.WithError(err).Debug("connection read ended")
	}
}

func (h *Handler) handleLine(line string) {
	in, perr := proto.Parse(line)
	if perr != nil {
		h.sendDirect(proto.NewError(line, perr))
		return
	}

	switch in.Msg.Kind {
	case proto.KindPing:
		h.sendDirect(proto.NewPong(in.Msg.Token, nowTimestamp()))
	case proto.KindIdn:
		h.sendDirect(proto.NewIdnReply())
	default:
		h.handle.Send(h.hid, in)
	}
}

// sendDirect answers ping/*IDN? without a dispatcher round-trip, per spec
// §4.3; it still goes through the same reply channel as every other
// message, so the writer remains the sole owner of the write half.
func (h *Handler) sendDirect(msg proto.Msg) {
	select {
	case h.reply <- msg:
	default:
		h.log.Warn("reply channel full, dropping directly-answered message")
	}
}

func (h *Handler) writeLoop() {
	w := bufio.NewWriter(h.conn)
	for msg := range h.reply {
		line, err := proto.Format(msg)
		if err != nil {
			h.log.WithError(err).Error("failed to format outgoing message")
			continue
		}
		if _, err := w.WriteString(line); err != nil {
			return
		}
		if err := w.WriteByte('\n'); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}

func nowTimestamp() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

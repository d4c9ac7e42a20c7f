package loopback

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/nabbar/secop/internal/dispatcher"
	"github.com/nabbar/secop/internal/secoperr"
	"github.com/nabbar/secop/pkg/proto"
)

// DefaultTimeout is the reply-channel timeout used when a caller's context
// carries no deadline (spec §4.6).
const DefaultTimeout = 2 * time.Second

// Client is a loopback connection to one module, address-scoped the way
// spec §4.6 describes: `local://module`. Build with New, release with
// Close.
type Client struct {
	handle dispatcher.Handle
	hid    dispatcher.HandlerID
	module string
	reply  chan proto.Msg
}

// New parses address and builds a Client. hid must be a HandlerID not used
// by any other connection. Only the `local://module` scheme is bound here;
// `secop://...` (Open Question 2) returns a CommunicationFailed error
// immediately rather than attempting any wire framing — there is no
// remote-node dialect to speak yet. Any other scheme is a configuration
// error.
func New(address string, hid dispatcher.HandlerID, handle dispatcher.Handle) (*Client, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, secoperr.New(secoperr.KindConfig, "invalid client address %q: %v", address, err)
	}

	switch u.Scheme {
	case "local":
		module := u.Host
		if module == "" {
			module = trimLeadingSlash(u.Path)
		}
		if module == "" {
			return nil, secoperr.New(secoperr.KindConfig, "local:// client address requires a module name")
		}
		reply := make(chan proto.Msg, 16)
		handle.Register(hid, reply)
		return &Client{handle: handle, hid: hid, module: module, reply: reply}, nil

	case "secop":
		return nil, secoperr.Wrap(secoperr.KindCommunicationFailed, fmt.Errorf("remote node client not implemented"))

	default:
		return nil, secoperr.New(secoperr.KindConfig, "unsupported client scheme %q", u.Scheme)
	}
}

func trimLeadingSlash(path string) string {
	if len(path) > 0 && path[0] == '/' {
		return path[1:]
	}
	return path
}

// Close unregisters the client's reply channel, sending (hid, Quit) to the
// dispatcher just as a dropped connection would.
func (c *Client) Close() {
	c.handle.Unregister(c.hid)
}

// Ping round-trips a token through the dispatcher, mirroring a real
// connection's ping/pong (loopback has no local shortcut the way
// internal/handler does, per spec §4.6).
func (c *Client) Ping(ctx context.Context, token string) (float64, error) {
	msg, err := c.roundTrip(ctx, proto.Msg{Kind: proto.KindPing, Token: token})
	if err != nil {
		return 0, err
	}
	if msg.Kind != proto.KindPong {
		return 0, secoperr.New(secoperr.KindProtocol, "expected pong, got kind %d", msg.Kind)
	}
	return msg.Timestamp, nil
}

// Read reads one parameter's current value.
func (c *Client) Read(ctx context.Context, param string) (interface{}, error) {
	msg, err := c.roundTrip(ctx, proto.Msg{Kind: proto.KindRead, Module: c.module, Accessible: param})
	if err != nil {
		return nil, err
	}
	if msg.Kind == proto.KindError {
		return nil, secoperr.New(secoperr.KindBadValue, "%s", msg.Message)
	}
	if msg.Kind != proto.KindUpdate {
		return nil, secoperr.New(secoperr.KindProtocol, "expected update, got kind %d", msg.Kind)
	}
	return msg.Value, nil
}

// Change writes one parameter and returns the value the module actually
// stored.
func (c *Client) Change(ctx context.Context, param string, value interface{}) (interface{}, error) {
	msg, err := c.roundTrip(ctx, proto.Msg{Kind: proto.KindChange, Module: c.module, Accessible: param, Value: value})
	if err != nil {
		return nil, err
	}
	if msg.Kind == proto.KindError {
		return nil, secoperr.New(secoperr.KindBadValue, "%s", msg.Message)
	}
	if msg.Kind != proto.KindChanged {
		return nil, secoperr.New(secoperr.KindProtocol, "expected changed, got kind %d", msg.Kind)
	}
	return msg.Value, nil
}

// Do executes a command.
func (c *Client) Do(ctx context.Context, command string, arg interface{}) (interface{}, error) {
	msg, err := c.roundTrip(ctx, proto.Msg{Kind: proto.KindDo, Module: c.module, Accessible: command, Value: arg})
	if err != nil {
		return nil, err
	}
	if msg.Kind == proto.KindError {
		return nil, secoperr.New(secoperr.KindBadValue, "%s", msg.Message)
	}
	if msg.Kind != proto.KindDone {
		return nil, secoperr.New(secoperr.KindProtocol, "expected done, got kind %d", msg.Kind)
	}
	return msg.Value, nil
}

func (c *Client) roundTrip(ctx context.Context, out proto.Msg) (proto.Msg, error) {
	c.handle.Send(c.hid, proto.IncomingMsg{Msg: out})

	deadline := DefaultTimeout
	if dl, ok := ctx.Deadline(); ok {
		deadline = time.Until(dl)
	}

	select {
	case in := <-c.reply:
		return in, nil
	case <-ctx.Done():
		return proto.Msg{}, ctx.Err()
	case <-time.After(deadline):
		return proto.Msg{}, secoperr.New(secoperr.KindCommunicationFailed, "loopback client timed out waiting for a reply")
	}
}

package module

import (
	"github.com/nabbar/secop/internal/dispatcher"
	"github.com/nabbar/secop/internal/secoperr"
	"github.com/nabbar/secop/pkg/proto"
)

func (w *Worker) handleRequest(req dispatcher.Request) {
	hid := req.HID
	in := req.Msg

	switch in.Msg.Kind {
	case proto.KindRead:
		w.handleRead(hid, in)
	case proto.KindChange:
		w.handleChange(hid, in)
	case proto.KindDo:
		w.handleDo(hid, in)
	case proto.KindActivate:
		w.handleActivate(hid, in)
	default:
		w.log.WithField("kind", in.Msg.Kind).Warn("unexpected request reaching module worker")
	}
}

func (w *Worker) reply(hid dispatcher.HandlerID, msg proto.Msg) {
	w.handle.Reply(dispatcher.ModuleReply{HID: &hid, Msg: msg})
}

func (w *Worker) replyError(hid dispatcher.HandlerID, line string, err secoperr.Error) {
	w.reply(hid, proto.NewError(line, err))
}

func (w *Worker) handleRead(hid dispatcher.HandlerID, in proto.IncomingMsg) {
	param := in.Msg.Accessible
	if _, ok := w.params[param]; !ok {
		w.replyError(hid, in.Line, secoperr.NoSuchParameter(w.cfg.Name, param))
		return
	}
	value, err := w.hooks.Read(param)
	if err != nil {
		w.replyError(hid, in.Line, secoperr.Wrap(secoperr.KindCommunicationFailed, err))
		return
	}
	w.store(param, value)
	w.reply(hid, proto.NewUpdate(w.cfg.Name, param, value, w.cache[param].ts))
}

func (w *Worker) handleChange(hid dispatcher.HandlerID, in proto.IncomingMsg) {
	param := in.Msg.Accessible
	spec, ok := w.params[param]
	if !ok {
		w.replyError(hid, in.Line, secoperr.NoSuchParameter(w.cfg.Name, param))
		return
	}
	if spec.ReadOnly {
		w.replyError(hid, in.Line, secoperr.ReadOnly(w.cfg.Name, param))
		return
	}
	decoded, err := spec.Type.Decode(in.Msg.Value)
	if err != nil {
		w.replyError(hid, in.Line, secoperr.Wrap(secoperr.KindBadValue, err))
		return
	}

	var result interface{}
	if spec.SoftwareOnly {
		result = decoded
	} else {
		result, err = w.hooks.Change(param, decoded)
		if err != nil {
			w.replyError(hid, in.Line, secoperr.Wrap(secoperr.KindCommunicationFailed, err))
			return
		}
	}

	changed := w.store(param, result)
	ts := w.cache[param].ts
	w.reply(hid, proto.NewChanged(w.cfg.Name, param, result, ts))

	if param == "pollinterval" {
		w.reconfigureTickers(result)
	}
	if changed {
		w.broadcastUpdate(param, result, ts)
		if spec.SoftwareOnly {
			w.notifyUpdated(param, result)
		}
	}
}

func (w *Worker) handleDo(hid dispatcher.HandlerID, in proto.IncomingMsg) {
	command := in.Msg.Accessible
	spec, ok := w.cmds[command]
	if !ok {
		w.replyError(hid, in.Line, secoperr.NoSuchCommand(w.cfg.Name, command))
		return
	}

	arg := in.Msg.Value
	if spec.Arg != nil {
		decoded, err := spec.Arg.Decode(arg)
		if err != nil {
			w.replyError(hid, in.Line, secoperr.Wrap(secoperr.KindBadValue, err))
			return
		}
		arg = decoded
	}

	result, err := w.hooks.Do(command, arg)
	if err != nil {
		w.replyError(hid, in.Line, secoperr.Wrap(secoperr.KindCommunicationFailed, err))
		return
	}
	if spec.Result != nil {
		encoded, err := spec.Result.Encode(result)
		if err != nil {
			w.replyError(hid, in.Line, secoperr.Wrap(secoperr.KindProgramming, err))
			return
		}
		result = encoded
	}
	w.reply(hid, proto.NewDone(w.cfg.Name, command, result, nowTimestamp()))
}

// handleActivate answers the activate protocol's first phase: every
// currently-cached parameter as an Update, packaged as InitUpdates so the
// dispatcher can sequence the final `active` once it has heard back from
// every module involved (spec §4.4/§4.5).
func (w *Worker) handleActivate(hid dispatcher.HandlerID, in proto.IncomingMsg) {
	updates := make([]proto.Msg, 0, len(w.cfg.Params))
	for _, p := range w.cfg.Params {
		entry, ok := w.cache[p.Name]
		if !ok || !entry.ok {
			continue
		}
		updates = append(updates, proto.NewUpdate(w.cfg.Name, p.Name, entry.value, entry.ts))
	}
	w.handle.Reply(dispatcher.ModuleReply{
		HID:  &hid,
		Init: &dispatcher.InitUpdates{Module: in.Msg.Module, Updates: updates},
	})
}

func (w *Worker) broadcastUpdate(param string, value interface{}, ts float64) {
	w.handle.Reply(dispatcher.ModuleReply{Msg: proto.NewUpdate(w.cfg.Name, param, value, ts)})
}

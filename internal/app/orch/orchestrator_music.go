package orch

import (
	"github.com/dkeye/Valley/internal/app"
	"github.com/dkeye/Valley/internal/core"
)

func (o *Orchestrator) ToggleMusic(sid core.SessionID) {
	sess, ok := o.Registry.Get(sid)
	if !ok {
		o.sendError(sid, core.EvError, app.ErrNotJoined)
		return
	}
	if o.Radio == nil || !o.Radio.Toggle(sess.Room, sess.Username) {
		o.sendError(sid, core.EvError, core.ErrNoPlayback)
	}
}

func (o *Orchestrator) StopMusic(sid core.SessionID) {
	sess, ok := o.Registry.Get(sid)
	if !ok {
		o.sendError(sid, core.EvError, app.ErrNotJoined)
		return
	}
	if o.Radio == nil || !o.Radio.Stop(sess.Room, sess.Username) {
		o.sendError(sid, core.EvError, core.ErrNoPlayback)
	}
}

//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"errors"
	"sync"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// readTimeout bounds how long a paste waits for the selection owner.
const readTimeout = 2 * time.Second

var (
	initOnce sync.Once
	initErr  error
	backend  *x11Clipboard

	errTargetUnavailable = errors.New("clipboard target unavailable")
	errReadTimeout       = errors.New("clipboard owner did not answer")
)

func ensureInit() error {
	initOnce.Do(func() {
		if !hasDisplay() {
			initErr = errNoDisplay
			return
		}
		clip := &x11Clipboard{}
		if err := clip.initialize(); err != nil {
			initErr = err
			return
		}
		backend = clip
	})
	return initErr
}

func writePNG(data []byte) error {
	if err := ensureInit(); err != nil {
		return err
	}
	return backend.own(map[xproto.Atom][]byte{backend.atoms.png: data})
}

func readPNG() ([]byte, error) {
	if err := ensureInit(); err != nil {
		return nil, err
	}
	return backend.readSelection(backend.atoms.png)
}

func writeText(data []byte) error {
	if err := ensureInit(); err != nil {
		return err
	}
	a := backend.atoms
	return backend.own(map[xproto.Atom][]byte{a.utf8: data, xproto.AtomString: data, a.textPlain: data})
}

func readText() ([]byte, error) {
	if err := ensureInit(); err != nil {
		return nil, err
	}
	data, err := backend.readSelection(backend.atoms.utf8)
	if err != nil {
		return backend.readSelection(xproto.AtomString)
	}
	return data, nil
}

// x11Clipboard owns the CLIPBOARD selection through a hidden window and
// serves whatever was last offered.
type x11Clipboard struct {
	conn   *xgb.Conn
	window xproto.Window
	atoms  atomSet

	mu     sync.RWMutex
	offers map[xproto.Atom][]byte
}

type atomSet struct {
	clipboard xproto.Atom
	targets   xproto.Atom
	utf8      xproto.Atom
	textPlain xproto.Atom
	png       xproto.Atom
	property  xproto.Atom
}

func (c *x11Clipboard) initialize() error {
	conn, err := xgb.NewConn()
	if err != nil {
		return err
	}
	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return err
	}
	const eventMask = xproto.EventMaskPropertyChange | xproto.EventMaskStructureNotify
	if err := xproto.CreateWindowChecked(conn, screen.RootDepth, window, screen.Root, 0, 0, 1, 1, 0, xproto.WindowClassInputOutput, screen.RootVisual, xproto.CwEventMask, []uint32{eventMask}).Check(); err != nil {
		conn.Close()
		return err
	}
	atoms, err := internAtoms(conn)
	if err != nil {
		xproto.DestroyWindow(conn, window)
		conn.Close()
		return err
	}
	c.conn = conn
	c.window = window
	c.atoms = atoms
	go c.eventLoop()
	return nil
}

func internAtoms(conn *xgb.Conn) (atomSet, error) {
	names := []string{"CLIPBOARD", "TARGETS", "UTF8_STRING", "text/plain;charset=utf-8", "image/png", "STUDIO_CLIPBOARD"}
	cookies := make([]xproto.InternAtomCookie, len(names))
	for i, name := range names {
		cookies[i] = xproto.InternAtom(conn, false, uint16(len(name)), name)
	}
	atoms := make([]xproto.Atom, len(names))
	for i, ck := range cookies {
		reply, err := ck.Reply()
		if err != nil {
			return atomSet{}, err
		}
		atoms[i] = reply.Atom
	}
	return atomSet{
		clipboard: atoms[0],
		targets:   atoms[1],
		utf8:      atoms[2],
		textPlain: atoms[3],
		png:       atoms[4],
		property:  atoms[5],
	}, nil
}

func (c *x11Clipboard) own(offers map[xproto.Atom][]byte) error {
	copied := make(map[xproto.Atom][]byte, len(offers))
	for target, data := range offers {
		copied[target] = append([]byte(nil), data...)
	}
	c.mu.Lock()
	c.offers = copied
	c.mu.Unlock()
	return xproto.SetSelectionOwnerChecked(c.conn, c.window, c.atoms.clipboard, xproto.TimeCurrentTime).Check()
}

func (c *x11Clipboard) eventLoop() {
	for {
		ev, err := c.conn.WaitForEvent()
		if err != nil {
			return
		}
		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			c.answer(e)
		case xproto.SelectionClearEvent:
			c.mu.Lock()
			c.offers = nil
			c.mu.Unlock()
		}
	}
}

// answer replies to a paste request from another client.
func (c *x11Clipboard) answer(e xproto.SelectionRequestEvent) {
	property := e.Property
	if property == xproto.AtomNone {
		property = e.Target
	}

	c.mu.RLock()
	offers := c.offers
	c.mu.RUnlock()

	if e.Target == c.atoms.targets {
		targets := []xproto.Atom{c.atoms.targets}
		for target := range offers {
			targets = append(targets, target)
		}
		payload := atomsToBytes(targets)
		xproto.ChangeProperty(c.conn, xproto.PropModeReplace, e.Requestor, property, xproto.AtomAtom, 32, uint32(len(targets)), payload)
	} else if data, ok := offers[e.Target]; ok && len(data) > 0 {
		typ := e.Target
		if typ != c.atoms.png {
			typ = c.atoms.utf8
		}
		xproto.ChangeProperty(c.conn, xproto.PropModeReplace, e.Requestor, property, typ, 8, uint32(len(data)), data)
	} else {
		property = xproto.AtomNone
	}

	notify := xproto.SelectionNotifyEvent{
		Time:      e.Time,
		Requestor: e.Requestor,
		Selection: e.Selection,
		Target:    e.Target,
		Property:  property,
	}
	_ = xproto.SendEvent(c.conn, false, e.Requestor, 0, string(notify.Bytes()))
}

// readSelection asks the current owner for target on a fresh connection,
// so our own event loop can answer when we are the owner.
func (c *x11Clipboard) readSelection(target xproto.Atom) ([]byte, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, err
	}
	if err := xproto.CreateWindowChecked(conn, 0, window, screen.Root, 0, 0, 1, 1, 0, xproto.WindowClassInputOnly, 0, xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange}).Check(); err != nil {
		return nil, err
	}
	defer xproto.DestroyWindow(conn, window)

	if err := xproto.ConvertSelectionChecked(conn, window, c.atoms.clipboard, target, c.atoms.property, xproto.TimeCurrentTime).Check(); err != nil {
		return nil, err
	}

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		for {
			ev, err := conn.WaitForEvent()
			if err != nil {
				done <- result{err: err}
				return
			}
			e, ok := ev.(xproto.SelectionNotifyEvent)
			if !ok {
				continue
			}
			if e.Property == xproto.AtomNone {
				done <- result{err: errTargetUnavailable}
				return
			}
			if e.Property != c.atoms.property {
				continue
			}
			reply, perr := xproto.GetProperty(conn, true, window, c.atoms.property, xproto.GetPropertyTypeAny, 0, (1<<31)-1).Reply()
			if perr != nil {
				done <- result{err: perr}
				return
			}
			done <- result{data: append([]byte(nil), reply.Value...)}
			return
		}
	}()

	select {
	case r := <-done:
		return r.data, r.err
	case <-time.After(readTimeout):
		return nil, errReadTimeout
	}
}

func atomsToBytes(atoms []xproto.Atom) []byte {
	buf := make([]byte, len(atoms)*4)
	for i, atom := range atoms {
		xgb.Put32(buf[i*4:], uint32(atom))
	}
	return buf
}

package surface

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	notifyService   = "org.freedesktop.Notifications"
	notifyPath      = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyInterface = "org.freedesktop.Notifications.Notify"
)

// Notifier mirrors an indicator to desktop notifications over D-Bus. Each
// title update replaces the previous notification in place, so the desktop
// shows one live card per indicator instead of a stream.
type Notifier struct {
	conn      *dbus.Conn
	indicator string

	mu        sync.Mutex
	replaceID uint32
	image     string
}

func NewNotifier(indicator string) (*Notifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &Notifier{conn: conn, indicator: indicator}, nil
}

func (n *Notifier) Close() error {
	if n == nil || n.conn == nil {
		return nil
	}
	return n.conn.Close()
}

func (n *Notifier) SetTitle(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	obj := n.conn.Object(notifyService, notifyPath)
	call := obj.Call(notifyInterface, 0,
		"deckcal",
		n.replaceID,
		n.image,
		"deckcal "+n.indicator,
		text,
		[]string{},
		map[string]dbus.Variant{},
		int32(-1),
	)

	var id uint32
	if err := call.Store(&id); err != nil {
		return
	}
	n.replaceID = id
}

func (n *Notifier) SetImage(asset string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.image = asset
}

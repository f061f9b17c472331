package hsmsclient

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// Registry maps the "host:port" address of equipment to its connected client.
//
// A client built WithRegistry adds itself after a successful Connect and removes itself when the
// connection closes.
type Registry struct {
	clients *xsync.MapOf[string, *Client]
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{clients: xsync.NewMapOf[string, *Client]()}
}

// Add registers c under its address, replacing a previous client of the same address.
func (r *Registry) Add(c *Client) {
	r.clients.Store(c.Config().Address(), c)
}

// Remove unregisters c. A different client registered under the same address is left in place.
func (r *Registry) Remove(c *Client) {
	r.clients.Compute(c.Config().Address(), func(old *Client, loaded bool) (*Client, bool) {
		return old, !loaded || old == c
	})
}

// Get returns the client registered for host:port.
func (r *Registry) Get(address string) (*Client, bool) {
	return r.clients.Load(address)
}

// Range calls f for each registered client until f returns false.
func (r *Registry) Range(f func(address string, c *Client) bool) {
	r.clients.Range(f)
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	return r.clients.Size()
}

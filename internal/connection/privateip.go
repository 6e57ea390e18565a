package connection

import "fmt"

// privatePrefixes are the private ranges X-Forwarded-For addresses come from.
// "10" gets a random second octet so every family yields a /16.
var privatePrefixes = []string{"192.168", "10", "172.16"}

// randomPrivatePrefix picks the subnet the connection claims to forward for
func (c *Connection) randomPrivatePrefix() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := privatePrefixes[c.rng.Intn(len(privatePrefixes))]
	if prefix == "10" {
		prefix = fmt.Sprintf("%s.%d", prefix, c.rng.Intn(256))
	}
	return prefix
}

// PrivatePrefix returns the /16 chosen when the connection was created
func (c *Connection) PrivatePrefix() string {
	return c.privatePrefix
}

// RandomPrivateIP returns a fresh address inside the connection's private
// prefix. The third octet is in [0,255], the fourth in [1,253].
func (c *Connection) RandomPrivateIP() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return fmt.Sprintf("%s.%d.%d", c.privatePrefix, c.rng.Intn(256), c.rng.Intn(253)+1)
}

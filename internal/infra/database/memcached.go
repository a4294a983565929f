package database

import (
	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
)

// NewMemcached returns a client for the prediction cache after checking the
// server answers.
func NewMemcached(server string) (*memcache.Client, error) {
	client := memcache.New(server)
	client.Timeout = pingTimeout
	client.MaxIdleConns = 8

	err := client.Ping()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to ping memcached at %s", server)
	}
	return client, nil
}

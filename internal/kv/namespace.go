package kv

import "strings"

// DefaultNamespace is the versioned prefix every termtodo key is stored under.
const DefaultNamespace = "termtodo:v1:"

type prefixRemover interface {
	RemovePrefix(prefix string) error
}

// Namespaced scopes a Store to keys beginning with a prefix. Keys passed in and
// returned are unprefixed. Clear only touches keys inside the namespace.
type Namespaced struct {
	inner  Store
	prefix string
}

// Namespace wraps s so every key is stored as prefix+key.
func Namespace(s Store, prefix string) *Namespaced {
	return &Namespaced{inner: s, prefix: prefix}
}

// Prefix returns the namespace prefix.
func (n *Namespaced) Prefix() string { return n.prefix }

func (n *Namespaced) Get(key string) (string, bool, error) {
	return n.inner.Get(n.prefix + key)
}

func (n *Namespaced) Set(key, value string) error {
	return n.inner.Set(n.prefix+key, value)
}

func (n *Namespaced) Remove(key string) error {
	return n.inner.Remove(n.prefix + key)
}

func (n *Namespaced) Clear() error {
	if pr, ok := n.inner.(prefixRemover); ok {
		return pr.RemovePrefix(n.prefix)
	}
	keys, err := n.inner.Keys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if !strings.HasPrefix(k, n.prefix) {
			continue
		}
		if err := n.inner.Remove(k); err != nil {
			return err
		}
	}
	return nil
}

func (n *Namespaced) Keys() ([]string, error) {
	all, err := n.inner.Keys()
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, k := range all {
		if strings.HasPrefix(k, n.prefix) {
			keys = append(keys, strings.TrimPrefix(k, n.prefix))
		}
	}
	return keys, nil
}

func (n *Namespaced) Close() error {
	return n.inner.Close()
}

// Package cache provides a reference-counted cache for shared GPU objects.
//
// # RefCache[K, V]
//
// Values are created on first use and destroyed when their last user
// releases them. Binding layouts use it so that programs with identical
// signatures share one native bind group layout and pipeline layout:
//
//	c := cache.New[string, *Native]()
//	n, err := c.Acquire(key, func() (*Native, error) { return build() })
//	...
//	c.Release(key, destroyNative)
//
// # Thread Safety
//
// RefCache is safe for concurrent use and must not be copied after
// creation (it contains a mutex). Destroy callbacks run outside the lock.
package cache

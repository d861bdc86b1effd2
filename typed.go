package tablekv

import (
	"encoding/json"
	"time"
)

// Typed wraps a Store with JSON serialization for one value type. It is a
// thin overlay: keys, TTLs, and atomicity all behave exactly as on the
// underlying Store; codec failures surface as Serialization errors.
type Typed[T any] struct {
	store *Store
}

// TypedItem pairs a key with a decoded value.
type TypedItem[T any] struct {
	Key   string `json:"key"`
	Value T      `json:"value"`
}

// NewTyped returns a typed view over store.
func NewTyped[T any](store *Store) *Typed[T] {
	return &Typed[T]{store: store}
}

// Store returns the underlying Store.
func (t *Typed[T]) Store() *Store { return t.store }

// Get returns the decoded value for key. ok is false on a miss.
func (t *Typed[T]) Get(key string) (value T, ok bool, err error) {
	raw, ok, err := t.store.Get(key)
	if err != nil || !ok {
		return value, ok, err
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		var zero T
		return zero, false, serializationErr(err)
	}
	return value, true, nil
}

// GetOrErr is Get with absence mapped to a NotFound error.
func (t *Typed[T]) GetOrErr(key string) (T, error) {
	value, ok, err := t.Get(key)
	if err != nil {
		return value, err
	}
	if !ok {
		var zero T
		return zero, notFoundErr(key)
	}
	return value, nil
}

// Set encodes value as JSON and stores it under key.
func (t *Typed[T]) Set(key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return serializationErr(err)
	}
	return t.store.Set(key, raw)
}

// SetEx is Set with an expiration.
func (t *Typed[T]) SetEx(key string, value T, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return serializationErr(err)
	}
	return t.store.SetEx(key, raw, ttl)
}

// SetNX stores the encoded value only if the key is absent.
func (t *Typed[T]) SetNX(key string, value T) (bool, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return false, serializationErr(err)
	}
	return t.store.SetNX(key, raw)
}

// SetNXEx is SetNX with an expiration.
func (t *Typed[T]) SetNXEx(key string, value T, ttl time.Duration) (bool, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return false, serializationErr(err)
	}
	return t.store.SetNXEx(key, raw, ttl)
}

// GetMany returns decoded values for the keys that exist and are live.
func (t *Typed[T]) GetMany(keys []string) ([]TypedItem[T], error) {
	kvs, err := t.store.GetMany(keys)
	if err != nil {
		return nil, err
	}
	return decodeItems[T](kvs)
}

// SetMany writes all items in one atomic batch.
func (t *Typed[T]) SetMany(items []TypedItem[T]) error {
	encoded := make([]KeyValue, 0, len(items))
	for _, item := range items {
		raw, err := json.Marshal(item.Value)
		if err != nil {
			return serializationErr(err)
		}
		encoded = append(encoded, KeyValue{Key: item.Key, Value: raw})
	}
	return t.store.SetMany(encoded)
}

// Scan returns decoded key-value pairs matching opts.
func (t *Typed[T]) Scan(opts ScanOptions) ([]TypedItem[T], error) {
	kvs, err := t.store.Scan(opts)
	if err != nil {
		return nil, err
	}
	return decodeItems[T](kvs)
}

// GetAndSet stores the encoded value and returns the decoded previous one.
func (t *Typed[T]) GetAndSet(key string, value T) (old T, ok bool, err error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return old, false, serializationErr(err)
	}
	prev, ok, err := t.store.GetAndSet(key, raw)
	if err != nil || !ok {
		return old, ok, err
	}
	if err := json.Unmarshal(prev, &old); err != nil {
		var zero T
		return zero, false, serializationErr(err)
	}
	return old, true, nil
}

// GetAndDelete removes key and returns the decoded value it held.
func (t *Typed[T]) GetAndDelete(key string) (old T, ok bool, err error) {
	prev, ok, err := t.store.GetAndDelete(key)
	if err != nil || !ok {
		return old, ok, err
	}
	if err := json.Unmarshal(prev, &old); err != nil {
		var zero T
		return zero, false, serializationErr(err)
	}
	return old, true, nil
}

func decodeItems[T any](kvs []KeyValue) ([]TypedItem[T], error) {
	out := make([]TypedItem[T], 0, len(kvs))
	for _, kv := range kvs {
		var value T
		if err := json.Unmarshal(kv.Value, &value); err != nil {
			return nil, serializationErr(err)
		}
		out = append(out, TypedItem[T]{Key: kv.Key, Value: value})
	}
	return out, nil
}

// Package registry provides a generic, insertion-ordered, concurrency-safe
// map.
//
// pulse uses it where arrival order or first-wins registration matters: the
// client assembles its integrations in one (explicit instances, then
// factory-built ones, rejecting duplicate keys), and the process-wide set of
// live client tags is another.
//
//	integrations := registry.New[string, integration.Integration]()
//	integrations.Add("Redis", redisSink)     // true
//	integrations.Add("Redis", otherSink)     // false, first wins
//	integrations.Values()                    // [redisSink]
//
// Register overwrites a value without moving its key.
package registry

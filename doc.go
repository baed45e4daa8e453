// Package weakref implements self-expiring containers, which hold their
// entries via weak references. A container is never the reason an entry stays
// reachable. Dead entries are pruned by the container itself, on a schedule
// driven by garbage collection cycles.
//
// # Containers
//
//   - [Slot]: a single weak reference
//   - [List]: an ordered sequence of weakly-held elements
//   - [ValueMap]: strong keys, weak values
//   - [KeyMap]: weak keys, strong values
//   - [Map]: weak keys and values
//   - [BucketMap]: strong keys, to buckets of weak values
//   - [WeakBucketMap]: weak keys, to buckets of weak values
//
// # Cleanup
//
// Each container embeds a [Listener], which receives a pulse after each GC
// cycle, and runs the container's cleanup on qualifying pulses. By default,
// every pulse qualifies. See [WithCycles] and [WithTicks].
//
// Cleanup removes entries that were found dead, and releases the transient
// strong references established by reads, e.g. [Slot.Value] or [List.At]. A
// read therefore keeps the target alive until at least the next cleanup.
// Lookups such as [List.Contains], and enumeration, do not affect lifetimes.
//
// Pulses never block. If a container is locked when a pulse arrives, that
// pulse is skipped, meaning Len may overstate the number of live entries, for
// a time. Use LiveLen for an exact count.
//
// # Thread Safety
//
// All containers are safe for concurrent use. Callbacks (predicates and
// comparers) are called with the container locked, and must not call back
// into the same container.
package weakref

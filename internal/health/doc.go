// Package health implements a generic probe-based self-healing loop. Any
// dependency can register a named probe; when a probe's consecutive
// failures reach a threshold the loop triggers the probe's recovery
// action, bounded by a cooldown so a flapping dependency never causes a
// recovery storm.
package health

/*
Package counters decides which named data points a provider program may fetch.

Selections are dotted hierarchical tokens with an optional modifier:

	a.b.c    allow exactly this node
	a.b+     allow a.b and everything below it
	a.b-     deny a.b and everything below it
	+        allow everything that is not denied
	--auto-- allow everything

An empty selection allows everything. A Set is built once per pass and is
read-only afterwards.
*/
package counters

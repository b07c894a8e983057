/*
Package options resolves layered HTTP behaviour settings.

A Tree holds global settings plus a perDomain section keyed by domain
matchers. Matchers are tried in insertion order:

	example.com      exact host (always checked first)
	.example.com     the host and all of its subdomains
	/^api\d+\./      case-insensitive regular expression

Merging follows a simple rule set: null deletes, objects recurse and
everything else (arrays included) replaces the previous value.
*/
package options

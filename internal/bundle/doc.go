// Package bundle reads provider packages.
//
// A bundle is a directory or zip archive with an anybalance-manifest.xml at
// its root. The manifest names the provider, lists the js files that make
// up its program and points at the preferences screen and icon.
package bundle

// Package integrationtests exercises pagegrid end to end: discovery of the
// built-in organisms, the HTTP editing flow and live sync, through the same
// entrypoints the binary uses.
package integrationtests

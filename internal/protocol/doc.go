// Package protocol defines the path literals, permission codes and payload
// encoding shared by the watch and the paired handheld.
package protocol

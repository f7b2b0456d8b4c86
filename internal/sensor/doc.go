// Package sensor provides the relay's sensor manager and heart-rate sources.
package sensor

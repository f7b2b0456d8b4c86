// Package platform declares the host services the relay depends on: node
// discovery, message delivery, data sync, sensors and runtime permissions.
//
// A controller takes part by implementing the listener interfaces it needs;
// the relay ships its own implementations of the services in hub, sensor,
// permission and service.
package platform

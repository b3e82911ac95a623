// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing inbound events and scripted backends. They
// are not intended for production usage.
package testutil

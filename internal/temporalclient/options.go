// Package temporalclient connects to Temporal and runs the assistant
// workflows on behalf of the calculator.
//
// Connection settings come from the SDK's envconfig contrib package
// (TEMPORAL_ADDRESS, TEMPORAL_NAMESPACE, TEMPORAL_TLS_*, or a profile in
// the Temporal config file), with optional overrides from smartcalc's own
// configuration.
package temporalclient

import (
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/contrib/envconfig"
)

// LoadClientOptions loads Temporal client options using the envconfig system.
// Non-empty hostPortOverride and namespaceOverride replace the loaded values.
func LoadClientOptions(hostPortOverride, namespaceOverride string) (client.Options, error) {
	opts, err := envconfig.LoadClientOptions(envconfig.LoadClientOptionsRequest{})
	if err != nil {
		return client.Options{}, err
	}

	if hostPortOverride != "" {
		opts.HostPort = hostPortOverride
	}
	if namespaceOverride != "" {
		opts.Namespace = namespaceOverride
	}
	return opts, nil
}

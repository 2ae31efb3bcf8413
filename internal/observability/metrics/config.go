package metrics

// Config scopes metric instruments to a service identity.
type Config struct {
	ServiceName string
	Environment string
}

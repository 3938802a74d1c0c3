package registry

// Service is the interface for every long-running component started by the locator
type Service interface {
	Start() error
	Stop() error
}

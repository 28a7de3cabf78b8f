// Package linker places files into profile directories.
package linker

// Linker deploys and undeploys files into a profile directory
type Linker interface {
	Deploy(src, dst string) error
	Undeploy(dst string) error
	IsDeployed(dst string) (bool, error)
}

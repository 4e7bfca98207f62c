package message

// Trigger asks a running deployer to deploy a build directory.
type Trigger struct {
	Environment string `json:"environment"`
	BuildPath   string `json:"build_path"`
	Message     string `json:"message,omitempty"`
}

package types

// Sentinel records the configuration an image was pre-baked with.
// Bootstrap consumers treat the file's existence as "skip full setup".
type Sentinel struct {
	InstanceID     string `json:"instanceId" yaml:"instanceId"`
	APILevel       int    `json:"apiLevel" yaml:"apiLevel"`
	Arch           string `json:"arch" yaml:"arch"`
	SystemImageRef string `json:"systemImageRef" yaml:"systemImageRef"`
}

package supervisor

import (
	"fmt"
	"path/filepath"

	"github.com/projecteru2/prebake/utils"
)

// VerifySnapshot checks that the snapshot directory exists. Its contents are
// not inspected. On failure the parent directory is listed for diagnosis.
func VerifySnapshot(dir string) error {
	if utils.IsDir(dir) {
		return nil
	}
	return fail(ErrSnapshotMissing,
		fmt.Sprintf("expected snapshot directory %s", dir),
		utils.ListDir(filepath.Dir(dir)))
}

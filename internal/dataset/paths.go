package dataset

import (
	"fmt"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// shardBuckets bounds how many sibling directories a dataset's block
// files are spread across, so a dataset with many parameters/slices
// never puts an unmanageable number of entries in one directory.
const shardBuckets = 256

// BlockFilePath returns the on-disk path for one (dataset, parameter,
// axis, slice) block file under root, sharded by a hash of the path
// components into shardBuckets subdirectories.
func BlockFilePath(root, datasetID, parameter, axisName string, sliceIndex int) string {
	key := fmt.Sprintf("%s/%s/%s/%d", datasetID, parameter, axisName, sliceIndex)
	shard := xxhash.Sum64String(key) % shardBuckets
	name := fmt.Sprintf("%s.%s.%s.%d.block", datasetID, parameter, axisName, sliceIndex)
	return filepath.Join(root, fmt.Sprintf("shard-%03d", shard), name)
}

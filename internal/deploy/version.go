package deploy

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/eteu-technologies/s3-deployer/internal/config"
)

// HashFunc returns the short source-control hash of the build, or an empty
// string when none is available.
type HashFunc func(ctx context.Context) (string, error)

// VersionResolver turns the versioning switches into a version tag.
type VersionResolver struct {
	Versioning config.Versioning
	Hash       HashFunc
	Now        func() time.Time
}

// Resolve computes the version for run. With versioning disabled the run is
// left unversioned and callers must use bare keys.
func (vr *VersionResolver) Resolve(ctx context.Context, run *Run) (err error) {
	v := vr.Versioning
	run.Version = ""
	run.Versioned = false

	if !v.Enabled {
		return
	}

	if v.Custom != "" {
		run.Version = v.Custom
		run.Versioned = true
		return
	}

	if !v.Timestamp && !v.GitHash {
		err = fmt.Errorf("%w: versioning is enabled, but git-hash, timestamp and custom are all unset", ErrVersioningMisconfigured)
		return
	}

	version := ""
	if v.Timestamp {
		now := time.Now
		if vr.Now != nil {
			now = vr.Now
		}
		run.Timestamp = now().Unix()
		version += strconv.FormatInt(run.Timestamp, 10)
	}

	if v.GitHash {
		var hash string
		if vr.Hash != nil {
			if hash, err = vr.Hash(ctx); err != nil {
				err = fmt.Errorf("%w: %v", ErrVersionUnavailable, err)
				return
			}
		}
		if hash == "" {
			err = fmt.Errorf("%w: git hash was not found", ErrVersionUnavailable)
			return
		}
		run.GitHash = hash
		if v.Timestamp {
			version += "-"
		}
		version += hash
	}

	run.Version = version
	run.Versioned = true
	return
}

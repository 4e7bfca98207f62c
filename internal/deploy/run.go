package deploy

import (
	"time"

	"github.com/google/uuid"
)

type Stage int

const (
	StageSelectingEnvironment Stage = iota
	StageResolvingVersion
	StageWritingArtifacts
	StagePlanningUpload
	StageUploading
	StageInvalidating
	StageNotifying
	StageDone
	StageAborted
)

var stageNames = map[Stage]string{
	StageSelectingEnvironment: "selecting environment",
	StageResolvingVersion:     "resolving version",
	StageWritingArtifacts:     "writing artifacts",
	StagePlanningUpload:       "planning upload",
	StageUploading:            "uploading",
	StageInvalidating:         "invalidating",
	StageNotifying:            "notifying",
	StageDone:                 "done",
	StageAborted:              "aborted",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Run is the state of a single deploy. It is created when the pipeline starts
// and handed by pointer to every stage.
type Run struct {
	ID        string
	StartedAt time.Time
	Stage     Stage

	Environment   string
	BuildPath     string
	Version       string
	Versioned     bool
	GitHash       string
	Timestamp     int64
	DeployMessage string

	Plan     []PlanEntry
	Uploaded int
}

func newRun(buildPath string, now time.Time) *Run {
	return &Run{
		ID:        uuid.NewString(),
		StartedAt: now,
		Stage:     StageSelectingEnvironment,
		BuildPath: buildPath,
	}
}

// CallerReference is unique per run so distinct deploys never collapse into
// one invalidation on the provider side.
func (r *Run) CallerReference() string {
	ts := r.Timestamp
	if ts == 0 {
		ts = r.StartedAt.Unix()
	}
	return fmtCallerReference(ts, r.ID)
}

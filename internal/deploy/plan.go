package deploy

import (
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

const defaultContentType = "application/octet-stream"

type PlanEntry struct {
	SourcePath     string
	RelativePath   string
	DestinationKey string
	ContentType    string
}

// DestinationKey returns the object key for a file relative to the build
// directory. The entry document is never prefixed.
func DestinationKey(relPath, entryHTML, version string, versioned bool) string {
	if relPath == path.Clean(entryHTML) || !versioned {
		return relPath
	}
	return version + "/" + relPath
}

func contentTypeOf(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return defaultContentType
}

// UploadPlanner enumerates the build directory.
type UploadPlanner struct {
	PathGlob        string
	EntryHTML       string
	IncludeDotfiles bool
}

// hidden reports whether any segment of a slash separated path is a dotfile.
func hidden(rel string) bool {
	for _, segment := range strings.Split(rel, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}

// Plan lists the files to upload for run in lexical order.
func (p *UploadPlanner) Plan(run *Run) (entries []PlanEntry, err error) {
	var matches []string
	if matches, err = doublestar.Glob(os.DirFS(run.BuildPath), p.PathGlob, doublestar.WithFilesOnly()); err != nil {
		err = fmt.Errorf("failed to enumerate %s: %w", run.BuildPath, err)
		return
	}

	entries = make([]PlanEntry, 0, len(matches))
	sort.Strings(matches)
	for _, rel := range matches {
		if path.Base(rel) == sourceSidecarName(p.EntryHTML) {
			continue
		}
		if !p.IncludeDotfiles && hidden(rel) {
			zap.L().Debug("skipping dotfile", zap.String("file", rel))
			continue
		}
		entries = append(entries, PlanEntry{
			SourcePath:     filepath.Join(run.BuildPath, filepath.FromSlash(rel)),
			RelativePath:   rel,
			DestinationKey: DestinationKey(rel, p.EntryHTML, run.Version, run.Versioned),
			ContentType:    contentTypeOf(rel),
		})
	}

	if len(entries) == 0 {
		err = fmt.Errorf("%w: nothing in %s matches %q", ErrNoFilesFound, run.BuildPath, p.PathGlob)
		entries = nil
		return
	}

	return
}

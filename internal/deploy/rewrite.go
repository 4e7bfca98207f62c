package deploy

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/zeebo/blake3"
)

var (
	assetRefPattern = regexp.MustCompile(`(?i)\b(src|href)=("([^"]*)"|'([^']*)')`)
	schemePattern   = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*:`)
	versionedExts   = []string{".js", ".css"}
)

// replaceAllGroupFunc is regexp.ReplaceAllStringFunc with access to the
// submatches. Groups that did not participate in the match are empty.
func replaceAllGroupFunc(re *regexp.Regexp, str string, repl func([]string) string) string {
	var result strings.Builder
	lastIndex := 0

	for _, v := range re.FindAllStringSubmatchIndex(str, -1) {
		groups := make([]string, 0, len(v)/2)
		for i := 0; i < len(v); i += 2 {
			if v[i] < 0 {
				groups = append(groups, "")
				continue
			}
			groups = append(groups, str[v[i]:v[i+1]])
		}

		result.WriteString(str[lastIndex:v[0]])
		result.WriteString(repl(groups))
		lastIndex = v[1]
	}

	result.WriteString(str[lastIndex:])
	return result.String()
}

// versionedRef returns the path re-rooted under the version folder, or false
// when the reference must be left alone.
func versionedRef(ref, version string) (string, bool) {
	if schemePattern.MatchString(ref) || strings.HasPrefix(ref, "//") || strings.HasPrefix(ref, "../") {
		return "", false
	}

	lower := strings.ToLower(ref)
	matched := false
	for _, ext := range versionedExts {
		if strings.HasSuffix(lower, ext) {
			matched = true
			break
		}
	}
	if !matched {
		return "", false
	}

	rest := strings.TrimPrefix(ref, "./")
	rest = strings.TrimPrefix(rest, "/")
	if rest == "" || strings.HasPrefix(rest, "../") {
		return "", false
	}

	return "/" + version + "/" + rest, true
}

// RewriteEntry prefixes the relative script and stylesheet references of an
// entry document with the version folder.
func RewriteEntry(content, version string) (out string, rewritten int) {
	out = replaceAllGroupFunc(assetRefPattern, content, func(groups []string) string {
		attr, quoted := groups[1], groups[2]
		quote := quoted[:1]
		ref := groups[3]
		if quote == "'" {
			ref = groups[4]
		}

		target, ok := versionedRef(ref, version)
		if !ok {
			return groups[0]
		}

		rewritten++
		return attr + "=" + quote + target + quote
	})
	return
}

// sourceSidecarName is the file next to the entry document holding its
// unversioned content, so a second run rewrites the build output and not its
// own previous result.
func sourceSidecarName(entryHTML string) string {
	return "." + path.Base(entryHTML) + ".unversioned"
}

// readSource returns the unversioned entry document. The sidecar is only
// trusted while the entry still holds exactly the output it was written with;
// a fresh build replaces the entry and invalidates it.
func readSource(entryPath, sidecarPath string) (source []byte, err error) {
	var current []byte
	if current, err = ioutil.ReadFile(entryPath); err != nil {
		return
	}

	sidecar, serr := ioutil.ReadFile(sidecarPath)
	if serr != nil {
		source = current
		return
	}

	digest, pristine, ok := bytes.Cut(sidecar, []byte("\n"))
	sum := blake3.Sum256(current)
	if ok && string(digest) == hex.EncodeToString(sum[:]) {
		source = pristine
		return
	}

	source = current
	return
}

// RewriteEntryFile applies RewriteEntry to the file at path in place. The
// unversioned content is kept in a sidecar so repeated runs on the same
// build directory never stack version prefixes.
func RewriteEntryFile(entryPath, version string) (rewritten int, err error) {
	var info os.FileInfo
	if info, err = os.Stat(entryPath); err != nil {
		err = fmt.Errorf("%w: %v", ErrRewriteFailed, err)
		return
	}

	sidecarPath := filepath.Join(filepath.Dir(entryPath), sourceSidecarName(filepath.Base(entryPath)))

	var source []byte
	if source, err = readSource(entryPath, sidecarPath); err != nil {
		err = fmt.Errorf("%w: %v", ErrRewriteFailed, err)
		return
	}

	var out string
	out, rewritten = RewriteEntry(string(source), version)

	sum := blake3.Sum256([]byte(out))
	sidecar := append([]byte(hex.EncodeToString(sum[:])+"\n"), source...)
	if err = ioutil.WriteFile(sidecarPath, sidecar, info.Mode().Perm()); err != nil {
		err = fmt.Errorf("%w: %v", ErrRewriteFailed, err)
		return
	}

	if err = ioutil.WriteFile(entryPath, []byte(out), info.Mode().Perm()); err != nil {
		err = fmt.Errorf("%w: %v", ErrRewriteFailed, err)
		return
	}

	return
}

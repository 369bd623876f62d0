package version

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"
)

// File2BQVersion is the semver of file2bq
type File2BQVersion struct {
	major int
	minor int
	patch int
	name  string
}

func NewFile2BQVersion() *File2BQVersion {
	return &File2BQVersion{
		major: File2BQVerMajor,
		minor: File2BQVerMinor,
		patch: File2BQVerPatch,
		name:  File2BQVerName,
	}
}

// SemVer returns the version in semver format
func (v *File2BQVersion) SemVer() string {
	return fmt.Sprintf("v%d.%d.%d", v.major, v.minor, v.patch)
}

func (v *File2BQVersion) String() string {
	build := NewFile2BQBuildInfo()
	return fmt.Sprintf("%s %s\nGo Version: %s\nGit Ref: %s\nGit Hash: %s",
		v.name, v.SemVer(), build.GoVersion, build.GitRef, build.GitHash)
}

// File2BQBuild is the info of building environment
type File2BQBuild struct {
	GitHash   string `json:"gitHash"`
	GitRef    string `json:"gitRef"`
	GoVersion string `json:"goVersion"`
}

func NewFile2BQBuildInfo() *File2BQBuild {
	return &File2BQBuild{
		GitHash:   GitHash,
		GitRef:    GitRef,
		GoVersion: runtime.Version(),
	}
}

// LogFields returns the version as log fields, logged once per run.
func LogFields() []zap.Field {
	build := NewFile2BQBuildInfo()
	return []zap.Field{
		zap.String("release-version", NewFile2BQVersion().SemVer()),
		zap.String("git-hash", build.GitHash),
		zap.String("git-ref", build.GitRef),
		zap.String("go-version", build.GoVersion),
	}
}

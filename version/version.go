package version

// Set through -ldflags "-X github.com/pingcap-inc/file2bq/version.GitHash=..." at build time.
var (
	File2BQVerMajor = 0
	File2BQVerMinor = 1
	File2BQVerPatch = 0
	File2BQVerName  = "file2bq"
	GitHash         = "Unknown"
	GitRef          = "Unknown"
)

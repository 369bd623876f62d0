package utils

import (
	"strings"

	"github.com/pingcap/errors"
)

// SplitTableFQN splits a qualified table name into dataset and table name
// e.g. "mydataset.mytable" -> "mydataset", "mytable"
// A bare table name returns an empty dataset.
// Note: this function does not check if the input is a valid table name
func SplitTableFQN(tableFQN string) (string, string) {
	parts := strings.SplitN(tableFQN, ".", 2)
	if len(parts) < 2 {
		return "", tableFQN
	}
	return parts[0], parts[1]
}

// ParseTableName accepts "table" or "dataset.table". Anything with more
// parts, such as "project.dataset.table", or an empty part is rejected.
func ParseTableName(name string) (string, string, error) {
	if strings.Count(name, ".") > 1 {
		return "", "", errors.Errorf("invalid table name %q, expected <table> or <dataset>.<table>", name)
	}
	dataset, table := SplitTableFQN(name)
	if table == "" || (strings.Contains(name, ".") && dataset == "") {
		return "", "", errors.Errorf("invalid table name %q, expected <table> or <dataset>.<table>", name)
	}
	return dataset, table, nil
}

// NormalizeGCSURI rewrites the gcs:// scheme to gs://, the only one BigQuery accepts.
func NormalizeGCSURI(uri string) string {
	if strings.HasPrefix(uri, "gcs://") {
		return "gs://" + strings.TrimPrefix(uri, "gcs://")
	}
	return uri
}

func IsGCSURI(uri string) bool {
	return strings.HasPrefix(uri, "gs://") || strings.HasPrefix(uri, "gcs://")
}

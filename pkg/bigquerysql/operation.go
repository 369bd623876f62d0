package bigquerysql

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"github.com/pingcap-inc/file2bq/pkg/coreinterfaces"
	"github.com/pingcap-inc/file2bq/pkg/errno"
	"github.com/pingcap/errors"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// reasonInvalid is the BigQuery error reason of a malformed request.
// https://cloud.google.com/bigquery/docs/error-messages
const reasonInvalid = "invalid"

func isNotFoundErr(err error) bool {
	e, ok := errors.Cause(err).(*googleapi.Error)
	return ok && e.Code == http.StatusNotFound
}

func checkTableExists(ctx context.Context, client *bigquery.Client, datasetID, tableID string) (bool, error) {
	tableRef := client.Dataset(datasetID).Table(tableID)
	_, err := tableRef.Metadata(ctx)
	if err != nil {
		if isNotFoundErr(err) {
			return false, nil
		}
		return false, errors.Trace(err)
	}
	// It means table exists if no error returned
	return true, nil
}

func createNativeTable(ctx context.Context, client *bigquery.Client, datasetID, tableID string, schema bigquery.Schema) error {
	tableRef := client.Dataset(datasetID).Table(tableID)
	if err := tableRef.Create(ctx, &bigquery.TableMetadata{Name: tableID, Schema: schema}); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func deleteTable(ctx context.Context, client *bigquery.Client, datasetID, tableID string) error {
	tableRef := client.Dataset(datasetID).Table(tableID)
	err := tableRef.Delete(ctx)
	if err != nil {
		if isNotFoundErr(err) {
			return errno.ErrTableNotFound.GenWithStackByArgs(fmt.Sprintf("%s.%s", datasetID, tableID))
		}
		return errors.Trace(err)
	}
	return nil
}

// newLoadSource builds the job source of req: an in-memory reader or a list
// of gs:// objects.
func newLoadSource(req *coreinterfaces.LoadRequest) (bigquery.LoadSource, error) {
	var fileConfig *bigquery.FileConfig
	var src bigquery.LoadSource
	switch {
	case req.Reader != nil && len(req.SourceURIs) == 0:
		readerSrc := bigquery.NewReaderSource(req.Reader)
		fileConfig, src = &readerSrc.FileConfig, readerSrc
	case req.Reader == nil && len(req.SourceURIs) > 0:
		gcsRef := bigquery.NewGCSReference(req.SourceURIs...)
		fileConfig, src = &gcsRef.FileConfig, gcsRef
	default:
		return nil, errors.New("load request needs exactly one of a reader or source URIs")
	}
	fileConfig.SourceFormat = bigquery.DataFormat(req.Format)
	fileConfig.AutoDetect = req.Schema == nil && req.Autodetect
	fileConfig.Schema = req.Schema
	if req.Format == coreinterfaces.SourceCSV {
		fileConfig.SkipLeadingRows = req.SkipLeadingRows
	}
	return src, nil
}

// newLoader configures a load job that never appends to existing rows.
func newLoader(table *bigquery.Table, src bigquery.LoadSource, req *coreinterfaces.LoadRequest) *bigquery.Loader {
	loader := table.LoaderFrom(src)
	loader.JobID = req.JobID
	loader.WriteDisposition = bigquery.WriteEmpty
	if req.CreateIfNeeded {
		loader.CreateDisposition = bigquery.CreateIfNeeded
	} else {
		loader.CreateDisposition = bigquery.CreateNever
	}
	return loader
}

// malformedRequestMessages returns every message of a 400 response. ok is
// false for any other failure.
func malformedRequestMessages(err error) (msgs []string, ok bool) {
	e, ok := errors.Cause(err).(*googleapi.Error)
	if !ok || e.Code != http.StatusBadRequest {
		return nil, false
	}
	for _, item := range e.Errors {
		msgs = append(msgs, item.Message)
	}
	if len(msgs) == 0 {
		msgs = append(msgs, e.Message)
	}
	return msgs, true
}

// jobStatusMessages returns every row and field error of a job whose final
// error is an invalid request. ok is false when the job failed for another
// reason.
func jobStatusMessages(final error, errs []*bigquery.Error) (msgs []string, ok bool) {
	jobErr, isBQErr := final.(*bigquery.Error)
	if !isBQErr || jobErr.Reason != reasonInvalid {
		return nil, false
	}
	for _, e := range errs {
		if e == nil {
			continue
		}
		if e.Location != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s", e.Location, e.Message))
		} else {
			msgs = append(msgs, e.Message)
		}
	}
	if len(msgs) == 0 {
		msgs = append(msgs, jobErr.Message)
	}
	return msgs, true
}

func outputRows(status *bigquery.JobStatus) int64 {
	if status == nil || status.Statistics == nil {
		return 0
	}
	if stats, ok := status.Statistics.Details.(*bigquery.LoadStatistics); ok {
		return stats.OutputRows
	}
	return 0
}

// splitGCSURI splits gs://bucket/path into bucket and object path.
func splitGCSURI(uri string) (string, string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", errors.Annotatef(err, "failed to parse %s", uri)
	}
	if u.Scheme != "gs" && u.Scheme != "gcs" {
		return "", "", errors.Errorf("not a gcs uri: %s", uri)
	}
	object := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || object == "" {
		return "", "", errors.Errorf("gcs uri needs a bucket and an object: %s", uri)
	}
	return u.Host, object, nil
}

// checkGCSSources fails when a source object does not exist. A wildcard URI
// must match at least one object, otherwise BigQuery fails the job with a
// file-not-found error after it was created.
func checkGCSSources(ctx context.Context, client *storage.Client, uris []string) error {
	for _, uri := range uris {
		bucket, object, err := splitGCSURI(uri)
		if err != nil {
			return errors.Trace(err)
		}
		if idx := strings.Index(object, "*"); idx >= 0 {
			it := client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: object[:idx]})
			if _, err := it.Next(); err != nil {
				if err == iterator.Done {
					return errors.Errorf("no object matches %s", uri)
				}
				return errors.Annotatef(err, "failed to list %s", uri)
			}
			continue
		}
		if _, err := client.Bucket(bucket).Object(object).Attrs(ctx); err != nil {
			if err == storage.ErrObjectNotExist {
				return errors.Errorf("object %s does not exist", uri)
			}
			return errors.Annotatef(err, "failed to stat %s", uri)
		}
	}
	return nil
}

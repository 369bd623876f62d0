package bigquerysql

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/pingcap-inc/file2bq/pkg/coreinterfaces"
	"github.com/pingcap/errors"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

func TestNewLoadSourceInferred(t *testing.T) {
	req := &coreinterfaces.LoadRequest{
		Table:          "transactions",
		Format:         coreinterfaces.SourceNDJSON,
		Reader:         strings.NewReader(`{"id":1}`),
		Autodetect:     true,
		CreateIfNeeded: true,
	}
	src, err := newLoadSource(req)
	require.NoError(t, err)
	readerSrc, ok := src.(*bigquery.ReaderSource)
	require.True(t, ok)
	require.Equal(t, bigquery.JSON, readerSrc.SourceFormat)
	require.True(t, readerSrc.AutoDetect)
	require.Nil(t, readerSrc.Schema)
}

func TestNewLoadSourceExplicitSchemaOverridesInference(t *testing.T) {
	schema := bigquery.Schema{
		{Name: "id", Type: bigquery.IntegerFieldType, Required: true},
		{Name: "amount", Type: bigquery.NumericFieldType},
	}
	req := &coreinterfaces.LoadRequest{
		Table:      "transactions",
		Format:     coreinterfaces.SourceNDJSON,
		Reader:     strings.NewReader(`{"id":1,"amount":"12.50"}`),
		Schema:     schema,
		Autodetect: true,
	}
	src, err := newLoadSource(req)
	require.NoError(t, err)
	readerSrc := src.(*bigquery.ReaderSource)
	require.False(t, readerSrc.AutoDetect)
	require.Equal(t, schema, readerSrc.Schema)
}

func TestNewLoadSourceGCS(t *testing.T) {
	req := &coreinterfaces.LoadRequest{
		Table:           "transactions",
		Format:          coreinterfaces.SourceCSV,
		SourceURIs:      []string{"gs://bucket/exports/transactions*.csv"},
		Autodetect:      true,
		SkipLeadingRows: 1,
	}
	src, err := newLoadSource(req)
	require.NoError(t, err)
	gcsRef, ok := src.(*bigquery.GCSReference)
	require.True(t, ok)
	require.Equal(t, []string{"gs://bucket/exports/transactions*.csv"}, gcsRef.URIs)
	require.Equal(t, bigquery.CSV, gcsRef.SourceFormat)
	require.Equal(t, int64(1), gcsRef.SkipLeadingRows)

	_, err = newLoadSource(&coreinterfaces.LoadRequest{Table: "t", Format: coreinterfaces.SourceCSV})
	require.Error(t, err)
}

func TestNewLoader(t *testing.T) {
	client, err := bigquery.NewClient(context.Background(), "project", option.WithoutAuthentication())
	require.NoError(t, err)
	defer client.Close()

	req := &coreinterfaces.LoadRequest{
		Table:  "transactions",
		JobID:  "file2bq_transactions_1",
		Format: coreinterfaces.SourceNDJSON,
		Reader: strings.NewReader(""),
	}
	src, err := newLoadSource(req)
	require.NoError(t, err)

	loader := newLoader(client.Dataset("dataset").Table(req.Table), src, req)
	require.Equal(t, "file2bq_transactions_1", loader.JobID)
	require.Equal(t, bigquery.WriteEmpty, loader.WriteDisposition)
	require.Equal(t, bigquery.CreateNever, loader.CreateDisposition)
	require.Equal(t, "transactions", loader.Dst.TableID)
	require.Equal(t, "dataset", loader.Dst.DatasetID)

	req.CreateIfNeeded = true
	loader = newLoader(client.Dataset("dataset").Table(req.Table), src, req)
	require.Equal(t, bigquery.CreateIfNeeded, loader.CreateDisposition)
}

func TestMalformedRequestMessages(t *testing.T) {
	err := errors.Trace(&googleapi.Error{
		Code:    http.StatusBadRequest,
		Message: "Invalid schema",
		Errors: []googleapi.ErrorItem{
			{Reason: "invalid", Message: "Invalid field name \"a b\""},
			{Reason: "invalid", Message: "Field amount has changed type"},
		},
	})
	msgs, ok := malformedRequestMessages(err)
	require.True(t, ok)
	require.Equal(t, []string{"Invalid field name \"a b\"", "Field amount has changed type"}, msgs)

	msgs, ok = malformedRequestMessages(&googleapi.Error{Code: http.StatusBadRequest, Message: "Bad request"})
	require.True(t, ok)
	require.Equal(t, []string{"Bad request"}, msgs)

	_, ok = malformedRequestMessages(&googleapi.Error{Code: http.StatusForbidden, Message: "quota"})
	require.False(t, ok)
	_, ok = malformedRequestMessages(errors.New("connection reset"))
	require.False(t, ok)
}

func TestJobStatusMessages(t *testing.T) {
	errs := []*bigquery.Error{
		{Reason: "invalid", Location: "row 2", Message: "Could not parse 'abc' as INT64"},
		{Reason: "invalid", Message: "Error while reading data"},
	}
	msgs, ok := jobStatusMessages(&bigquery.Error{Reason: "invalid", Message: "too many errors"}, errs)
	require.True(t, ok)
	require.Equal(t, []string{"row 2: Could not parse 'abc' as INT64", "Error while reading data"}, msgs)

	msgs, ok = jobStatusMessages(&bigquery.Error{Reason: "invalid", Message: "too many errors"}, nil)
	require.True(t, ok)
	require.Equal(t, []string{"too many errors"}, msgs)

	_, ok = jobStatusMessages(&bigquery.Error{Reason: "backendError", Message: "internal"}, errs)
	require.False(t, ok)
}

func TestIsNotFoundErr(t *testing.T) {
	require.True(t, isNotFoundErr(&googleapi.Error{Code: http.StatusNotFound}))
	require.True(t, isNotFoundErr(errors.Trace(&googleapi.Error{Code: http.StatusNotFound})))
	require.False(t, isNotFoundErr(&googleapi.Error{Code: http.StatusForbidden}))
	require.False(t, isNotFoundErr(errors.New("not found")))
}

func TestOutputRows(t *testing.T) {
	require.Equal(t, int64(0), outputRows(nil))
	require.Equal(t, int64(3), outputRows(&bigquery.JobStatus{
		Statistics: &bigquery.JobStatistics{Details: &bigquery.LoadStatistics{OutputRows: 3}},
	}))
}

func TestSplitGCSURI(t *testing.T) {
	bucket, object, err := splitGCSURI("gs://bucket/exports/a.csv")
	require.NoError(t, err)
	require.Equal(t, "bucket", bucket)
	require.Equal(t, "exports/a.csv", object)

	_, _, err = splitGCSURI("s3://bucket/a.csv")
	require.Error(t, err)
	_, _, err = splitGCSURI("gs://bucket")
	require.Error(t, err)
}
